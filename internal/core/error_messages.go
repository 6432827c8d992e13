package core

// error_messages.go maps technical errors to messages shown on the upload
// page, each with a code users can quote when reporting a problem.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid identifier: QUADRA, FACE or SEQ_UV is not a whole number
//	         Patterns: "invalid integer"
//	VAL004 - Missing column: an expected column is absent from the header
//	         Patterns: "missing required column"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Patterns: "file too large"
//	FILE002 - Invalid CSV             Patterns: "invalid csv"
//	FILE003 - Not a text file         Patterns: "not a text file", "encoding error"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty file              Patterns: "empty file"
//	FILE006 - Too many files          Patterns: "too many files"
//
// # Generation Errors
//
//	SHEET001 - Spreadsheet could not be built   Patterns: "sheet format error", "render sheet"
//	ARC001   - Archive could not be built       Patterns: "build archive"
//
// # Batch Errors (BATCH001-BATCH099)
//
//	BATCH001 - Server busy            Patterns: "too many batches"
//	BATCH002 - Request cancelled      Patterns: "context canceled"
//	BATCH003 - Request timed out      Patterns: "context deadline exceeded"
//	RATE001  - Rate limited           Patterns: "rate limit"
//
// Typed errors are matched first: errors.As for TypeError, SchemaError,
// FormatError and csv.ParseError, then errors.Is against each entry's
// sentinel in table order. Error text carries file names and cell values, so
// patterns are only a fallback for errors without a sentinel, matched
// case-insensitively with strings.Contains. Unmatched errors map to ERR000;
// check the server log for the original error, which is always logged with
// the request ID.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	target  error
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "invalid integer",
		msg: UserMessage{
			Message: "A QUADRA, FACE or SEQ_UV value is not a whole number",
			Action:  "Fix the value reported in the details and upload the file again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Export the list again with all address columns included",
			Code:    "VAL004",
		},
	},
	{
		target:  ErrFileTooLarge,
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller lists",
			Code:    "FILE001",
		},
	},
	{
		target:  ErrInvalidCSV,
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is semicolon-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		target:  ErrNotText,
		pattern: "not a text file",
		msg: UserMessage{
			Message: "File is not a CSV text file",
			Action:  "Save the list as CSV before uploading",
			Code:    "FILE003",
		},
	},
	{
		target:  ErrEncoding,
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		target:  ErrNoFiles,
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select at least one CSV file",
			Code:    "FILE004",
		},
	},
	{
		target:  ErrEmptyFile,
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		target:  ErrTooManyFiles,
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one batch",
			Action:  "Generate the lists in smaller batches",
			Code:    "FILE006",
		},
	},
	{
		pattern: "sheet format error",
		msg: UserMessage{
			Message: "The spreadsheet could not be built",
			Action:  "Please try again or contact support",
			Code:    "SHEET001",
		},
	},
	{
		target:  ErrRender,
		pattern: "render sheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be built",
			Action:  "Please try again or contact support",
			Code:    "SHEET001",
		},
	},
	{
		target:  ErrArchive,
		pattern: "build archive",
		msg: UserMessage{
			Message: "The download archive could not be built",
			Action:  "Please try again or contact support",
			Code:    "ARC001",
		},
	},
	{
		target:  ErrBusy,
		pattern: "too many batches",
		msg: UserMessage{
			Message: "System is busy generating other lists",
			Action:  "Please wait a moment and try again",
			Code:    "BATCH001",
		},
	},
	{
		target:  context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "BATCH002",
		},
	},
	{
		target:  context.DeadlineExceeded,
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Upload fewer files at a time",
			Code:    "BATCH003",
		},
	},
	{
		target:  ErrRateLimited,
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
// Example:
//
//	err := &TypeError{Column: "FACE", Value: "x"}
//	msg := MapError(err)
//	// msg.Code == "VAL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := typedMessage(err); ok {
		return msg
	}
	for _, ep := range errorPatterns {
		if ep.target != nil && errors.Is(err, ep.target) {
			return ep.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// typedMessage maps the structured errors returned by parsing, normalizing
// and rendering.
func typedMessage(err error) (UserMessage, bool) {
	var (
		typeErr   *TypeError
		schemaErr *SchemaError
		formatErr *FormatError
		csvErr    *csv.ParseError
	)
	switch {
	case errors.As(err, &typeErr):
		return lookupPattern("invalid integer"), true
	case errors.As(err, &schemaErr):
		return lookupPattern("missing required column"), true
	case errors.As(err, &formatErr):
		return lookupPattern("sheet format error"), true
	case errors.As(err, &csvErr):
		return lookupPattern("invalid csv"), true
	}
	return UserMessage{}, false
}

func lookupPattern(pattern string) UserMessage {
	for _, ep := range errorPatterns {
		if ep.pattern == pattern {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern, i.e. whether its
// own text is safe and useful to show next to the mapped message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
