package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON for /api routes or an HTML page for forms

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/listas/internal/core"
	"github.com/JonMunkholm/listas/internal/logging"
	"github.com/JonMunkholm/listas/internal/pipeline"
	"github.com/JonMunkholm/listas/internal/web/templates"
)

// errFileTooLarge is reported when an upload exceeds the configured size.
var errFileTooLarge = core.ErrFileTooLarge

// errMalformedForm is reported when the multipart body cannot be parsed.
var errMalformedForm = fmt.Errorf("%w: malformed upload form", core.ErrInvalidCSV)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// respondError logs the technical error and writes a user-facing response.
// Details are only exposed for errors the user can act on, such as a bad
// value at a given line.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := logging.FromContext(r.Context()).Warn
	if statusCode >= http.StatusInternalServerError {
		level = logging.FromContext(r.Context()).Error
	}
	level("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	var details string
	if core.IsUserFacing(err) && statusCode < http.StatusInternalServerError {
		details = err.Error()
	}

	if wantsJSON(r) {
		render.Status(r, statusCode)
		render.JSON(w, r, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
			Details: details,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	view := templates.ErrorView{
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Details: details,
	}
	if err := templates.ErrorPage(view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// statusFor picks the HTTP status for a generation error.
func statusFor(err error) int {
	var (
		typeErr   *core.TypeError
		schemaErr *core.SchemaError
		formatErr *core.FormatError
		csvErr    *csv.ParseError
	)

	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrNoFiles), errors.Is(err, pipeline.ErrTooManyFiles),
		errors.Is(err, errMalformedForm):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &formatErr):
		return http.StatusInternalServerError
	case errors.As(err, &typeErr), errors.As(err, &schemaErr), errors.As(err, &csvErr),
		errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrNotText),
		errors.Is(err, core.ErrInvalidCSV), errors.Is(err, core.ErrEncoding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	// API routes default to JSON
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
