// Package templates renders the HTML pages of the list generator.
//
// Components live in the .templ files; run `templ generate` after editing
// them to refresh the *_templ.go files.
package templates

import (
	"fmt"
	"strconv"
)

// UploadPageData configures the upload form.
type UploadPageData struct {
	MaxFiles    int
	MaxFileSize int64
	ArchiveName string
}

// ErrorView is what an error box shows.
type ErrorView struct {
	Message string
	Action  string
	Code    string
	Details string // technical detail such as file and line, when safe to show
}

func uploadHint(data UploadPageData) string {
	return "Selecione os arquivos CSV (separados por ponto e vírgula). Até " +
		strconv.Itoa(data.MaxFiles) + " arquivos de " + formatSize(data.MaxFileSize) + " cada."
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
