package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/listas/internal/archive"
	"github.com/JonMunkholm/listas/internal/logging"
	"github.com/JonMunkholm/listas/internal/pipeline"
	"github.com/JonMunkholm/listas/internal/web/templates"
)

// formField is the multipart field carrying the CSV files.
const formField = "files"

// formMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const formMemory = 32 << 20

// InspectResponse is the body of POST /api/inspect.
type InspectResponse struct {
	OK    bool                   `json:"ok"`
	Files []pipeline.FileSummary `json:"files"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Batches pipeline.LimiterStatus `json:"batches"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.UploadPage(templates.UploadPageData{
		MaxFiles:    s.cfg.Upload.MaxFiles,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		ArchiveName: s.cfg.Pipeline.ArchiveName,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleGenerate turns the uploaded files into the archive download. The
// response is either the complete archive or an error; nothing partial.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Generate(r.Context(), uploads)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	h := w.Header()
	h.Set("Content-Type", archive.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": s.cfg.Pipeline.ArchiveName,
	}))
	h.Set("Content-Length", strconv.FormatInt(res.Archive.Size(), 10))
	h.Set("X-Batch-ID", res.BatchID)
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, res.Archive); err != nil {
		logging.FromContext(r.Context()).Warn("archive download interrupted",
			"batch_id", res.BatchID,
			"error", err,
		)
	}
}

// handleInspect reports what each upload would produce without rendering.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	files, err := s.service.Inspect(uploads)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := InspectResponse{OK: true, Files: files}
	for _, f := range files {
		if !f.OK() {
			resp.OK = false
			break
		}
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:  "ok",
		Batches: s.service.Limiter().Status(),
	})
}

// readUploads reads every file of the multipart "files" field. The whole body
// is capped at MaxFiles * MaxFileSize plus form overhead, and each file at
// MaxFileSize.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]pipeline.Upload, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	maxBody := maxSize*int64(s.cfg.Upload.MaxFiles) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			limit := maxBody
			if tooLarge != nil {
				limit = tooLarge.Limit
			}
			return nil, fmt.Errorf("%w: request exceeds %d bytes", errFileTooLarge, limit)
		}
		return nil, fmt.Errorf("%w: %w", errMalformedForm, err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[formField]
	if len(headers) == 0 {
		return nil, pipeline.ErrNoFiles
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, limit is %d", pipeline.ErrTooManyFiles, len(headers), s.cfg.Upload.MaxFiles)
	}

	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh, maxSize)
		if err != nil {
			return nil, &pipeline.FileError{File: fh.Filename, Err: err}
		}
		uploads = append(uploads, pipeline.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if fh.Size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", errFileTooLarge, fh.Size, maxSize)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxSize+1))
}
