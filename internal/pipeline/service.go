// Package pipeline turns a batch of uploaded CSV lists into one ZIP of
// formatted spreadsheets.
//
// A batch either yields a complete archive or an error naming the first
// file that failed; no partial archive is ever returned.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/listas/internal/archive"
	"github.com/JonMunkholm/listas/internal/core"
	"github.com/JonMunkholm/listas/internal/logging"
	"github.com/JonMunkholm/listas/internal/metrics"
	"github.com/JonMunkholm/listas/internal/sheet"
)

var (
	// ErrNoFiles is returned for a batch without uploads.
	ErrNoFiles = core.ErrNoFiles
	// ErrTooManyFiles is returned when a batch exceeds the file limit.
	ErrTooManyFiles = core.ErrTooManyFiles
)

// Upload is one named file supplied by the user.
type Upload struct {
	Name string
	Data []byte
}

// FileError ties a failure to the upload that caused it.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result is a finished batch.
type Result struct {
	BatchID  string
	Archive  *bytes.Reader
	Entries  []string
	Rows     int
	Duration time.Duration
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Workers       int
	MaxFiles      int
	MaxConcurrent int
	MaxWait       time.Duration
	Metrics       *metrics.Pipeline
}

// Service runs generation batches.
type Service struct {
	workers  int
	maxFiles int
	limiter  *Limiter
	metrics  *metrics.Pipeline
}

// NewService creates a Service from opts.
func NewService(opts Options) *Service {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewPipeline(nil)
	}
	return &Service{
		workers:  workers,
		maxFiles: opts.MaxFiles,
		limiter:  NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		metrics:  m,
	}
}

// Limiter exposes the batch limiter for health checks and shutdown.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// rendered is the output of one upload, stored at the upload's index.
type rendered struct {
	doc  *sheet.Document
	rows int
}

// Generate parses, normalizes and renders every upload, then packs the
// sheets into a single archive. Entries keep upload order.
func (s *Service) Generate(ctx context.Context, uploads []Upload) (*Result, error) {
	if err := s.checkBatch(uploads); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	batchID := uuid.NewString()
	ctx = logging.WithBatch(ctx, batchID)
	logger := logging.FromContext(ctx)
	logger.Info("batch started", "files", len(uploads), "workers", s.workers)

	start := time.Now()
	res, err := s.generate(ctx, uploads)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.BatchDone(elapsed, 0, err)
		logger.Warn("batch failed",
			"error", err,
			"code", core.MapError(err).Code,
			"duration", elapsed,
		)
		return nil, err
	}

	res.BatchID = batchID
	res.Duration = elapsed
	s.metrics.BatchDone(elapsed, res.Archive.Size(), nil)
	logger.Info("batch completed",
		"entries", len(res.Entries),
		"rows", res.Rows,
		"bytes", res.Archive.Size(),
		"duration", elapsed,
	)
	return res, nil
}

func (s *Service) checkBatch(uploads []Upload) error {
	if len(uploads) == 0 {
		return ErrNoFiles
	}
	if s.maxFiles > 0 && len(uploads) > s.maxFiles {
		return fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(uploads), s.maxFiles)
	}
	return nil
}

func (s *Service) generate(ctx context.Context, uploads []Upload) (*Result, error) {
	out := make([]rendered, len(uploads))
	defer func() {
		for _, r := range out {
			if r.doc != nil {
				r.doc.Close()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, u := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, rows, err := renderUpload(u)
			s.metrics.FileDone(rows, err)
			if err != nil {
				return &FileError{File: u.Name, Err: err}
			}
			out[i] = rendered{doc: doc, rows: rows}
			logging.WithFields(gctx, "file", u.Name).Debug("sheet rendered",
				"sheet", doc.Name,
				"rows", rows,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = EntryName(u.Name)
	}
	names = archive.UniqueNames(names)

	entries := make([]archive.Entry, len(out))
	total := 0
	for i, r := range out {
		entries[i] = archive.Entry{Name: names[i], Body: r.doc}
		total += r.rows
	}

	zr, err := archive.Build(entries)
	if err != nil {
		return nil, err
	}
	return &Result{Archive: zr, Entries: names, Rows: total}, nil
}

func renderUpload(u Upload) (*sheet.Document, int, error) {
	table, err := loadTable(u)
	if err != nil {
		return nil, 0, err
	}
	doc, err := sheet.Render(table, u.Name)
	if err != nil {
		return nil, 0, err
	}
	return doc, len(table.Rows), nil
}

func loadTable(u Upload) (*core.Table, error) {
	ds, err := core.ParseDataset(u.Name, u.Data)
	if err != nil {
		return nil, err
	}
	return core.Normalize(ds)
}

// EntryName is the archive entry used for an upload before de-duplication.
func EntryName(uploadName string) string {
	return sheet.Name(uploadName) + sheet.Extension
}
