package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/listas/internal/config"
	"github.com/JonMunkholm/listas/internal/core"
	"github.com/JonMunkholm/listas/internal/metrics"
	"github.com/JonMunkholm/listas/internal/pipeline"
)

const csvHeader = "SEQ_UV;FACE;QUADRA;LOGRADOURO;ENDERECO;PONTO DE REFERENCIA;LOCALIDADE;ESPECIE;NOME_RESPONSAVEL_1;TELEFONE_1\n"

var (
	goodCSV = csvHeader + "2;1;10;Rua A;12;;Centro;Casa Residencial;Ana;111\n1;1;10;Rua A;10;;Centro;Casa;Bia;222\n"
	badCSV  = csvHeader + "1;1;x;Rua A;12;;Centro;Casa;Ana;111\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: time.Minute},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxFiles:      5,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Rate:     config.RateLimitConfig{Enabled: false},
		Pipeline: config.PipelineConfig{Workers: 2, ArchiveName: "listas_processadas.zip"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := pipeline.NewService(pipeline.Options{
		Workers:       cfg.Pipeline.Workers,
		MaxFiles:      cfg.Upload.MaxFiles,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		Metrics:       metrics.NewPipeline(reg),
	})
	return NewServer(cfg, svc, reg)
}

type file struct {
	name string
	body string
}

func multipartRequest(t *testing.T, path string, files ...file) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Gerar Listas")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestGenerate_Download(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, path := range []string{"/generate", "/api/generate"} {
		t.Run(path, func(t *testing.T) {
			req := multipartRequest(t, path,
				file{"moradores_Quadra10.csv", goodCSV},
				file{"moradores_Quadra11.csv", goodCSV},
			)
			rec := serve(s, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename=listas_processadas.zip`, rec.Header().Get("Content-Disposition"))
			assert.NotEmpty(t, rec.Header().Get("X-Batch-ID"))

			body := rec.Body.Bytes()
			zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
			require.NoError(t, err)
			require.Len(t, zr.File, 2)
			assert.Equal(t, "Quadra10.xlsx", zr.File[0].Name)
			assert.Equal(t, "Quadra11.xlsx", zr.File[1].Name)
		})
	}
}

func TestGenerate_BadFileJSON(t *testing.T) {
	s := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/generate",
		file{"moradores_Quadra10.csv", goodCSV},
		file{"moradores_Quadra12.csv", badCSV},
	)
	rec := serve(s, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, rec.Header().Get("X-Batch-ID"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VAL001", resp.Code)
	assert.Contains(t, resp.Details, "moradores_Quadra12.csv")
	assert.Contains(t, resp.Details, "QUADRA")
}

func TestGenerate_BadFileHTML(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, multipartRequest(t, "/generate", file{"lista.csv", badCSV}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "VAL001")
	assert.NotContains(t, rec.Header().Get("Content-Type"), "zip")
}

func TestGenerate_RequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		req      func(t *testing.T) *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name: "no files",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/generate")
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("x"))
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE002",
		},
		{
			name: "truncated multipart body",
			req: func(t *testing.T) *http.Request {
				body := "--b\r\nContent-Disposition: form-data; name=\"files\"; filename=\"a.csv\"\r\n\r\nQUADRA;FA"
				req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
				req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
				return req
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE002",
		},
		{
			name:   "too many files",
			mutate: func(c *config.Config) { c.Upload.MaxFiles = 1 },
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/generate", file{"a.csv", goodCSV}, file{"b.csv", goodCSV})
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE006",
		},
		{
			name:   "file too large",
			mutate: func(c *config.Config) { c.Upload.MaxFileSize = 64 },
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/generate", file{"a.csv", goodCSV})
			},
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
		{
			name: "binary upload",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/generate", file{"a.csv", "PK\x03\x04\x14\x00\x00\x00\x08\x00rest"})
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "FILE003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			rec := serve(newTestServer(t, cfg), tt.req(t))

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestGenerate_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = 10 * time.Millisecond
	s := newTestServer(t, cfg)

	require.True(t, s.service.Limiter().TryAcquire())
	defer s.service.Limiter().Release()

	rec := serve(s, multipartRequest(t, "/api/generate", file{"a.csv", goodCSV}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "BATCH001")
}

func TestInspect(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, multipartRequest(t, "/api/inspect",
		file{"moradores_Quadra10.csv", goodCSV},
		file{"moradores_Quadra12.csv", badCSV},
	))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.OK)
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "Quadra10.xlsx", resp.Files[0].Entry)
	assert.Equal(t, 2, resp.Files[0].Rows)
	assert.Empty(t, resp.Files[0].Code)
	assert.Equal(t, "VAL001", resp.Files[1].Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())
	serve(s, multipartRequest(t, "/api/generate", file{"a.csv", goodCSV}))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Batches.MaxConcurrent)
	assert.Equal(t, 0, health.Batches.Active)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `listas_batches_total{result="success"} 1`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg)

	first := serve(s, multipartRequest(t, "/api/inspect", file{"a.csv", goodCSV}))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, multipartRequest(t, "/api/inspect", file{"a.csv", goodCSV}))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE001")
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// pages are not limited
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{pipeline.ErrNoFiles, http.StatusBadRequest},
		{pipeline.ErrBusy, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %w", errMalformedForm, io.ErrUnexpectedEOF), http.StatusBadRequest},
		{fmt.Errorf("%w in a.csv: %w", core.ErrInvalidCSV, io.ErrUnexpectedEOF), http.StatusUnprocessableEntity},
		{&pipeline.FileError{File: "a.csv", Err: fmt.Errorf("%w: bad byte", core.ErrEncoding)}, http.StatusUnprocessableEntity},
		{&pipeline.FileError{File: "a.csv", Err: errFileTooLarge}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
