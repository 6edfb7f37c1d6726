// Package web is the upload surface around the conversion pipeline: a form
// to drop order PDFs on, and a handler that converts a batch and answers
// with a ZIP of the generated CSVs. It holds no conversion logic of its
// own — rejected documents are reported and skipped, never retried.
package web

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hgmaier/bestellkonverter/convert"
	"github.com/hgmaier/bestellkonverter/journal"
)

//go:embed static
var staticFS embed.FS

// Config configures the web server.
type Config struct {
	Pipeline *convert.Pipeline
	Journal  *journal.Store // optional outcome sink
	Logger   *slog.Logger

	// MaxUploadBytes caps one request's multipart body (default: 200 MB).
	MaxUploadBytes int64

	// PasswordHash is a bcrypt hash. When set, every route requires HTTP
	// Basic auth with the matching password (any username).
	PasswordHash string
}

// Server handles the upload/download routes.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Server. The pipeline is required.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("web: pipeline is required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 200 * 1024 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{cfg: cfg, logger: cfg.Logger}, nil
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.basicAuth)
	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})
	r.Post("/convert", s.handleConvert)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// handleConvert accepts multipart PDF uploads, converts them strictly in
// submission order and responds with a ZIP of the generated CSVs. The
// per-request temp directory is removed when the batch completes, success
// or not.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart request: "+err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files uploaded (use form field 'files')", http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "bestellkonverter-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	names := map[string]int{}
	var converted, failed int
	var reasons []string

	for _, fh := range files {
		path, err := saveUpload(fh, tmpDir)
		if err != nil {
			failed++
			reasons = append(reasons, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}

		start := time.Now()
		res, err := s.cfg.Pipeline.Convert(r.Context(), path)
		s.journal(fh.Filename, res, err, time.Since(start))
		if err != nil {
			failed++
			reasons = append(reasons, fmt.Sprintf("%s: %v", fh.Filename, err))
			s.logger.Warn("upload rejected", "file", fh.Filename, "reason", err)
			continue
		}

		entry, err := zw.Create(uniqueName(names, res.Filename))
		if err == nil {
			_, err = entry.Write(res.CSV)
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		converted++
	}

	if err := zw.Close(); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("X-Converted-Count", strconv.Itoa(converted))
	w.Header().Set("X-Failed-Count", strconv.Itoa(failed))

	if converted == 0 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintln(w, "no documents could be converted:")
		for _, reason := range reasons {
			fmt.Fprintln(w, "  "+reason)
		}
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="bestellungen_csv.zip"`)
	w.Write(zipBuf.Bytes())
}

// saveUpload writes one uploaded file into dir under its sanitized base
// name. The original filename must survive as the base name because the
// variant classifier reads it.
func saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	name := filepath.Base(fh.Filename)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("unusable filename")
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// uniqueName disambiguates duplicate artifact names within one ZIP (two
// documents can legitimately produce the same date-derived name).
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), seen[name], ext)
}

func (s *Server) journal(file string, res *convert.Result, convErr error, d time.Duration) {
	if s.cfg.Journal == nil {
		return
	}
	e := &journal.Entry{File: file, DurationUs: d.Microseconds()}
	if res != nil {
		e.OK = true
		e.Variant = string(res.Variant)
		e.Items = res.Stats.Items
		e.RowsDropped = res.Stats.RowsDropped
	} else {
		e.Variant = string(s.cfg.Pipeline.Classify(file))
		e.FailKind = string(convert.KindOf(convErr))
	}
	s.cfg.Journal.RecordAsync(e)
}

// basicAuth enforces the configured password on every route. A missing
// hash disables auth entirely (local/internal deployments).
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.PasswordHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		_, pass, ok := r.BasicAuth()
		if !ok || bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="bestellkonverter"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
