package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/docscan/internal/engine"
	"github.com/ivlev/docscan/internal/source"
	"github.com/ivlev/docscan/internal/system"

	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := system.ReadStats(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "host stats unavailable", "error", err)
	}

	ocrName := "none"
	if e := s.pipeline.Text.Engine; e != nil {
		ocrName = e.Name()
	}

	writeJson(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ocr":    ocrName,
		"stats":  stats,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	mode, err := engine.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.handleMode(mode)(w, r)
}

func (s *Server) handleMode(mode engine.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slog.With("request_id", w.Header().Get("X-Request-Id"), "mode", mode)

		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, errors.New("failed to parse form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("no file part"))
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, errors.New("no selected file"))
			return
		}

		base := sanitizeName(header.Filename)

		if err := s.slots.Acquire(ctx, 1); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		defer s.slots.Release(1)

		path, err := s.saveUpload(file, header.Filename)
		if err != nil {
			log.ErrorContext(ctx, "failed to store upload", "error", err)
			writeError(w, http.StatusInternalServerError, errors.New("failed to store upload"))
			return
		}
		defer os.Remove(path)

		if s.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()
		}

		result, err := s.pipeline.Process(ctx, source.Input{Path: path, Name: header.Filename}, mode)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				log.ErrorContext(ctx, "pipeline failed", "file", header.Filename, "error", err)
			}
			writeError(w, status, err)
			return
		}

		log.InfoContext(ctx, "processed", "file", header.Filename, "fallback", result.Contour.Fallback, "took", result.Timings.Total)

		switch mode {
		case engine.ModeScan:
			writeAttachment(w, "image/jpeg", base+"_scanned.jpg", result.Scan.Data)
		case engine.ModeText:
			writeAttachment(w, "text/plain; charset=utf-8", base+"_recognized.txt", []byte(result.Text))
		}
	}
}

// saveUpload copies the upload to a uniquely named temp file
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !source.Supported(ext) {
		ext = ""
	}

	path := filepath.Join(s.tempDir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return path, nil
}

func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindInput, engine.KindInvalidArgument:
		return http.StatusBadRequest
	case engine.KindGeometry:
		return http.StatusUnprocessableEntity
	case engine.KindUnavailable:
		return http.StatusServiceUnavailable
	case engine.KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeName reduces an uploaded file name to a safe base name without
// extension
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)

	name = strings.Trim(name, "._")
	if name == "" {
		return "document"
	}
	return name
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	text := http.StatusText(status)
	if err != nil {
		text = err.Error()
	}

	body := map[string]string{
		"error": text,
	}
	if kind := engine.KindOf(err); kind != engine.KindUnknown {
		body["kind"] = kind.String()
	}

	writeJson(w, status, body)
}
