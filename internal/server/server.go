// Package server exposes the pipeline over HTTP: multipart uploads in,
// scans or text out.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"
)

type Server struct {
	http.Handler

	cfg      config.Server
	pipeline *engine.Pipeline
	slots    *semaphore.Weighted
	tempDir  string
}

func New(cfg config.Server, p *engine.Pipeline) (*Server, error) {
	tempDir := filepath.Join(os.TempDir(), "docscan")
	if err := os.MkdirAll(tempDir, 0700); err != nil {
		return nil, err
	}

	slots := cfg.MaxConcurrent
	if slots < 1 {
		slots = 1
	}

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		slots:    semaphore.NewWeighted(int64(slots)),
		tempDir:  tempDir,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
	}))

	s.Attach(r)

	s.Handler = otelhttp.NewHandler(r, "docscan")

	return s, nil
}

func (s *Server) Attach(r chi.Router) {
	r.Get("/health", s.handleHealth)

	r.Post("/scan", s.handleMode(engine.ModeScan))
	r.Post("/ocr", s.handleMode(engine.ModeText))
	r.Post("/text", s.handleMode(engine.ModeText))
	r.Post("/process", s.handleProcess)
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	slog.Info("server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}
