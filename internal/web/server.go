// Package web serves the table editing API: upload a document, inspect and
// edit its tables, download the reconstructed file.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DevHeauk/han-parse/internal/session"
)

// Server wires the HTTP API over a session store.
type Server struct {
	cfg   Config
	store *session.Store
	log   *slog.Logger
}

// NewServer opens the session store under cfg.DataDir and builds a server.
func NewServer(cfg Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := session.Open(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, store: store, log: log}, nil
}

// Close releases the session store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Route("/tables/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTables)
			r.Post("/", s.handlePutTables)
			r.Post("/edit", s.handleEdit)
			r.Delete("/", s.handleDelete)
		})
		r.Post("/download/{id}", s.handleDownload)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, sweeping idle
// sessions in the background.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", "addr", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.Sweep(ctx, time.Duration(s.cfg.SessionTTL))
			if err != nil {
				s.log.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("swept idle sessions", "count", n)
			}
		}
	}
}
