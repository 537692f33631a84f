// Package server exposes the PDF endpoints and the review UI over HTTP.
package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/pdf"
	"github.com/sells-group/report-studio/internal/render"
	"github.com/sells-group/report-studio/internal/review"
	"github.com/sells-group/report-studio/internal/upload"
)

const defaultMaxBodyBytes = 10 << 20

// Config holds listener and request limits.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

// Dependencies are the collaborators the handlers call into.
type Dependencies struct {
	Renderer  *render.Renderer
	Converter pdf.Converter
	Native    *pdf.NativeRenderer
	Exporter  *pdf.Exporter
	Store     *review.Store
	Upload    upload.Options
}

// Server is the HTTP surface.
type Server struct {
	cfg     Config
	deps    Dependencies
	router  chi.Router
	limiter *ipLimiter
	pages   *template.Template
}

// New wires the router.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if deps.Store == nil {
		deps.Store = review.NewStore()
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		limiter: newIPLimiter(cfg.RateLimit, cfg.RateBurst),
		pages:   pages,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", headerPageCount},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/pdf", s.handlePDF)
		r.Post("/pdf/report", s.handleReportPDF)
		r.Get("/sessions/{id}/pdf", s.handleSessionPDF)
	})

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/sessions/{id}", s.handleSession)
	r.Post("/sessions/{id}/choices", s.handleChoice)
	r.Get("/sessions/{id}/preview", s.handlePreview)
	r.Get("/sessions/{id}/drilldown", s.handleDrilldownPreview)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	zap.L().Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server: graceful shutdown failed", zap.Error(err))
		if cerr := srv.Close(); cerr != nil {
			return eris.Wrap(cerr, "server: close")
		}
	}
	return nil
}
