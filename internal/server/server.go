// Package server exposes the catalog and customer operations over a REST
// API. All mutating routes go through the catalog service so the
// recompute-on-change protocol holds no matter which surface made the edit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/healthscore/internal/catalog"
	"github.com/sells-group/healthscore/internal/config"
)

// Server hosts the REST API.
type Server struct {
	svc *catalog.Service
	cfg config.ServerConfig
}

// New creates a Server over the catalog service.
func New(svc *catalog.Service, cfg config.ServerConfig) *Server {
	return &Server{svc: svc, cfg: cfg}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(rateLimiter(s.cfg.RatePerSecond, s.cfg.RateBurst))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/metrics", func(r chi.Router) {
			r.Get("/", s.handleListMetrics)
			r.Post("/", s.handleAddMetric)
			r.Put("/{id}", s.handleUpdateMetric)
			r.Delete("/{id}", s.handleDeleteMetric)
		})

		r.Route("/bands", func(r chi.Router) {
			r.Get("/", s.handleListBands)
			r.Post("/", s.handleAddBand)
			r.Put("/{id}", s.handleUpdateBand)
			r.Delete("/{id}", s.handleDeleteBand)
		})

		r.Route("/fields", func(r chi.Router) {
			r.Get("/", s.handleListFields)
			r.Post("/", s.handleAddField)
			r.Delete("/{id}", s.handleDeleteField)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleSaveCustomer)
			r.Get("/{id}", s.handleGetCustomer)
			r.Put("/{id}", s.handleSaveCustomer)
			r.Delete("/{id}", s.handleDeleteCustomer)
			r.Put("/{id}/values/{metricID}", s.handleSetValue)
		})

		r.Post("/recompute", s.handleRecompute)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/summary", s.handleSummary)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
	})

	return g.Wait()
}
