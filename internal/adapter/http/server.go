package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions is the session registry the API serves.
type Sessions interface {
	Create() (*report.Session, error)
	Get(id string) (*report.Session, bool)
	Delete(id string) bool
}

// Server exposes the report-builder API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	sessions   Sessions
	catalog    domain.Catalog
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 session routes plus
// /healthz, /readyz, and /metrics.
func NewServer(addr string, ready sharedobs.ReadinessChecker, sessions Sessions, catalog domain.Catalog, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessions: sessions,
		catalog:  catalog,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.withSession(s.handleGetSession))
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/filters", s.withSession(s.handleUpdateFilter))
	mux.HandleFunc("POST /api/v1/sessions/{id}/layers/{type}/toggle", s.withSession(s.handleToggleLayer))
	mux.HandleFunc("POST /api/v1/sessions/{id}/layers/select-all", s.withSession(s.handleSelectAll))
	mux.HandleFunc("POST /api/v1/sessions/{id}/layers/deselect-all", s.withSession(s.handleDeselectAll))
	mux.HandleFunc("POST /api/v1/sessions/{id}/build", s.withSession(s.handleBuild))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// ReadinessGroup is ready when every member is.
type ReadinessGroup []sharedobs.ReadinessChecker

func (g ReadinessGroup) CheckReadiness(ctx context.Context) error {
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
