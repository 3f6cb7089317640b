// Package api serves the backlog over HTTP as JSON.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/abatilo/triage/internal/backlog"
	"github.com/abatilo/triage/internal/metrics"
)

// Options configures a Server.
type Options struct {
	// Secret enables bearer-token auth on /api when non-empty.
	Secret []byte
	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string
	Logger      *slog.Logger
}

type Server struct {
	server   *http.Server
	svc      *backlog.Service
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	opts     Options
}

func NewServer(svc *backlog.Service, m *metrics.Metrics, gatherer prometheus.Gatherer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		svc:      svc,
		metrics:  m,
		gatherer: gatherer,
		opts:     opts,
	}
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.observe)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.HandlerFor(s.gatherer))

	r.Route("/api", func(r chi.Router) {
		if len(s.opts.Secret) > 0 {
			r.Use(requireToken(s.opts.Secret))
		}
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		})

		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Patch("/", s.editTask)
			r.Post("/complete", s.completeTask)
			r.Get("/suggestion", s.suggest)
			r.Post("/assign", s.assignTask)
		})
		r.Get("/stats", s.stats)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}

// ListenAndServe starts the HTTP server. ctx is the base context of every
// request.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.opts.Logger.Info("starting server", "addr", addr, "store", s.svc.Location(), "auth", len(s.opts.Secret) > 0)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
