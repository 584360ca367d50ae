package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/fundgest/internal/config"
	"github.com/dgallion1/fundgest/internal/pipeline"
	"github.com/dgallion1/fundgest/internal/recordstore"
)

// RecordStore is the part of the record store client the API reads and
// deletes through.
type RecordStore interface {
	ListOutputs(ctx context.Context, dataset string, limit int) ([]recordstore.OutputRef, error)
	GetOutput(ctx context.Context, dataset, name string) (*recordstore.StoredOutput, error)
	DeleteOutput(ctx context.Context, dataset, name string) error
}

// Server is the HTTP API server for fundgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        RecordStore
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. store may be nil when
// no record store is configured.
func NewServer(orch *pipeline.Orchestrator, store RecordStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.orchestrator.Metrics().Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/datasets", s.handleDatasets)
		r.Post("/api/process", s.handleProcess)
		r.Post("/api/process/batch", s.handleBatchProcess)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/outputs/{index}", s.handleJobOutput)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/records", s.handleListRecords)
		r.Get("/api/records/{dataset}/{name}", s.handleGetRecord)
		r.Delete("/api/records/{dataset}/{name}", s.handleDeleteRecord)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
