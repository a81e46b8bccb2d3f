// Package server implements the HTTP binding of the engine and
// persistence contracts (SPEC_FULL.md §4.11): thin chi handlers that
// decode JSON, call internal/engine or internal/store, encode JSON, and
// translate the error taxonomy to HTTP status codes. Grounded on the
// teacher's own handler idiom (internal/server/r2_backup_handlers.go: a
// struct holding its collaborators plus a scoped zerolog.Logger, a
// writeJSON helper, per-request context.WithTimeout) and its top-level
// router setup (trader/cmd/tradernet-sdk/main.go: chi.NewRouter plus
// chi's Logger/Recoverer middleware).
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/kanosym/sensitivity-core/internal/store"
	"github.com/rs/zerolog"
)

// errNotFound marks a project or test run that does not exist; routed to
// 404 by writeError.
var errNotFound = errors.New("not found")

const runTimeout = 5 * time.Minute

// runEngine is the subset of *engine.Engine the server depends on, kept
// as an interface so handler tests can substitute a fake instead of
// running real sweeps.
type runEngine interface {
	Validate(req domain.RunRequest) (domain.Portfolio, domain.PerturbSpec, error)
	Run(ctx context.Context, req domain.RunRequest, token *estimate.CancelToken) (*domain.TestRun, error)
}

// Server holds every collaborator the HTTP handlers need.
type Server struct {
	engine   runEngine
	projects store.ProjectStore
	testRuns store.TestRunStore
	index    *store.SQLiteIndex
	mirror   *store.S3Mirror // nil when S3 backup is disabled
	log      zerolog.Logger
}

// New builds a Server. mirror may be nil.
func New(engine runEngine, projects store.ProjectStore, testRuns store.TestRunStore, index *store.SQLiteIndex, mirror *store.S3Mirror, log zerolog.Logger) *Server {
	return &Server{
		engine:   engine,
		projects: projects,
		testRuns: testRuns,
		index:    index,
		mirror:   mirror,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// Router builds the chi.Router exposing every operation in the API
// surface table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/run", s.handleRun)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)

			r.Route("/{project_id}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Patch("/", s.handleRenameProject)
				r.Delete("/", s.handleDeleteProject)

				r.Route("/test-runs", func(r chi.Router) {
					r.Post("/", s.handleSaveTestRun)
					r.Get("/", s.handleListTestRuns)
					r.Get("/{test_run_id}", s.handleGetTestRun)
					r.Delete("/{test_run_id}", s.handleDeleteTestRun)
				})
			})
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
