package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleSaveTestRun implements save_test_run(record): POST
// /api/v1/projects/{project_id}/test-runs.
func (s *Server) handleSaveTestRun(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var body saveTestRunRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	body.TestRun.ProjectID = projectID

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := s.testRuns.SaveTestRun(ctx, body.TestRun); err != nil {
		s.writeError(w, err)
		return
	}

	if s.index != nil {
		if err := s.index.UpsertTestRun(ctx, body.TestRun); err != nil {
			s.log.Warn().Err(err).Str("test_run_id", body.TestRun.TestRunID).Msg("failed to update test run index cache")
		}
	}
	if s.mirror != nil {
		s.mirror.MirrorTestRun(ctx, body.TestRun)
	}

	s.writeJSON(w, http.StatusCreated, body.TestRun)
}

// handleListTestRuns implements list_test_runs(project_id?): GET
// /api/v1/projects/{project_id}/test-runs.
func (s *Server) handleListTestRuns(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	runs, err := s.testRuns.ListTestRuns(ctx, projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// handleGetTestRun implements get_test_run(id): GET
// /api/v1/projects/{project_id}/test-runs/{test_run_id}.
func (s *Server) handleGetTestRun(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	testRunID := chi.URLParam(r, "test_run_id")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	run, err := s.testRuns.GetTestRun(ctx, projectID, testRunID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// handleDeleteTestRun implements delete_test_run(id): DELETE
// /api/v1/projects/{project_id}/test-runs/{test_run_id}.
func (s *Server) handleDeleteTestRun(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	testRunID := chi.URLParam(r, "test_run_id")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := s.testRuns.DeleteTestRun(ctx, projectID, testRunID); err != nil {
		s.writeError(w, err)
		return
	}

	if s.index != nil {
		if err := s.index.RemoveTestRun(ctx, projectID, testRunID); err != nil {
			s.log.Warn().Err(err).Str("test_run_id", testRunID).Msg("failed to remove test run from index cache")
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
