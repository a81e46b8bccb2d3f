package server

import (
	"context"
	"net/http"
)

// handleValidate implements the validate(request) operation (spec §6.4):
// POST /api/v1/validate.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body runRequestDTO
	if err := decodeJSON(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if _, _, err := s.engine.Validate(body.toDomain()); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// handleRun implements the run(request) operation: POST /api/v1/run.
// Cancellation follows the request's own context, matching SPEC_FULL.md
// §5's "HTTP request cancellation and the soft run deadline share one
// mechanism".
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body runRequestDTO
	if err := decodeJSON(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	run, err := s.engine.Run(ctx, body.toDomain(), nil)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}
