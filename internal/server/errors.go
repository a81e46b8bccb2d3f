package server

import (
	"errors"
	"net/http"
	"os"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// writeError translates the error taxonomy (spec §7) into an HTTP status
// and a JSON error body. ResourceExhaustionError and PersistenceError are
// the only two that indicate no usable result exists; every other
// recognized error type still reaches here only when it escaped a run
// (engine.Run never returns NumericalDegeneracyError, SimulatorFailureError,
// or CancelledError — those are folded into a partial Result instead).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: toFieldErrors(verrs),
		})
		return
	}

	var verr domain.ValidationError
	if errors.As(err, &verr) {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: []fieldErrorDTO{{Field: verr.Field, Message: verr.Message}},
		})
		return
	}

	var reErr domain.ResourceExhaustionError
	if errors.As(err, &reErr) {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: reErr.Error()})
		return
	}

	if errors.Is(err, errNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	var pErr domain.PersistenceError
	if errors.As(err, &pErr) {
		if errors.Is(pErr.Err, os.ErrNotExist) {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: pErr.Error()})
		return
	}

	s.log.Error().Err(err).Msg("unhandled error")
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func toFieldErrors(verrs domain.ValidationErrors) []fieldErrorDTO {
	out := make([]fieldErrorDTO, len(verrs))
	for i, v := range verrs {
		out[i] = fieldErrorDTO{Field: v.Field, Message: v.Message}
	}
	return out
}
