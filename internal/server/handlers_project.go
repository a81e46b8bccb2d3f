package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/idgen"
)

const storeTimeout = 30 * time.Second

// handleCreateProject implements create_project(name): POST
// /api/v1/projects.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body createProjectRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if body.Name == "" {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "name must not be empty"})
		return
	}

	now := time.Now()
	record := domain.ProjectRecord{
		ProjectID:     idgen.ProjectID(),
		Name:          body.Name,
		Created:       now,
		LastModified:  now,
		Description:   body.Description,
		Configuration: body.Configuration,
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := s.projects.CreateProject(ctx, record); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterProjectWrite(ctx, record)

	s.writeJSON(w, http.StatusCreated, record)
}

// handleListProjects implements list_projects(): GET /api/v1/projects.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projects)
}

// handleGetProject implements get_project(name): GET
// /api/v1/projects/{project_id}. The path segment is the opaque
// project_id (see §3's uuid note), not the display name.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	record, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// handleRenameProject implements rename_project(name, new_name): PATCH
// /api/v1/projects/{project_id}.
func (s *Server) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var body renameProjectRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if body.Name == "" {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "name must not be empty"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := s.projects.RenameProject(ctx, projectID, body.Name); err != nil {
		s.writeError(w, err)
		return
	}

	record, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterProjectWrite(ctx, record)

	s.writeJSON(w, http.StatusOK, record)
}

// handleDeleteProject implements delete_project(name): DELETE
// /api/v1/projects/{project_id}.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		s.writeError(w, err)
		return
	}

	if s.index != nil {
		if err := s.index.RemoveProject(ctx, projectID); err != nil {
			s.log.Warn().Err(err).Str("project_id", projectID).Msg("failed to remove project from index cache")
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// afterProjectWrite refreshes the derived index and, if configured,
// kicks off a best-effort off-box mirror. Both are logged-and-swallowed
// per internal/store's surfaced-error rule: only the FileStore write
// above can fail the request.
func (s *Server) afterProjectWrite(ctx context.Context, record domain.ProjectRecord) {
	if s.index != nil {
		if err := s.index.UpsertProject(ctx, record); err != nil {
			s.log.Warn().Err(err).Str("project_id", record.ProjectID).Msg("failed to update project index cache")
		}
	}
	if s.mirror != nil {
		s.mirror.MirrorProject(ctx, record)
	}
}
