// Package store implements persistence for projects and test runs (spec
// §6.3, §6.4). FileStore is the canonical source of truth, one JSON file
// per project and per test run; SQLiteIndex is a derived, rebuildable
// cache of project and test-run summary rows that can list projects
// without scanning the filesystem (it has no test-run listing, and the
// HTTP list handlers read FileStore); S3Mirror is a best-effort off-box backup of the same JSON
// files. Only FileStore errors are ever surfaced to a caller as a
// domain.PersistenceError — index and mirror failures are logged and
// swallowed, since both can be rebuilt or retried from the canonical
// files.
package store

import (
	"context"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// TestRunStore persists and retrieves individual evaluation runs within a
// project (spec §6.4: save_test_run, list_test_runs, get_test_run,
// delete_test_run).
type TestRunStore interface {
	SaveTestRun(ctx context.Context, run domain.TestRun) error
	ListTestRuns(ctx context.Context, projectID string) ([]domain.TestRun, error)
	GetTestRun(ctx context.Context, projectID, testRunID string) (domain.TestRun, error)
	DeleteTestRun(ctx context.Context, projectID, testRunID string) error
}

// ProjectStore persists and retrieves project descriptors (spec §6.4:
// list_projects, get_project, create_project, rename_project,
// delete_project).
type ProjectStore interface {
	CreateProject(ctx context.Context, project domain.ProjectRecord) error
	GetProject(ctx context.Context, projectID string) (domain.ProjectRecord, error)
	ListProjects(ctx context.Context) ([]domain.ProjectRecord, error)
	RenameProject(ctx context.Context, projectID, name string) error
	DeleteProject(ctx context.Context, projectID string) error
}
