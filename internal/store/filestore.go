package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// FileStore is the canonical persistence layer: one JSON file per project
// under <dataDir>/projects/, one JSON file per test run under
// <dataDir>/test_runs/<project_id>/. It satisfies both TestRunStore and
// ProjectStore directly against the filesystem, with no cache in front of
// it — SQLiteIndex is the optional fast-read layer built on top.
type FileStore struct {
	dataDir string
}

// NewFileStore creates the projects/ and test_runs/ directories under
// dataDir if they do not already exist.
func NewFileStore(dataDir string) (*FileStore, error) {
	for _, sub := range []string{"projects", "test_runs"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, domain.PersistenceError{Op: "init", Err: err}
		}
	}
	return &FileStore{dataDir: dataDir}, nil
}

func (s *FileStore) projectPath(projectID string) string {
	return filepath.Join(s.dataDir, "projects", projectID+".json")
}

func (s *FileStore) testRunPath(projectID, testRunID string) string {
	return filepath.Join(s.dataDir, "test_runs", projectID, testRunID+".json")
}

// writeAtomic marshals v to JSON and writes it via a temp-file-then-rename
// sequence so a crash mid-write never leaves a half-written record behind.
func writeAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readVersioned(path string, version *int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if probe.Version > currentVersion {
		return nil, fmt.Errorf("unsupported schema version %d (this binary supports up to %d)", probe.Version, currentVersion)
	}
	*version = probe.Version
	return data, nil
}

// CreateProject writes a new project descriptor. It overwrites any
// existing file at the same id, matching the teacher's upsert idiom for
// cache/config-style writes.
func (s *FileStore) CreateProject(ctx context.Context, project domain.ProjectRecord) error {
	if err := writeAtomic(s.projectPath(project.ProjectID), projectToFile(project)); err != nil {
		return domain.PersistenceError{Op: "create_project", Err: err}
	}
	return nil
}

// GetProject reads and decodes one project descriptor.
func (s *FileStore) GetProject(ctx context.Context, projectID string) (domain.ProjectRecord, error) {
	var version int
	data, err := readVersioned(s.projectPath(projectID), &version)
	if err != nil {
		return domain.ProjectRecord{}, domain.PersistenceError{Op: "get_project", Err: err}
	}
	var f projectFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.ProjectRecord{}, domain.PersistenceError{Op: "get_project", Err: err}
	}
	rec, err := fileToProject(f)
	if err != nil {
		return domain.ProjectRecord{}, domain.PersistenceError{Op: "get_project", Err: err}
	}
	return rec, nil
}

// ListProjects scans projects/ and decodes every descriptor, sorted by
// name for a stable listing order.
func (s *FileStore) ListProjects(ctx context.Context) ([]domain.ProjectRecord, error) {
	dir := filepath.Join(s.dataDir, "projects")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.PersistenceError{Op: "list_projects", Err: err}
	}
	out := make([]domain.ProjectRecord, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		projectID := e.Name()[:len(e.Name())-len(".json")]
		rec, err := s.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RenameProject updates a project's name and LastModified timestamp in
// place.
func (s *FileStore) RenameProject(ctx context.Context, projectID, name string) error {
	rec, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	rec.Name = name
	rec.LastModified = time.Now()
	if err := writeAtomic(s.projectPath(projectID), projectToFile(rec)); err != nil {
		return domain.PersistenceError{Op: "rename_project", Err: err}
	}
	return nil
}

// DeleteProject removes the project descriptor and every test run
// persisted under it.
func (s *FileStore) DeleteProject(ctx context.Context, projectID string) error {
	if err := os.Remove(s.projectPath(projectID)); err != nil && !os.IsNotExist(err) {
		return domain.PersistenceError{Op: "delete_project", Err: err}
	}
	dir := filepath.Join(s.dataDir, "test_runs", projectID)
	if err := os.RemoveAll(dir); err != nil {
		return domain.PersistenceError{Op: "delete_project", Err: err}
	}
	return nil
}

// SaveTestRun writes one evaluation record under its project's directory.
func (s *FileStore) SaveTestRun(ctx context.Context, run domain.TestRun) error {
	if err := writeAtomic(s.testRunPath(run.ProjectID, run.TestRunID), testRunToFile(run)); err != nil {
		return domain.PersistenceError{Op: "save_test_run", Err: err}
	}
	return nil
}

// GetTestRun reads and decodes one evaluation record.
func (s *FileStore) GetTestRun(ctx context.Context, projectID, testRunID string) (domain.TestRun, error) {
	var version int
	data, err := readVersioned(s.testRunPath(projectID, testRunID), &version)
	if err != nil {
		return domain.TestRun{}, domain.PersistenceError{Op: "get_test_run", Err: err}
	}
	var f testRunFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.TestRun{}, domain.PersistenceError{Op: "get_test_run", Err: err}
	}
	run, err := fileToTestRun(f)
	if err != nil {
		return domain.TestRun{}, domain.PersistenceError{Op: "get_test_run", Err: err}
	}
	return run, nil
}

// ListTestRuns scans a project's test_runs directory, sorted by
// TestRunID — which, per idgen.TestRunID's ULID-like layout, sorts by
// creation time.
func (s *FileStore) ListTestRuns(ctx context.Context, projectID string) ([]domain.TestRun, error) {
	dir := filepath.Join(s.dataDir, "test_runs", projectID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.PersistenceError{Op: "list_test_runs", Err: err}
	}
	out := make([]domain.TestRun, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		testRunID := e.Name()[:len(e.Name())-len(".json")]
		run, err := s.GetTestRun(ctx, projectID, testRunID)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestRunID < out[j].TestRunID })
	return out, nil
}

// DeleteTestRun removes one evaluation record.
func (s *FileStore) DeleteTestRun(ctx context.Context, projectID, testRunID string) error {
	if err := os.Remove(s.testRunPath(projectID, testRunID)); err != nil && !os.IsNotExist(err) {
		return domain.PersistenceError{Op: "delete_test_run", Err: err}
	}
	return nil
}
