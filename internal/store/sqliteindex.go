package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// indexSchema creates the two summary tables SQLiteIndex serves reads
// from. Both are rebuildable from FileStore at any time, so there is no
// migration story here beyond CREATE TABLE IF NOT EXISTS.
const indexSchema = `
CREATE TABLE IF NOT EXISTS project_index (
	project_id    TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	last_modified TEXT NOT NULL,
	summary       BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS test_run_index (
	project_id  TEXT NOT NULL,
	test_run_id TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	block_type  TEXT NOT NULL,
	summary     BLOB NOT NULL,
	PRIMARY KEY (project_id, test_run_id)
);
CREATE INDEX IF NOT EXISTS idx_test_run_project ON test_run_index(project_id);
`

// SQLiteIndex is a derived, rebuildable read cache over FileStore's JSON
// records, following the connection-string/profile idiom used for the
// application's own operational databases: WAL journaling, a cache
// profile's relaxed synchronous mode (this table holds no data that isn't
// also on disk as JSON, so losing a write on crash just means one rebuild
// pass), and a small connection pool sized for a single-process server.
// A single-record write is a one-row upsert (INSERT ... ON CONFLICT DO
// UPDATE); Rebuild is the invalidate-then-repopulate path that clears both
// tables and refills them from FileStore.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (creating if absent) the index database at path
// and applies its schema.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	connStr := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(OFF)" +
		"&_pragma=temp_store(MEMORY)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("sqliteindex: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqliteindex: schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Close closes the underlying connection pool.
func (idx *SQLiteIndex) Close() error { return idx.db.Close() }

// projectSummary is the msgpack-encoded blob carried alongside each
// project_index row — enough to answer list_projects without a second
// round trip to FileStore.
type projectSummary struct {
	Description string
	TestRunIDs  []string
	CurrentTab  string
}

// UpsertProject refreshes the cached row for one project. Called after
// every ProjectStore write; never the only place a write lands, since
// FileStore remains canonical.
func (idx *SQLiteIndex) UpsertProject(ctx context.Context, p domain.ProjectRecord) error {
	blob, err := msgpack.Marshal(projectSummary{
		Description: p.Description,
		TestRunIDs:  p.TestRunIDs,
		CurrentTab:  p.CurrentTab,
	})
	if err != nil {
		return err
	}
	_, err = idx.db.ExecContext(ctx, `
		INSERT INTO project_index (project_id, name, last_modified, summary) VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET name = excluded.name, last_modified = excluded.last_modified, summary = excluded.summary
	`, p.ProjectID, p.Name, p.LastModified.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// RemoveProject deletes a project's cached row (and every test run row
// under it) after a delete_project call.
func (idx *SQLiteIndex) RemoveProject(ctx context.Context, projectID string) error {
	if _, err := idx.db.ExecContext(ctx, `DELETE FROM project_index WHERE project_id = ?`, projectID); err != nil {
		return err
	}
	_, err := idx.db.ExecContext(ctx, `DELETE FROM test_run_index WHERE project_id = ?`, projectID)
	return err
}

// testRunSummary is the msgpack blob cached per test run: enough to
// render a list_test_runs response without reopening the JSON file for
// every row.
type testRunSummary struct {
	Param                   domain.ParamKind
	Asset                   string
	BaselinePortfolioVolatilityDaily float64
	Flags                   domain.Flags
}

// UpsertTestRun refreshes the cached row for one test run after a
// save_test_run call.
func (idx *SQLiteIndex) UpsertTestRun(ctx context.Context, run domain.TestRun) error {
	blob, err := msgpack.Marshal(testRunSummary{
		Param:                            run.Spec.Param,
		Asset:                            run.Spec.Asset,
		BaselinePortfolioVolatilityDaily: run.Result.BaselinePortfolioVolatilityDaily,
		Flags:                            run.Result.Flags,
	})
	if err != nil {
		return err
	}
	_, err = idx.db.ExecContext(ctx, `
		INSERT INTO test_run_index (project_id, test_run_id, timestamp, block_type, summary) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, test_run_id) DO UPDATE SET timestamp = excluded.timestamp, block_type = excluded.block_type, summary = excluded.summary
	`, run.ProjectID, run.TestRunID, run.Timestamp.UTC().Format(time.RFC3339Nano), string(run.BlockType), blob)
	return err
}

// RemoveTestRun deletes one test run's cached row after a
// delete_test_run call.
func (idx *SQLiteIndex) RemoveTestRun(ctx context.Context, projectID, testRunID string) error {
	_, err := idx.db.ExecContext(ctx, `DELETE FROM test_run_index WHERE project_id = ? AND test_run_id = ?`, projectID, testRunID)
	return err
}

// ProjectSummaryRow is one row of a list_projects response served from
// the cache rather than FileStore.
type ProjectSummaryRow struct {
	ProjectID    string
	Name         string
	LastModified time.Time
	Description  string
	TestRunIDs   []string
	CurrentTab   string
}

// ListProjects reads every cached project row, ordered by name.
func (idx *SQLiteIndex) ListProjects(ctx context.Context) ([]ProjectSummaryRow, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT project_id, name, last_modified, summary FROM project_index ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectSummaryRow
	for rows.Next() {
		var projectID, name, lastModified string
		var blob []byte
		if err := rows.Scan(&projectID, &name, &lastModified, &blob); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, lastModified)
		if err != nil {
			return nil, err
		}
		var summary projectSummary
		if err := msgpack.Unmarshal(blob, &summary); err != nil {
			return nil, err
		}
		out = append(out, ProjectSummaryRow{
			ProjectID:    projectID,
			Name:         name,
			LastModified: ts,
			Description:  summary.Description,
			TestRunIDs:   summary.TestRunIDs,
			CurrentTab:   summary.CurrentTab,
		})
	}
	return out, rows.Err()
}

// Rebuild drops and repopulates the index from FileStore in a single
// pass: the escape hatch for "the cache and the JSON tree disagree" that
// a scheduled maintenance job (internal/scheduler) runs nightly, and that
// an operator can run by hand after restoring a backup.
func (idx *SQLiteIndex) Rebuild(ctx context.Context, source *FileStore) error {
	if _, err := idx.db.ExecContext(ctx, `DELETE FROM project_index; DELETE FROM test_run_index;`); err != nil {
		return err
	}
	projects, err := source.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if err := idx.UpsertProject(ctx, p); err != nil {
			return err
		}
		runs, err := source.ListTestRuns(ctx, p.ProjectID)
		if err != nil {
			return err
		}
		for _, run := range runs {
			if err := idx.UpsertTestRun(ctx, run); err != nil {
				return err
			}
		}
	}
	return nil
}
