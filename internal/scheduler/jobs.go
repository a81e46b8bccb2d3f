package scheduler

import (
	"context"
	"fmt"

	"github.com/kanosym/sensitivity-core/internal/store"
)

// IndexRebuildJob rebuilds the SQLite list/query cache from FileStore
// (spec §4.10), the same "invalidate and repopulate rather than trust
// incremental updates" strategy the teacher's calculation cache relies
// on, applied here to the whole cache rather than one expired row.
type IndexRebuildJob struct {
	index  *store.SQLiteIndex
	source *store.FileStore
}

// NewIndexRebuildJob builds an IndexRebuildJob.
func NewIndexRebuildJob(index *store.SQLiteIndex, source *store.FileStore) *IndexRebuildJob {
	return &IndexRebuildJob{index: index, source: source}
}

func (j *IndexRebuildJob) Name() string { return "index_rebuild" }

func (j *IndexRebuildJob) Run(ctx context.Context) error {
	if err := j.index.Rebuild(ctx, j.source); err != nil {
		return fmt.Errorf("index rebuild: %w", err)
	}
	return nil
}

// S3ResyncJob re-uploads every project and test-run record to the S3
// mirror. A small deployment has few enough records that a full nightly
// resync is simpler and safer than tracking which records already
// made it to the bucket (spec §4.10 describes the mirror itself as
// best-effort, not incremental).
type S3ResyncJob struct {
	source *store.FileStore
	mirror *store.S3Mirror
}

// NewS3ResyncJob builds an S3ResyncJob.
func NewS3ResyncJob(source *store.FileStore, mirror *store.S3Mirror) *S3ResyncJob {
	return &S3ResyncJob{source: source, mirror: mirror}
}

func (j *S3ResyncJob) Name() string { return "s3_resync" }

func (j *S3ResyncJob) Run(ctx context.Context) error {
	projects, err := j.source.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("s3 resync: list projects: %w", err)
	}
	for _, p := range projects {
		j.mirror.MirrorProject(ctx, p)

		runs, err := j.source.ListTestRuns(ctx, p.ProjectID)
		if err != nil {
			return fmt.Errorf("s3 resync: list test runs for %s: %w", p.ProjectID, err)
		}
		for _, run := range runs {
			j.mirror.MirrorTestRun(ctx, run)
		}
	}
	return nil
}
