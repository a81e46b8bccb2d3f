package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/rs/zerolog"
)

// S3Mirror best-effort-copies FileStore's JSON records to an S3-compatible
// bucket after every write. Persistence to the local filesystem is the
// only thing a caller can depend on; a mirror failure is logged and
// dropped rather than turned into a domain.PersistenceError, since the
// canonical record already exists on disk and the next write (or a
// scheduled resync) will retry the upload.
type S3Mirror struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	log      zerolog.Logger
}

// NewS3Mirror builds an S3Mirror from static credentials and a region,
// with the uploader tuned to 10MB parts and 5-way concurrency.
func NewS3Mirror(ctx context.Context, region, accessKeyID, secretAccessKey, bucket string, log zerolog.Logger) (*S3Mirror, error) {
	if region == "" || accessKeyID == "" || secretAccessKey == "" || bucket == "" {
		return nil, fmt.Errorf("s3mirror: credentials incomplete")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("s3mirror: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 5
	})

	return &S3Mirror{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		log:      log.With().Str("component", "s3_mirror").Logger(),
	}, nil
}

func (m *S3Mirror) upload(ctx context.Context, key string, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("s3 mirror upload failed, canonical record on disk is unaffected")
		return
	}
	m.log.Debug().Str("key", key).Msg("mirrored record to s3")
}

// MirrorProject re-serializes a project descriptor and uploads it under
// projects/<project_id>.json.
func (m *S3Mirror) MirrorProject(ctx context.Context, p domain.ProjectRecord) {
	data, err := json.MarshalIndent(projectToFile(p), "", "  ")
	if err != nil {
		m.log.Warn().Err(err).Str("project_id", p.ProjectID).Msg("failed to encode project for s3 mirror")
		return
	}
	m.upload(ctx, "projects/"+p.ProjectID+".json", data)
}

// MirrorTestRun re-serializes a test run and uploads it under
// test_runs/<project_id>/<test_run_id>.json.
func (m *S3Mirror) MirrorTestRun(ctx context.Context, run domain.TestRun) {
	data, err := json.MarshalIndent(testRunToFile(run), "", "  ")
	if err != nil {
		m.log.Warn().Err(err).Str("test_run_id", run.TestRunID).Msg("failed to encode test run for s3 mirror")
		return
	}
	m.upload(ctx, fmt.Sprintf("test_runs/%s/%s.json", run.ProjectID, run.TestRunID), data)
}
