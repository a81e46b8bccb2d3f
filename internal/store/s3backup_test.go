package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Mirror_RejectsIncompleteCredentials(t *testing.T) {
	_, err := NewS3Mirror(context.Background(), "", "", "", "", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewS3Mirror(context.Background(), "us-east-1", "key", "secret", "", zerolog.Nop())
	assert.Error(t, err)
}

func TestNewS3Mirror_BuildsClientFromStaticCredentials(t *testing.T) {
	mirror, err := NewS3Mirror(context.Background(), "us-east-1", "AKIAFAKE", "fakesecret", "kanosym-test-bucket", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "kanosym-test-bucket", mirror.bucket)
}

func TestS3Mirror_UploadFailureDoesNotPanic(t *testing.T) {
	mirror, err := NewS3Mirror(context.Background(), "us-east-1", "AKIAFAKE", "fakesecret", "kanosym-test-bucket", zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancelled, forces the upload call to fail fast without a real network round trip

	mirror.MirrorProject(ctx, sampleProject())
	mirror.MirrorTestRun(ctx, sampleTestRun())
}
