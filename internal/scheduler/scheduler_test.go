package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name  string
	ran   atomic.Int32
	fail  bool
	block chan struct{}
}

func (f *fakeJob) Name() string { return f.name }
func (f *fakeJob) Run(ctx context.Context) error {
	if f.block != nil {
		<-f.block
	}
	f.ran.Add(1)
	if f.fail {
		return errors.New("boom")
	}
	return nil
}

func TestCronSpecDailyAt_Formats(t *testing.T) {
	assert.Equal(t, "30 2 * * *", cronSpecDailyAt(2, 30))
	assert.Equal(t, "0 0 * * *", cronSpecDailyAt(0, 0))
}

func TestScheduler_AddDaily_RegistersWithoutError(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "test"}
	require.NoError(t, s.AddDaily(3, 0, job))
}

func TestScheduler_StartStop_DoesNotBlockForever(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "test"}
	require.NoError(t, s.AddDaily(3, 0, job))
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler.Stop did not return in time")
	}
}

func TestScheduler_FailingJobDoesNotPanicScheduler(t *testing.T) {
	s := New(zerolog.Nop())
	job := &fakeJob{name: "failing", fail: true}
	require.NoError(t, s.AddDaily(3, 0, job))
	s.Start()
	s.Stop()
}
