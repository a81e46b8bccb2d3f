// Package scheduler runs the two periodic maintenance jobs a deployed
// instance needs: an index rebuild and an S3 resync. Both are safe to
// run repeatedly and safe to skip a day (spec §4.10), so a single
// fixed daily schedule is enough — there is no backlog/catch-up logic
// to get wrong.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work. Name is used for logging only.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps robfig/cron/v3, logging every job's start, success, and
// failure the way the teacher's job types do through zerolog, but
// without the per-job hand-rolled ticker bookkeeping the teacher's older
// queue.Scheduler carries — cron's own expression parsing replaces that.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds a Scheduler. It does not start running jobs until Start is
// called.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddDaily registers job to run once a day at the given hour:minute
// (server local time), wrapping it with a timeout and structured
// success/failure logging.
func (s *Scheduler) AddDaily(hour, minute int, job Job) error {
	spec := cronSpecDailyAt(hour, minute)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		log := s.log.With().Str("job", job.Name()).Logger()
		log.Info().Msg("scheduled job starting")
		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled job failed")
			return
		}
		log.Info().Msg("scheduled job completed")
	})
	return err
}

// Start launches the cron scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

func cronSpecDailyAt(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
