// Package cleaner runs the store's retention cleanup on a cron schedule.
// It is the in-process equivalent of the host app's background task runner:
// periodic, best-effort, bounded by a timeout per run.
package cleaner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/exposurekit/contactdiary/internal/store"
)

// cronParser is configured for standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Runner schedules CleanupWithTimeout runs against a store.
type Runner struct {
	store    *store.Store
	schedule cron.Schedule
	timeout  time.Duration
}

// New parses the 5-field cron expression and returns a Runner.
func New(s *store.Store, scheduleExpr string, timeout time.Duration) (*Runner, error) {
	schedule, err := cronParser.Parse(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cleanup schedule %q: %w", scheduleExpr, err)
	}
	return &Runner{store: s, schedule: schedule, timeout: timeout}, nil
}

// Run performs one cleanup immediately, then fires on the schedule until
// the context is cancelled. Cleanup failures are logged, never fatal: the
// next scheduled run retries.
func (r *Runner) Run(ctx context.Context) {
	r.runOnce()

	for {
		next := r.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("cleanup runner stopping")
			return
		case <-timer.C:
			r.runOnce()
		}
	}
}

func (r *Runner) runOnce() {
	if err := r.store.CleanupWithTimeout(r.timeout); err != nil {
		log.Printf("cleanup failed: %v", err)
	}
}
