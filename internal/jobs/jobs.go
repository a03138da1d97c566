// Package jobs holds the scheduled batch jobs: per-period counter resets,
// request retention purge, rolling-window tracking, drink aggregation with
// rollover, and the leaderboard recomputes. Jobs are stateless between runs;
// all state lives in the document store.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"sladeshAPI/internal/runlog"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner executes jobs with a per-run timeout, records the outcome in the run
// ledger and in Prometheus, and converts panics into logged failures. Job
// errors never propagate to the scheduler; the next scheduled run is the
// retry mechanism.
type Runner struct {
	recorder runlog.Recorder
	timeout  time.Duration
}

func NewRunner(recorder runlog.Recorder, timeout time.Duration) *Runner {
	if recorder == nil {
		recorder = runlog.NopRecorder{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{recorder: recorder, timeout: timeout}
}

// Run executes one job invocation. The returned error is informational (the
// admin run-now endpoint reports it); scheduled callers ignore it.
func (r *Runner) Run(ctx context.Context, job Job) (err error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	log.Printf("job %s: starting", job.Name())

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), rec)
		}

		status := "ok"
		detail := ""
		if err != nil {
			status = "error"
			detail = err.Error()
			log.Printf("job %s: failed after %s: %v", job.Name(), time.Since(started), err)
		} else {
			log.Printf("job %s: finished in %s", job.Name(), time.Since(started))
		}

		jobRunsTotal.WithLabelValues(job.Name(), status).Inc()
		jobDuration.WithLabelValues(job.Name()).Observe(time.Since(started).Seconds())

		if recErr := r.recorder.Record(context.Background(), runlog.Run{
			Job:        job.Name(),
			StartedAt:  started,
			FinishedAt: time.Now(),
			Status:     status,
			Detail:     detail,
		}); recErr != nil {
			log.Printf("job %s: failed to record run: %v", job.Name(), recErr)
		}
	}()

	err = job.Run(runCtx)
	return err
}
