// Package scheduler runs registered jobs on cron expressions, evaluated in
// a configurable location so wall-clock schedules follow local time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Minute

type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Runner struct {
	loc   *time.Location
	log   *slog.Logger
	nowFn func() time.Time

	jobs []scheduledJob
	wg   sync.WaitGroup
}

type scheduledJob struct {
	job  Job
	expr *cronExpr
}

func NewRunner(loc *time.Location, log *slog.Logger) *Runner {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		loc:   loc,
		log:   log,
		nowFn: time.Now,
	}
}

// Add registers a job. It fails on an invalid schedule so wiring errors
// surface at startup, not at the first firing.
func (r *Runner) Add(job Job) error {
	if strings.TrimSpace(job.Name) == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}
	expr, err := parseCronExpr(job.Schedule)
	if err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}
	r.jobs = append(r.jobs, scheduledJob{job: job, expr: expr})
	return nil
}

// Start launches one goroutine per job. Firings never overlap within a job
// since the loop waits for each run to finish before arming the next timer.
func (r *Runner) Start(ctx context.Context) {
	for _, sj := range r.jobs {
		r.wg.Add(1)
		go func(sj scheduledJob) {
			defer r.wg.Done()
			r.jobLoop(ctx, sj)
		}(sj)
	}
	r.log.Info("scheduler_start", "jobs", len(r.jobs))
}

func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) jobLoop(ctx context.Context, sj scheduledJob) {
	for {
		next, err := sj.expr.next(r.nowFn().In(r.loc))
		if err != nil {
			r.log.Warn("scheduler_job_invalid", "job", sj.job.Name, "error", err.Error())
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info("scheduler_stop", "job", sj.job.Name, "reason", ctx.Err().Error())
			return
		case <-timer.C:
		}
		r.runJob(ctx, sj.job, next)
	}
}

func (r *Runner) runJob(ctx context.Context, job Job, scheduledFor time.Time) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := r.nowFn()
	r.log.Info("scheduler_run_start", "job", job.Name, "scheduled_for", scheduledFor.Format(time.RFC3339))
	if err := job.Run(runCtx); err != nil {
		r.log.Warn("scheduler_run_error", "job", job.Name, "error", err.Error())
		return
	}
	r.log.Info("scheduler_run_finished", "job", job.Name, "duration_ms", time.Since(started).Milliseconds())
}
