// internal/common/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"ranking-workers/internal/common/logger"
)

// Job is a background task run on a cron schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// FuncJob adapts a function to Job.
type FuncJob struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f FuncJob) Name() string                  { return f.JobName }
func (f FuncJob) Run(ctx context.Context) error { return f.Fn(ctx) }

// Scheduler runs jobs with second-resolution cron specs. A run that is still
// in progress when its next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	log     logger.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(log logger.Logger, jobTimeout time.Duration) *Scheduler {
	log = log.With(map[string]interface{}{"component": "scheduler"})
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		timeout: jobTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", nil)
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped", nil)
}

// AddJob registers job under schedule, e.g. "0 */5 * * * *" or "@every 30s".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			s.log.Error("Job failed", map[string]interface{}{
				"job":   job.Name(),
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), schedule, err)
	}

	s.log.Info("Job registered", map[string]interface{}{
		"schedule": schedule,
		"job":      job.Name(),
	})
	return nil
}

// RunNow executes job immediately with the scheduler's timeout.
func (s *Scheduler) RunNow(job Job) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.log.Debug("Running job", map[string]interface{}{"job": job.Name()})
	err := job.Run(ctx)
	if err == nil {
		s.log.Debug("Job completed", map[string]interface{}{
			"job":      job.Name(),
			"duration": time.Since(start).String(),
		})
	}
	return err
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger routes cron's own messages to the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kvToFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvToFields(keysAndValues)
	fields["error"] = err.Error()
	l.log.Error(msg, fields)
}

func kvToFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
