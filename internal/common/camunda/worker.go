// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"ranking-workers/internal/common/config"
)

// JobHandler is implemented by every ranking worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Instrument recovers panics in handler and fails the job instead of
// crashing the process.
func Instrument(taskType string, handler worker.JobHandler, log *zap.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("worker handler panicked",
					zap.String("taskType", taskType),
					zap.Int64("jobKey", job.Key),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_, _ = client.NewFailJobCommand().
					JobKey(job.Key).
					Retries(job.Retries - 1).
					ErrorMessage(fmt.Sprintf("panic: %v", r)).
					Send(ctx)
			}
		}()
		handler(client, job)
	}
}

// StartWorker opens a job worker for taskType when it is enabled. It returns
// nil for disabled workers.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log *zap.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler.Handle, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Name(taskType).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return jobWorker
}
