// internal/common/camunda/job.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/mitchellh/mapstructure"

	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/metrics"
	"ranking-workers/internal/common/validation"
)

// ExecuteFunc turns validated job variables into the variables to complete with.
type ExecuteFunc func(ctx context.Context, variables map[string]interface{}) (map[string]interface{}, error)

// JobRunner holds what every worker does around its business logic:
// metrics, schema validation, timeout, completion and failure mapping.
type JobRunner struct {
	TaskType  string
	Timeout   time.Duration
	Validator *validation.Validator
	Errors    *errors.ErrorHandler
	Logger    logger.Logger
}

func (r *JobRunner) Run(client worker.JobClient, job entities.Job, execute ExecuteFunc) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	r.Logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             r.TaskType,
	})

	output, err := r.execute(ctx, job, execute)
	if err != nil {
		stdErr := errors.AsStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(r.TaskType, string(stdErr.Code)).Inc()
		r.Errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output)
	if err != nil {
		r.Logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": r.TaskType,
		})
		return
	}
	if _, err := request.Send(ctx); err != nil {
		r.Logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": r.TaskType,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.TaskType).Observe(time.Since(startTime).Seconds())
	r.Logger.Info("Job completed", map[string]interface{}{
		"jobKey":   job.GetKey(),
		"worker":   r.TaskType,
		"duration": time.Since(startTime).String(),
	})
}

func (r *JobRunner) execute(ctx context.Context, job entities.Job, execute ExecuteFunc) (map[string]interface{}, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewRankingsInputInvalidError(fmt.Sprintf("parse job variables: %v", err))
	}
	if r.Validator != nil {
		if result := r.Validator.Validate(r.TaskType, variables); !result.Valid {
			return nil, errors.NewSchemaValidationError(r.TaskType, result.GetErrorMessages())
		}
	}
	return execute(ctx, variables)
}

// DecodeVariables copies job variables into out using its json tags.
// Numbers arrive as float64 and are narrowed to integer fields.
func DecodeVariables(variables map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(variables); err != nil {
		return errors.NewInvalidFilterFormatError(err.Error())
	}
	return nil
}
