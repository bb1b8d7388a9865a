package extractreviewmetadata

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ranking-workers/internal/common/camunda"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/validation"
	"ranking-workers/internal/ranking"
)

const TaskType = "extract-review-metadata"

type Handler struct {
	config *Config
	logger logger.Logger
	runner *camunda.JobRunner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Validator    *validation.Validator
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config: workerConfig,
		logger: loggerInstance,
		runner: &camunda.JobRunner{
			TaskType:  TaskType,
			Timeout:   workerConfig.Timeout,
			Validator: opts.Validator,
			Errors:    errors.NewErrorHandler(loggerInstance),
			Logger:    loggerInstance,
		},
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables map[string]interface{}) (map[string]interface{}, error) {
		var input Input
		if err := camunda.DecodeVariables(variables, &input); err != nil {
			return nil, err
		}
		output, err := h.Execute(ctx, &input)
		if err != nil {
			return nil, err
		}
		return output.Variables(), nil
	})
}

// Execute never fails on malformed metadata; it yields the empty record.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	linkCap := ranking.PublicLinkCap
	if input.Admin {
		linkCap = ranking.AdminLinkCap
	}

	var meta ranking.ReviewMetadata
	switch v := input.Metadata.(type) {
	case string:
		meta = ranking.ExtractReviewMetadata([]byte(v), linkCap)
	default:
		meta = ranking.ExtractMetadataValue(v, linkCap)
	}
	return &Output{Metadata: meta}, nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
	}
	return cfg
}
