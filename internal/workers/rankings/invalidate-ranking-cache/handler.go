package invalidaterankingcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ranking-workers/internal/common/camunda"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/validation"
	"ranking-workers/internal/service"
)

const TaskType = "invalidate-ranking-cache"

type CacheService interface {
	Invalidate(ctx context.Context, tags ...string) (int64, error)
}

type Handler struct {
	config  *Config
	logger  logger.Logger
	service CacheService
	runner  *camunda.JobRunner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Service      CacheService
	Validator    *validation.Validator
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("cache service is required")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:  workerConfig,
		logger:  loggerInstance,
		service: opts.Service,
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

// Execute drops the cached entries under the requested tags. A companyId
// adds that company's history tag; no tags at all drops everything.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tags := make([]string, 0, len(input.Tags)+1)
	for _, tag := range input.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if id := strings.TrimSpace(input.CompanyID); id != "" {
		tags = append(tags, service.CompanyHistoryTag(id))
	}
	if len(tags) == 0 {
		tags = append(tags, service.AllTags...)
	}

	removed, err := h.service.Invalidate(ctx, tags...)
	if err != nil {
		return nil, err
	}
	return &Output{InvalidatedKeys: removed, Tags: tags}, nil
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
