package computerankings

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
	"ranking-workers/internal/service"
)

const TaskType = "compute-rankings"

type RankingsService interface {
	Rankings(ctx context.Context, req service.RankingsRequest) (*service.RankingsResult, error)
}

type Handler struct {
	config  *Config
	logger  logger.Logger
	service RankingsService
	runner  *camunda.JobRunner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Service      RankingsService
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
		return nil, fmt.Errorf("ranking service is required")
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
	h.runner.Run(client, job, h.handleVariables)
}

func (h *Handler) handleVariables(ctx context.Context, variables map[string]interface{}) (map[string]interface{}, error) {
	var input Input
	if err := camunda.DecodeVariables(variables, &input); err != nil {
		return nil, err
	}
	output, err := h.Execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return output.Variables(), nil
}

// Execute computes the rankings dataset for input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.Rankings(ctx, service.RankingsRequest{
		Filters:       input.Filters,
		Sort:          ranking.RankingsSort{SortBy: input.SortBy, Direction: input.SortDirection},
		RecordHistory: input.RecordHistory,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("Rankings computed", map[string]interface{}{
		"worker":    TaskType,
		"companies": result.Dataset.FilteredCompanies,
		"total":     result.Dataset.TotalCompanies,
		"cached":    result.Cached,
		"degraded":  result.Degraded,
	})
	return &Output{Dataset: result.Dataset, Cached: result.Cached, Degraded: result.Degraded}, nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}
	}

	return cfg
}
