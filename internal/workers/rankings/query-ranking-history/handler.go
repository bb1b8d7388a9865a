package queryrankinghistory

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

const TaskType = "query-ranking-history"

type HistoryService interface {
	CompanyHistory(ctx context.Context, companyID string, days int) (*service.HistoryResult, error)
}

type Handler struct {
	config  *Config
	logger  logger.Logger
	service HistoryService
	runner  *camunda.JobRunner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Service      HistoryService
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
		return nil, fmt.Errorf("history service is required")
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

// Execute returns the company's daily score history, oldest first.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		return nil, errors.NewRankingsInputInvalidError("companyId is required")
	}
	days := service.ClampHistoryDays(input.Days, h.config.DefaultDays)

	result, err := h.service.CompanyHistory(ctx, companyID, days)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Ranking history loaded", map[string]interface{}{
		"worker":    TaskType,
		"companyId": companyID,
		"days":      result.Days,
		"entries":   len(result.Entries),
		"cached":    result.Cached,
	})
	return &Output{
		CompanyID: result.CompanyID,
		Days:      result.Days,
		Entries:   result.Entries,
		Cached:    result.Cached,
		Degraded:  result.Degraded,
	}, nil
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
	if appConfig.Ranking.HistoryDays > 0 {
		cfg.DefaultDays = appConfig.Ranking.HistoryDays
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
