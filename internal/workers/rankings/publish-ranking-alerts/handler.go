package publishrankingalerts

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ranking-workers/internal/alerts"
	"ranking-workers/internal/common/camunda"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/validation"
	"ranking-workers/internal/models"
)

const TaskType = "publish-ranking-alerts"

type MovementService interface {
	Movements(ctx context.Context, window time.Duration, threshold float64) ([]models.ScoreMovement, error)
}

type Notifier interface {
	NotifyMovements(ctx context.Context, movements []models.ScoreMovement, threshold float64) (*alerts.Result, error)
}

type Handler struct {
	config   *Config
	logger   logger.Logger
	service  MovementService
	notifier Notifier
	runner   *camunda.JobRunner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Service      MovementService
	Notifier     Notifier
	Validator    *validation.Validator
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Service == nil || opts.Notifier == nil {
		return nil, fmt.Errorf("movement service and notifier are required")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:   workerConfig,
		logger:   loggerInstance,
		service:  opts.Service,
		notifier: opts.Notifier,
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

// Execute finds the score movements of the window and sends the alerts.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	threshold := h.config.Threshold
	if input.Threshold > 0 {
		threshold = input.Threshold
	}
	window := h.config.Window
	if input.Hours > 0 {
		window = time.Duration(input.Hours) * time.Hour
	}

	movements, err := h.service.Movements(ctx, window, threshold)
	if err != nil {
		return nil, err
	}

	output := &Output{Movements: movements}
	if len(movements) == 0 {
		return output, nil
	}

	result, err := h.notifier.NotifyMovements(ctx, movements, threshold)
	if result != nil {
		output.Published = result.Published
		output.EmailSent = result.Emailed
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("Ranking alerts published", map[string]interface{}{
		"worker":    TaskType,
		"movements": len(movements),
		"published": output.Published,
		"emailSent": output.EmailSent,
	})
	return output, nil
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
	if appConfig.Alerts.Threshold > 0 {
		cfg.Threshold = appConfig.Alerts.Threshold
	}
	if appConfig.Alerts.WindowHrs > 0 {
		cfg.Window = time.Duration(appConfig.Alerts.WindowHrs) * time.Hour
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
