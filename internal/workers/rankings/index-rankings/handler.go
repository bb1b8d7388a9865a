package indexrankings

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
	"ranking-workers/internal/search"
	"ranking-workers/internal/service"
)

const TaskType = "index-rankings"

type RankingsService interface {
	Rankings(ctx context.Context, req service.RankingsRequest) (*service.RankingsResult, error)
}

type Indexer interface {
	Index() string
	IndexRankings(ctx context.Context, dataset *ranking.RankingsDataset) (*search.IndexResult, error)
}

type Handler struct {
	config  *Config
	logger  logger.Logger
	service RankingsService
	indexer Indexer
	runner  *camunda.JobRunner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Service      RankingsService
	Indexer      Indexer
	Validator    *validation.Validator
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Service == nil || opts.Indexer == nil {
		return nil, fmt.Errorf("ranking service and indexer are required")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:  workerConfig,
		logger:  loggerInstance,
		service: opts.Service,
		indexer: opts.Indexer,
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
	h.runner.Run(client, job, func(ctx context.Context, _ map[string]interface{}) (map[string]interface{}, error) {
		output, err := h.Execute(ctx, &Input{})
		if err != nil {
			return nil, err
		}
		return output.Variables(), nil
	})
}

// Execute indexes the unfiltered rankings. A degraded dataset is skipped so
// the index keeps the last good documents.
func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	result, err := h.service.Rankings(ctx, service.RankingsRequest{})
	if err != nil {
		return nil, err
	}

	output := &Output{Index: h.indexer.Index(), GeneratedAt: result.Dataset.GeneratedAt}
	if result.Degraded {
		h.logger.Warn("Rankings degraded, index left unchanged", map[string]interface{}{
			"worker": TaskType,
			"index":  output.Index,
		})
		output.Skipped = true
		return output, nil
	}

	indexed, err := h.indexer.IndexRankings(ctx, result.Dataset)
	if indexed != nil {
		output.Indexed = indexed.Indexed
		output.Failed = indexed.Failed
	}
	if err != nil {
		return nil, errors.NewIndexFailedError(output.Index, err).
			WithMetadata("indexed", output.Indexed).
			WithMetadata("failed", output.Failed)
	}
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
