// internal/service/service.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/metrics"
	"ranking-workers/internal/common/observability"
	"ranking-workers/internal/models"
	"ranking-workers/internal/ranking"
)

// Cache tags. History entries are also tagged per company.
const (
	TagRankings = "rankings"
	TagReviews  = "reviews-ranking"
	TagHistory  = "ranking-history"
)

// AllTags is what an unqualified invalidation drops.
var AllTags = []string{TagRankings, TagReviews, TagHistory}

func CompanyHistoryTag(companyID string) string {
	return TagHistory + ":" + companyID
}

type SnapshotLoader interface {
	LoadCompanySnapshots(ctx context.Context, clicksSince time.Time) ([]models.CompanySnapshot, error)
}

type HistoryReader interface {
	ListForCompany(ctx context.Context, companyID string, since time.Time) ([]models.RankingHistoryEntry, error)
	ListMovements(ctx context.Context, from, to time.Time) ([]models.ScoreMovement, error)
}

type Cache interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error
	Invalidate(ctx context.Context, tags ...string) (int64, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, scores []ranking.CompanyScore) ranking.RecordResult
}

type RateSource interface {
	Rates(ctx context.Context) ranking.RateConverter
}

// Dependencies are the collaborators of RankingService. Cache, Recorder,
// Rates and Observability are optional.
type Dependencies struct {
	Snapshots     SnapshotLoader
	History       HistoryReader
	Cache         Cache
	Recorder      HistoryRecorder
	Rates         RateSource
	Observability *observability.Observability
	Logger        logger.Logger
}

type Options struct {
	DatasetTTL    time.Duration
	HistoryTTL    time.Duration
	RecordHistory bool
	HistoryDays   int
	Now           func() time.Time
}

// DefaultOptions are the cache lifetimes and history window used when
// config leaves them unset.
func DefaultOptions() Options {
	return Options{
		DatasetTTL:    5 * time.Minute,
		HistoryTTL:    time.Hour,
		RecordHistory: true,
		HistoryDays:   30,
		Now:           time.Now,
	}
}

// RankingService serves ranking datasets and history, cached in Redis.
type RankingService struct {
	snapshots SnapshotLoader
	history   HistoryReader
	cache     Cache
	recorder  HistoryRecorder
	rates     RateSource
	obs       *observability.Observability
	logger    logger.Logger
	opts      Options
}

func New(deps Dependencies, opts Options) *RankingService {
	defaults := DefaultOptions()
	if opts.DatasetTTL <= 0 {
		opts.DatasetTTL = defaults.DatasetTTL
	}
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = defaults.HistoryTTL
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = defaults.HistoryDays
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &RankingService{
		snapshots: deps.Snapshots,
		history:   deps.History,
		cache:     deps.Cache,
		recorder:  deps.Recorder,
		rates:     deps.Rates,
		obs:       deps.Observability,
		logger:    deps.Logger,
		opts:      opts,
	}
}

func (s *RankingService) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *RankingService) converter(ctx context.Context) ranking.RateConverter {
	if s.rates == nil {
		return ranking.FallbackUSDRates
	}
	return s.rates.Rates(ctx)
}

// fingerprint hashes a normalized request into a short cache key component.
func fingerprint(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// cacheGet reads through the cache. Cache failures are logged and treated
// as a miss so a Redis outage never blocks a computation.
func (s *RankingService) cacheGet(ctx context.Context, kind, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	switch {
	case err != nil:
		metrics.RankingCacheRequests.WithLabelValues(kind, "error").Inc()
		s.logger.Warn("ranking cache read failed", map[string]interface{}{
			"kind":  kind,
			"key":   key,
			"error": err.Error(),
		})
		return false
	case hit:
		metrics.RankingCacheRequests.WithLabelValues(kind, "hit").Inc()
		return true
	default:
		metrics.RankingCacheRequests.WithLabelValues(kind, "miss").Inc()
		return false
	}
}

func (s *RankingService) cacheSet(ctx context.Context, kind, key string, value interface{}, ttl time.Duration, tags ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl, tags...); err != nil {
		s.logger.Warn("ranking cache write failed", map[string]interface{}{
			"kind":  kind,
			"key":   key,
			"error": err.Error(),
		})
	}
}
