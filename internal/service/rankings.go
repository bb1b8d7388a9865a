// internal/service/rankings.go
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ranking-workers/internal/common/database"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/metrics"
	"ranking-workers/internal/models"
	"ranking-workers/internal/ranking"
)

type RankingsRequest struct {
	Filters ranking.Filters      `json:"filters"`
	Sort    ranking.RankingsSort `json:"sort"`
	// RecordHistory overrides the configured default when set.
	RecordHistory *bool `json:"-"`
}

type RankingsResult struct {
	Dataset  *ranking.RankingsDataset `json:"dataset"`
	Cached   bool                     `json:"cached"`
	Degraded bool                     `json:"degraded"`
}

type ReviewsRequest struct {
	Filters ranking.Filters     `json:"filters"`
	Sort    ranking.ReviewsSort `json:"sort"`
}

type ReviewsResult struct {
	Dataset  *ranking.ReviewsDataset `json:"dataset"`
	Cached   bool                    `json:"cached"`
	Degraded bool                    `json:"degraded"`
}

// Rankings returns the scored company dataset for the request. On a cache
// miss the overall scores of every company are written to history.
func (s *RankingService) Rankings(ctx context.Context, req RankingsRequest) (*RankingsResult, error) {
	req.Filters = req.Filters.Normalized()
	req.Sort = req.Sort.Normalized()
	key := s.cacheKey("rankings", req)

	var cached ranking.RankingsDataset
	if s.cacheGet(ctx, "rankings", key, &cached) {
		return &RankingsResult{Dataset: &cached, Cached: true}, nil
	}

	ctx, span := s.obs.StartSpan(ctx, "rankings.compute",
		attribute.String("sortBy", req.Sort.SortBy),
		attribute.String("sortDirection", string(req.Sort.Direction)),
	)
	defer span.End()

	now := s.now()
	start := time.Now()

	snapshots, err := s.loadSnapshots(ctx, now)
	if err != nil {
		if database.IsUnavailable(err) {
			s.degrade("rankings", err)
			span.SetAttributes(attribute.Bool("degraded", true))
			return &RankingsResult{Dataset: ranking.EmptyRankings(now), Degraded: true}, nil
		}
		span.RecordError(err)
		return nil, errors.NewRankingsComputeFailedError(err)
	}

	dataset := ranking.BuildRankings(snapshots, req.Filters, req.Sort, ranking.Options{
		Now:   now,
		Rates: s.converter(ctx),
	})

	metrics.RankingComputeDuration.WithLabelValues("rankings").Observe(time.Since(start).Seconds())
	metrics.RankingCompaniesScored.WithLabelValues("rankings").Add(float64(dataset.TotalCompanies))
	s.obs.RecordDatasetSize(ctx, "rankings", dataset.FilteredCompanies)
	span.SetAttributes(
		attribute.Int("companies.total", dataset.TotalCompanies),
		attribute.Int("companies.filtered", dataset.FilteredCompanies),
	)

	if s.shouldRecord(req) {
		s.recordHistory(ctx, dataset.Overall)
	}

	s.cacheSet(ctx, "rankings", key, dataset, s.opts.DatasetTTL, TagRankings)
	return &RankingsResult{Dataset: dataset}, nil
}

// ReviewsRanking returns the reviews dataset. It never writes history.
func (s *RankingService) ReviewsRanking(ctx context.Context, req ReviewsRequest) (*ReviewsResult, error) {
	req.Filters = req.Filters.Normalized()
	req.Sort = req.Sort.Normalized()
	key := s.cacheKey("reviews", req)

	var cached ranking.ReviewsDataset
	if s.cacheGet(ctx, "reviews", key, &cached) {
		return &ReviewsResult{Dataset: &cached, Cached: true}, nil
	}

	ctx, span := s.obs.StartSpan(ctx, "reviews.compute", attribute.String("sortBy", req.Sort.SortBy))
	defer span.End()

	now := s.now()
	start := time.Now()

	snapshots, err := s.loadSnapshots(ctx, now)
	if err != nil {
		if database.IsUnavailable(err) {
			s.degrade("reviews", err)
			return &ReviewsResult{Dataset: ranking.EmptyReviewsRanking(now), Degraded: true}, nil
		}
		span.RecordError(err)
		return nil, errors.NewRankingsComputeFailedError(err)
	}

	dataset := ranking.BuildReviewsRanking(snapshots, req.Filters, req.Sort, ranking.Options{
		Now:   now,
		Rates: s.converter(ctx),
	})

	metrics.RankingComputeDuration.WithLabelValues("reviews").Observe(time.Since(start).Seconds())
	metrics.RankingCompaniesScored.WithLabelValues("reviews").Add(float64(dataset.Summary.Overall.TotalCompanies))
	s.obs.RecordDatasetSize(ctx, "reviews", len(dataset.Companies))

	s.cacheSet(ctx, "reviews", key, dataset, s.opts.DatasetTTL, TagReviews)
	return &ReviewsResult{Dataset: dataset}, nil
}

func (s *RankingService) cacheKey(kind string, req interface{}) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Key("dataset", kind, fingerprint(req))
}

// loadSnapshots reads clicks back to the start of the previous 30-day window.
func (s *RankingService) loadSnapshots(ctx context.Context, now time.Time) ([]models.CompanySnapshot, error) {
	ctx, span := s.obs.StartSpan(ctx, "rankings.load_snapshots")
	defer span.End()
	return s.snapshots.LoadCompanySnapshots(ctx, ranking.NewWindow(now).Previous)
}

func (s *RankingService) shouldRecord(req RankingsRequest) bool {
	if s.recorder == nil {
		return false
	}
	if req.RecordHistory != nil {
		return *req.RecordHistory
	}
	return s.opts.RecordHistory
}

func (s *RankingService) recordHistory(ctx context.Context, scores []ranking.CompanyScore) {
	ctx, span := s.obs.StartSpan(ctx, "rankings.record_history", attribute.Int("companies", len(scores)))
	defer span.End()

	result := s.recorder.Record(ctx, scores)
	metrics.RankingHistoryWrites.WithLabelValues("inserted").Add(float64(result.Inserted))
	metrics.RankingHistoryWrites.WithLabelValues("updated").Add(float64(result.Updated))
	metrics.RankingHistoryWrites.WithLabelValues("failed").Add(float64(result.Failed))

	if result.Err != nil {
		span.RecordError(result.Err)
		s.logger.Warn("ranking history partially recorded", map[string]interface{}{
			"inserted": result.Inserted,
			"updated":  result.Updated,
			"failed":   result.Failed,
			"error":    result.Err.Error(),
		})
	}

	// cached history charts of the recorded companies no longer show today's score
	if result.Inserted+result.Updated > 0 && s.cache != nil {
		tags := make([]string, 0, len(scores))
		for _, score := range scores {
			tags = append(tags, CompanyHistoryTag(score.CompanyID))
		}
		if _, err := s.cache.Invalidate(ctx, tags...); err != nil {
			s.logger.Warn("failed to invalidate history cache", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *RankingService) degrade(dataset string, err error) {
	metrics.RankingDegradedResponses.WithLabelValues(dataset).Inc()
	s.logger.Warn("database unavailable, returning empty dataset", map[string]interface{}{
		"dataset": dataset,
		"error":   err.Error(),
	})
}
