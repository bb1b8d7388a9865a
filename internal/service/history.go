// internal/service/history.go
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"ranking-workers/internal/common/database"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/models"
)

const MaxHistoryDays = 365

type HistoryResult struct {
	CompanyID string                       `json:"companyId"`
	Days      int                          `json:"days"`
	Entries   []models.RankingHistoryEntry `json:"entries"`
	Cached    bool                         `json:"cached"`
	Degraded  bool                         `json:"degraded"`
}

// ClampHistoryDays applies the default window and the upper bound.
func ClampHistoryDays(days, fallback int) int {
	if days <= 0 {
		days = fallback
	}
	if days < 1 {
		days = 1
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}
	return days
}

// CompanyHistory returns the company's history rows of the last days days,
// oldest first.
func (s *RankingService) CompanyHistory(ctx context.Context, companyID string, days int) (*HistoryResult, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, errors.NewRankingsInputInvalidError("companyId is required")
	}
	days = ClampHistoryDays(days, s.opts.HistoryDays)

	var key string
	if s.cache != nil {
		key = s.cache.Key("history", companyID, strconv.Itoa(days))
	}

	var cached HistoryResult
	if key != "" && s.cacheGet(ctx, "history", key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	ctx, span := s.obs.StartSpan(ctx, "history.query")
	defer span.End()

	since := s.now().AddDate(0, 0, -days)
	entries, err := s.history.ListForCompany(ctx, companyID, since)
	if err != nil {
		if database.IsUnavailable(err) {
			s.degrade("history", err)
			return &HistoryResult{
				CompanyID: companyID,
				Days:      days,
				Entries:   []models.RankingHistoryEntry{},
				Degraded:  true,
			}, nil
		}
		span.RecordError(err)
		return nil, errors.NewHistoryQueryFailedError(companyID, err)
	}
	if entries == nil {
		entries = []models.RankingHistoryEntry{}
	}

	result := &HistoryResult{CompanyID: companyID, Days: days, Entries: entries}
	if key != "" {
		s.cacheSet(ctx, "history", key, result, s.opts.HistoryTTL, TagHistory, CompanyHistoryTag(companyID))
	}
	return result, nil
}

// Movements lists score changes between the window [now-window, now) and
// the latest score before it, keeping those with |delta| >= threshold.
func (s *RankingService) Movements(ctx context.Context, window time.Duration, threshold float64) ([]models.ScoreMovement, error) {
	ctx, span := s.obs.StartSpan(ctx, "history.movements")
	defer span.End()

	to := s.now()
	all, err := s.history.ListMovements(ctx, to.Add(-window), to)
	if err != nil {
		span.RecordError(err)
		return nil, errors.NewHistoryQueryFailedError("*", err)
	}

	out := make([]models.ScoreMovement, 0, len(all))
	for _, m := range all {
		delta := m.Delta
		if delta < 0 {
			delta = -delta
		}
		if delta >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}
