// internal/ranking/recorder.go
package ranking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/models"
)

const defaultRecordConcurrency = 16

// CompanyScore is the part of a ranking that is persisted to history.
type CompanyScore struct {
	CompanyID    string  `json:"companyId"`
	OverallScore float64 `json:"overallScore"`
}

// HistoryStore is the persistence the recorder needs. FindForDay returns
// nil, nil when no row exists in [start, end).
type HistoryStore interface {
	FindForDay(ctx context.Context, companyID string, start, end time.Time) (*models.RankingHistoryEntry, error)
	UpdateScore(ctx context.Context, id string, score float64) error
	Insert(ctx context.Context, entry *models.RankingHistoryEntry) error
}

type RecordResult struct {
	Inserted int
	Updated  int
	Failed   int
	Err      error
}

type Recorder struct {
	store       HistoryStore
	logger      logger.Logger
	location    *time.Location
	concurrency int
	now         func() time.Time
}

type RecorderOption func(*Recorder)

func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		if loc != nil {
			r.location = loc
		}
	}
}

func WithConcurrency(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRecorder(store HistoryStore, log logger.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:       store,
		logger:      log,
		location:    time.UTC,
		concurrency: defaultRecordConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DayBounds returns local midnight of t and the following midnight.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Record writes today's overall score for every company. Each write is
// independent; failures are logged and collected, never returned early.
func (r *Recorder) Record(ctx context.Context, scores []CompanyScore) RecordResult {
	now := r.now()
	start, end := DayBounds(now, r.location)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result RecordResult
		sem    = make(chan struct{}, r.concurrency)
	)

	for _, score := range scores {
		wg.Add(1)
		sem <- struct{}{}
		go func(score CompanyScore) {
			defer wg.Done()
			defer func() { <-sem }()

			inserted, err := r.recordOne(ctx, score, start, end, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed++
				result.Err = multierr.Append(result.Err, err)
				r.logger.Warn("failed to record ranking history", map[string]interface{}{
					"companyId": score.CompanyID,
					"error":     err.Error(),
				})
			case inserted:
				result.Inserted++
			default:
				result.Updated++
			}
		}(score)
	}
	wg.Wait()

	r.logger.Debug("ranking history recorded", map[string]interface{}{
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"failed":   result.Failed,
	})
	return result
}

func (r *Recorder) recordOne(ctx context.Context, score CompanyScore, start, end, now time.Time) (bool, error) {
	existing, err := r.store.FindForDay(ctx, score.CompanyID, start, end)
	if err != nil {
		return false, fmt.Errorf("find history for %s: %w", score.CompanyID, err)
	}
	if existing != nil {
		if err := r.store.UpdateScore(ctx, existing.ID, score.OverallScore); err != nil {
			return false, fmt.Errorf("update history %s: %w", existing.ID, err)
		}
		return false, nil
	}

	entry := &models.RankingHistoryEntry{
		ID:           uuid.NewString(),
		CompanyID:    score.CompanyID,
		OverallScore: score.OverallScore,
		RecordedAt:   now,
	}
	if err := r.store.Insert(ctx, entry); err != nil {
		return false, fmt.Errorf("insert history for %s: %w", score.CompanyID, err)
	}
	return true, nil
}
