// internal/store/history.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"ranking-workers/internal/models"
)

const (
	selectHistoryForDay = `
		SELECT id, company_id, overall_score, recorded_at
		FROM company_ranking_history
		WHERE company_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at DESC
		LIMIT 1`

	updateHistoryScore = `UPDATE company_ranking_history SET overall_score = $1 WHERE id = $2`

	insertHistory = `
		INSERT INTO company_ranking_history (id, company_id, overall_score, recorded_at)
		VALUES (:id, :company_id, :overall_score, :recorded_at)`

	selectHistorySince = `
		SELECT id, company_id, overall_score, recorded_at
		FROM company_ranking_history
		WHERE company_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC`

	// latest score inside [from, to) against the latest score before from
	selectMovements = `
		WITH cur AS (
			SELECT DISTINCT ON (company_id) company_id, overall_score, recorded_at
			FROM company_ranking_history
			WHERE recorded_at >= $1 AND recorded_at < $2
			ORDER BY company_id, recorded_at DESC
		), prev AS (
			SELECT DISTINCT ON (company_id) company_id, overall_score
			FROM company_ranking_history
			WHERE recorded_at < $1
			ORDER BY company_id, recorded_at DESC
		)
		SELECT cur.company_id, c.name AS company_name,
			prev.overall_score AS previous_score,
			cur.overall_score AS current_score,
			cur.recorded_at
		FROM cur
		JOIN prev ON prev.company_id = cur.company_id
		JOIN companies c ON c.id = cur.company_id
		ORDER BY ABS(cur.overall_score - prev.overall_score) DESC, c.name`
)

type historyRow struct {
	ID           string    `db:"id"`
	CompanyID    string    `db:"company_id"`
	OverallScore float64   `db:"overall_score"`
	RecordedAt   time.Time `db:"recorded_at"`
}

func (r historyRow) toModel() models.RankingHistoryEntry {
	return models.RankingHistoryEntry{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		OverallScore: r.OverallScore,
		RecordedAt:   r.RecordedAt,
	}
}

type movementRow struct {
	CompanyID     string    `db:"company_id"`
	CompanyName   string    `db:"company_name"`
	PreviousScore float64   `db:"previous_score"`
	CurrentScore  float64   `db:"current_score"`
	RecordedAt    time.Time `db:"recorded_at"`
}

// FindForDay returns the company's row recorded in [start, end), or nil.
func (s *Store) FindForDay(ctx context.Context, companyID string, start, end time.Time) (*models.RankingHistoryEntry, error) {
	var row historyRow
	err := s.db.GetContext(ctx, &row, selectHistoryForDay, companyID, start, end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find history for %s: %w", companyID, err)
	}
	entry := row.toModel()
	return &entry, nil
}

func (s *Store) UpdateScore(ctx context.Context, id string, score float64) error {
	if _, err := s.db.ExecContext(ctx, updateHistoryScore, score, id); err != nil {
		return fmt.Errorf("update history %s: %w", id, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, entry *models.RankingHistoryEntry) error {
	row := historyRow{
		ID:           entry.ID,
		CompanyID:    entry.CompanyID,
		OverallScore: entry.OverallScore,
		RecordedAt:   entry.RecordedAt,
	}
	if _, err := s.db.NamedExecContext(ctx, insertHistory, row); err != nil {
		return fmt.Errorf("insert history for %s: %w", entry.CompanyID, err)
	}
	return nil
}

// ListForCompany returns the company's rows recorded at or after since, oldest first.
func (s *Store) ListForCompany(ctx context.Context, companyID string, since time.Time) ([]models.RankingHistoryEntry, error) {
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, selectHistorySince, companyID, since); err != nil {
		return nil, fmt.Errorf("list history for %s: %w", companyID, err)
	}
	entries := make([]models.RankingHistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.toModel()
	}
	return entries, nil
}

// ListMovements compares, per company, the latest score in [from, to) with
// the latest one before from. Companies without both are left out.
func (s *Store) ListMovements(ctx context.Context, from, to time.Time) ([]models.ScoreMovement, error) {
	var rows []movementRow
	if err := s.db.SelectContext(ctx, &rows, selectMovements, from, to); err != nil {
		return nil, fmt.Errorf("list score movements: %w", err)
	}
	movements := make([]models.ScoreMovement, len(rows))
	for i, r := range rows {
		movements[i] = models.ScoreMovement{
			CompanyID:     r.CompanyID,
			CompanyName:   r.CompanyName,
			PreviousScore: r.PreviousScore,
			CurrentScore:  r.CurrentScore,
			Delta:         roundScore(r.CurrentScore - r.PreviousScore),
			RecordedAt:    r.RecordedAt,
		}
	}
	return movements, nil
}

func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}
