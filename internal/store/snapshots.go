// internal/store/snapshots.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ranking-workers/internal/models"
)

// Store reads company snapshots and reads/writes ranking history rows.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const (
	selectActiveCompanies = `
		SELECT c.id, c.name, c.slug,
			COALESCE(c.logo_url, '') AS logo_url,
			COALESCE(c.country, '') AS country,
			c.rating, c.cashback_rate,
			(SELECT COUNT(*) FROM favorites f WHERE f.company_id = c.id) AS favorites_count
		FROM companies c
		WHERE c.is_active = TRUE
		ORDER BY c.name`

	selectReviews = `
		SELECT id, company_id, rating, metadata, status, created_at, published_at
		FROM reviews
		WHERE status = $1 AND company_id = ANY($2)`

	selectPlans = `
		SELECT id, company_id, name, evaluation_model, account_type, profit_split, price, currency
		FROM plans
		WHERE company_id = ANY($1)`

	selectTransactions = `
		SELECT id, company_id, status, points, approved_at, fulfilled_at
		FROM cashback_transactions
		WHERE company_id = ANY($1)`

	selectClicks = `
		SELECT company_id, created_at
		FROM click_events
		WHERE created_at >= $1 AND company_id = ANY($2)`
)

type companyRow struct {
	ID             string   `db:"id"`
	Name           string   `db:"name"`
	Slug           string   `db:"slug"`
	LogoURL        string   `db:"logo_url"`
	Country        string   `db:"country"`
	Rating         *float64 `db:"rating"`
	CashbackRate   *float64 `db:"cashback_rate"`
	FavoritesCount int      `db:"favorites_count"`
}

type reviewRow struct {
	ID          string     `db:"id"`
	CompanyID   string     `db:"company_id"`
	Rating      float64    `db:"rating"`
	Metadata    []byte     `db:"metadata"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	PublishedAt *time.Time `db:"published_at"`
}

type planRow struct {
	ID              string  `db:"id"`
	CompanyID       string  `db:"company_id"`
	Name            string  `db:"name"`
	EvaluationModel *string `db:"evaluation_model"`
	AccountType     *string `db:"account_type"`
	ProfitSplit     *string `db:"profit_split"`
	Price           float64 `db:"price"`
	Currency        string  `db:"currency"`
}

type transactionRow struct {
	ID          string     `db:"id"`
	CompanyID   string     `db:"company_id"`
	Status      string     `db:"status"`
	Points      float64    `db:"points"`
	ApprovedAt  *time.Time `db:"approved_at"`
	FulfilledAt *time.Time `db:"fulfilled_at"`
}

type clickRow struct {
	CompanyID string    `db:"company_id"`
	CreatedAt time.Time `db:"created_at"`
}

// LoadCompanySnapshots reads every active company with its approved reviews,
// plans and cashback transactions. Clicks older than clicksSince are skipped.
// Each collection is one query; rows are attached to their company in memory.
func (s *Store) LoadCompanySnapshots(ctx context.Context, clicksSince time.Time) ([]models.CompanySnapshot, error) {
	var companies []companyRow
	if err := s.db.SelectContext(ctx, &companies, selectActiveCompanies); err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	if len(companies) == 0 {
		return []models.CompanySnapshot{}, nil
	}

	snapshots := make([]models.CompanySnapshot, len(companies))
	index := make(map[string]int, len(companies))
	ids := make([]string, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
		index[c.ID] = i
		snapshots[i] = models.CompanySnapshot{
			ID:             c.ID,
			Name:           c.Name,
			Slug:           c.Slug,
			LogoURL:        c.LogoURL,
			Country:        c.Country,
			Rating:         c.Rating,
			CashbackRate:   c.CashbackRate,
			FavoritesCount: c.FavoritesCount,
			Reviews:        []models.Review{},
			Plans:          []models.Plan{},
			Transactions:   []models.CashbackTransaction{},
			Clicks:         []models.Click{},
		}
	}

	var reviews []reviewRow
	if err := s.db.SelectContext(ctx, &reviews, selectReviews, models.ReviewStatusApproved, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	for _, r := range reviews {
		i, ok := index[r.CompanyID]
		if !ok {
			continue
		}
		snapshots[i].Reviews = append(snapshots[i].Reviews, models.Review{
			ID:          r.ID,
			Rating:      r.Rating,
			Metadata:    json.RawMessage(r.Metadata),
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
			PublishedAt: r.PublishedAt,
		})
	}

	var plans []planRow
	if err := s.db.SelectContext(ctx, &plans, selectPlans, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	for _, p := range plans {
		i, ok := index[p.CompanyID]
		if !ok {
			continue
		}
		snapshots[i].Plans = append(snapshots[i].Plans, models.Plan{
			ID:              p.ID,
			Name:            p.Name,
			EvaluationModel: p.EvaluationModel,
			AccountType:     p.AccountType,
			ProfitSplit:     p.ProfitSplit,
			Price:           p.Price,
			Currency:        p.Currency,
		})
	}

	var transactions []transactionRow
	if err := s.db.SelectContext(ctx, &transactions, selectTransactions, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load cashback transactions: %w", err)
	}
	for _, t := range transactions {
		i, ok := index[t.CompanyID]
		if !ok {
			continue
		}
		snapshots[i].Transactions = append(snapshots[i].Transactions, models.CashbackTransaction{
			ID:          t.ID,
			Status:      t.Status,
			Points:      t.Points,
			ApprovedAt:  t.ApprovedAt,
			FulfilledAt: t.FulfilledAt,
		})
	}

	var clicks []clickRow
	if err := s.db.SelectContext(ctx, &clicks, selectClicks, clicksSince, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load click events: %w", err)
	}
	for _, c := range clicks {
		if i, ok := index[c.CompanyID]; ok {
			snapshots[i].Clicks = append(snapshots[i].Clicks, models.Click{CreatedAt: c.CreatedAt})
		}
	}

	return snapshots, nil
}
