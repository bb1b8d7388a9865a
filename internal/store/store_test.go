// internal/store/store_test.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranking-workers/internal/models"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func createTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestLoadCompanySnapshots(t *testing.T) {
	s, mock := createTestStore(t)
	since := testNow.AddDate(0, 0, -60)
	published := testNow.AddDate(0, 0, -3)
	approved := testNow.AddDate(0, 0, -10)
	fulfilled := approved.Add(24 * time.Hour)

	mock.ExpectQuery(`FROM companies c\s+WHERE c.is_active = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "slug", "logo_url", "country", "rating", "cashback_rate", "favorites_count",
		}).
			AddRow("c1", "Alpha Funding", "alpha", "", "US", 4.2, nil, 12).
			AddRow("c2", "Beta Capital", "beta", "https://cdn/beta.png", "GB", nil, 0.05, 3))

	mock.ExpectQuery(`FROM reviews\s+WHERE status = \$1 AND company_id = ANY\(\$2\)`).
		WithArgs(models.ReviewStatusApproved, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "rating", "metadata", "status", "created_at", "published_at",
		}).
			AddRow("r1", "c1", 5.0, []byte(`{"recommended":true}`), "APPROVED", testNow.AddDate(0, 0, -5), published).
			AddRow("r2", "c1", 4.0, nil, "APPROVED", testNow.AddDate(0, 0, -40), nil).
			AddRow("r3", "unknown", 1.0, nil, "APPROVED", testNow, nil))

	mock.ExpectQuery(`FROM plans`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "name", "evaluation_model", "account_type", "profit_split", "price", "currency",
		}).
			AddRow("p1", "c2", "Starter", "1-step", "swing", "80%", 99.0, "EUR"))

	mock.ExpectQuery(`FROM cashback_transactions`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "status", "points", "approved_at", "fulfilled_at",
		}).
			AddRow("t1", "c2", "REDEEMED", 150.0, approved, fulfilled))

	mock.ExpectQuery(`FROM click_events`).
		WithArgs(since, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"company_id", "created_at"}).
			AddRow("c1", testNow.AddDate(0, 0, -1)).
			AddRow("c1", testNow.AddDate(0, 0, -2)))

	snapshots, err := s.LoadCompanySnapshots(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	alpha := snapshots[0]
	assert.Equal(t, "c1", alpha.ID)
	require.NotNil(t, alpha.Rating)
	assert.Equal(t, 4.2, *alpha.Rating)
	assert.Equal(t, 12, alpha.FavoritesCount)
	require.Len(t, alpha.Reviews, 2)
	assert.JSONEq(t, `{"recommended":true}`, string(alpha.Reviews[0].Metadata))
	assert.Equal(t, published, alpha.Reviews[0].EffectiveDate())
	assert.Len(t, alpha.Clicks, 2)
	assert.Empty(t, alpha.Plans)

	beta := snapshots[1]
	assert.Nil(t, beta.Rating)
	require.NotNil(t, beta.CashbackRate)
	require.Len(t, beta.Plans, 1)
	assert.Equal(t, "80%", *beta.Plans[0].ProfitSplit)
	require.Len(t, beta.Transactions, 1)
	assert.Equal(t, fulfilled, *beta.Transactions[0].FulfilledAt)
	assert.Empty(t, beta.Reviews)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCompanySnapshots_NoCompanies(t *testing.T) {
	s, mock := createTestStore(t)
	mock.ExpectQuery(`FROM companies`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	snapshots, err := s.LoadCompanySnapshots(context.Background(), testNow)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCompanySnapshots_PropagatesErrors(t *testing.T) {
	s, mock := createTestStore(t)
	mock.ExpectQuery(`FROM companies`).WillReturnError(sql.ErrConnDone)

	_, err := s.LoadCompanySnapshots(context.Background(), testNow)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestFindForDay(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	tests := []struct {
		name           string
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, entry *models.RankingHistoryEntry, err error)
	}{
		{
			name: "row exists",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM company_ranking_history\s+WHERE company_id = \$1 AND recorded_at >= \$2 AND recorded_at < \$3`).
					WithArgs("c1", start, end).
					WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "overall_score", "recorded_at"}).
						AddRow("h1", "c1", 71.5, start.Add(8*time.Hour)))
			},
			validateOutput: func(t *testing.T, entry *models.RankingHistoryEntry, err error) {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.Equal(t, "h1", entry.ID)
				assert.Equal(t, 71.5, entry.OverallScore)
			},
		},
		{
			name: "no row",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM company_ranking_history`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "overall_score", "recorded_at"}))
			},
			validateOutput: func(t *testing.T, entry *models.RankingHistoryEntry, err error) {
				require.NoError(t, err)
				assert.Nil(t, entry)
			},
		},
		{
			name: "query error",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM company_ranking_history`).WillReturnError(errors.New("boom"))
			},
			validateOutput: func(t *testing.T, entry *models.RankingHistoryEntry, err error) {
				assert.Error(t, err)
				assert.Nil(t, entry)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := createTestStore(t)
			tt.mockQuery(mock)
			entry, err := s.FindForDay(context.Background(), "c1", start, end)
			tt.validateOutput(t, entry, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateAndInsert(t *testing.T) {
	s, mock := createTestStore(t)

	mock.ExpectExec(`UPDATE company_ranking_history SET overall_score = \$1 WHERE id = \$2`).
		WithArgs(64.2, "h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO company_ranking_history`).
		WithArgs("h2", "c2", 55.0, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateScore(context.Background(), "h1", 64.2))
	require.NoError(t, s.Insert(context.Background(), &models.RankingHistoryEntry{
		ID:           "h2",
		CompanyID:    "c2",
		OverallScore: 55.0,
		RecordedAt:   testNow,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForCompany(t *testing.T) {
	s, mock := createTestStore(t)
	since := testNow.AddDate(0, 0, -30)

	mock.ExpectQuery(`ORDER BY recorded_at ASC`).
		WithArgs("c1", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "overall_score", "recorded_at"}).
			AddRow("h1", "c1", 60.0, testNow.AddDate(0, 0, -2)).
			AddRow("h2", "c1", 62.5, testNow.AddDate(0, 0, -1)))

	entries, err := s.ListForCompany(context.Background(), "c1", since)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].RecordedAt.Before(entries[1].RecordedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMovements(t *testing.T) {
	s, mock := createTestStore(t)
	from := testNow.Add(-24 * time.Hour)

	mock.ExpectQuery(`WITH cur AS`).
		WithArgs(from, testNow).
		WillReturnRows(sqlmock.NewRows([]string{
			"company_id", "company_name", "previous_score", "current_score", "recorded_at",
		}).
			AddRow("c1", "Alpha Funding", 70.1, 62.0, testNow).
			AddRow("c2", "Beta Capital", 50.0, 53.3, testNow))

	movements, err := s.ListMovements(context.Background(), from, testNow)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, -8.1, movements[0].Delta)
	assert.Equal(t, 3.3, movements[1].Delta)
	assert.NoError(t, mock.ExpectationsWereMet())
}
