// internal/ranking/aggregate_test.go
package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranking-workers/internal/models"
)

func TestAggregate_ZeroReviewsFallsBackToStoredRating(t *testing.T) {
	company := models.CompanySnapshot{ID: "c1", Name: "Solo", Rating: floatPtr(3.8)}

	agg := Aggregate(&company, NewWindow(testNow), nil)

	assert.Equal(t, 0, agg.ReviewCount)
	require.NotNil(t, agg.AverageRating)
	assert.Equal(t, 3.8, *agg.AverageRating)
	assert.Nil(t, agg.RecommendedRatio)
	require.NotNil(t, agg.Categories.TradingConditions)
	assert.Equal(t, 3.8, *agg.Categories.TradingConditions)
	assert.False(t, agg.HasCashback)
	assert.Nil(t, agg.CashbackAveragePoints)
	assert.Nil(t, agg.MaxPlanPrice)
	assert.Empty(t, agg.EvaluationModels)
}

func TestAggregate_NoRatingAtAll(t *testing.T) {
	company := models.CompanySnapshot{ID: "c1"}
	agg := Aggregate(&company, NewWindow(testNow), nil)
	assert.Nil(t, agg.AverageRating)
	assert.Nil(t, agg.Categories.PayoutExperience)
}

func TestAggregate_Reviews(t *testing.T) {
	published := daysAgo(5)
	company := models.CompanySnapshot{
		ID: "c1",
		Reviews: []models.Review{
			{ID: "r1", Rating: 5, CreatedAt: daysAgo(40), PublishedAt: &published,
				Metadata: metadataJSON(t, map[string]interface{}{"recommended": true, "trading": 4})},
			{ID: "r2", Rating: 3, CreatedAt: daysAgo(45),
				Metadata: metadataJSON(t, map[string]interface{}{"recommended": "false", "scores": map[string]interface{}{"trading": "2"}})},
			{ID: "r3", Rating: 4, CreatedAt: daysAgo(70), Metadata: []byte(`not json`)},
		},
	}

	agg := Aggregate(&company, NewWindow(testNow), nil)

	assert.Equal(t, 3, agg.ReviewCount)
	require.NotNil(t, agg.AverageRating)
	assert.InDelta(t, 4.0, *agg.AverageRating, 1e-9)
	require.NotNil(t, agg.RecommendedRatio)
	assert.InDelta(t, 1.0/3.0, *agg.RecommendedRatio, 1e-9)
	require.NotNil(t, agg.Categories.TradingConditions)
	assert.Equal(t, 3.0, *agg.Categories.TradingConditions)
	require.NotNil(t, agg.Categories.CustomerSupport)
	assert.InDelta(t, 4.0, *agg.Categories.CustomerSupport, 1e-9)

	// published date wins over created date; 70 days is outside both buckets
	assert.Equal(t, 1, agg.NewReviews30d)
	assert.Equal(t, 1, agg.PrevReviews30d)
	assert.Equal(t, 0.0, agg.ReviewTrendRatio)
}

func TestAggregate_ClickTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		expected float64
	}{
		{name: "no clicks", expected: 0},
		{name: "new traffic", current: 3, expected: 1},
		{name: "growth", current: 3, previous: 2, expected: 0.5},
		{name: "flat", current: 3, previous: 3, expected: 0},
		{name: "decline", current: 1, previous: 4, expected: -0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var company models.CompanySnapshot
			for i := 0; i < tt.current; i++ {
				company.Clicks = append(company.Clicks, models.Click{CreatedAt: daysAgo(1)})
			}
			for i := 0; i < tt.previous; i++ {
				company.Clicks = append(company.Clicks, models.Click{CreatedAt: daysAgo(45)})
			}
			company.Clicks = append(company.Clicks, models.Click{CreatedAt: daysAgo(120)})

			agg := Aggregate(&company, NewWindow(testNow), nil)

			assert.Equal(t, tt.current, agg.Clicks30d)
			assert.Equal(t, tt.previous, agg.ClicksPrev30d)
			assert.InDelta(t, tt.expected, agg.TrendRatio, 1e-9)
		})
	}
}

func TestAggregate_WindowBoundaries(t *testing.T) {
	window := NewWindow(testNow)
	company := models.CompanySnapshot{
		Clicks: []models.Click{
			{CreatedAt: window.Recent},
			{CreatedAt: window.Recent.Add(-time.Nanosecond)},
			{CreatedAt: window.Previous},
			{CreatedAt: window.Previous.Add(-time.Nanosecond)},
		},
	}
	agg := Aggregate(&company, window, nil)
	assert.Equal(t, 1, agg.Clicks30d)
	assert.Equal(t, 2, agg.ClicksPrev30d)
}

func TestAggregate_Cashback(t *testing.T) {
	approved := daysAgo(3)
	fulfilled := approved.Add(24 * time.Hour)
	backwards := approved.Add(-time.Hour)

	company := models.CompanySnapshot{
		Transactions: []models.CashbackTransaction{
			{ID: "t1", Status: models.TransactionStatusRedeemed, Points: 10, ApprovedAt: &approved, FulfilledAt: &fulfilled},
			{ID: "t2", Status: "PENDING", Points: 20, ApprovedAt: &approved, FulfilledAt: &backwards},
			{ID: "t3", Status: "APPROVED", Points: 30},
		},
	}

	agg := Aggregate(&company, NewWindow(testNow), nil)

	assert.True(t, agg.HasCashback)
	assert.Equal(t, 3, agg.CashbackTransactions)
	require.NotNil(t, agg.CashbackAveragePoints)
	assert.InDelta(t, 20.0, *agg.CashbackAveragePoints, 1e-9)
	require.NotNil(t, agg.CashbackRedeemRate)
	assert.InDelta(t, 1.0/3.0, *agg.CashbackRedeemRate, 1e-9)
	require.NotNil(t, agg.CashbackPayoutHours)
	assert.InDelta(t, 24.0, *agg.CashbackPayoutHours, 1e-9)
}

func TestAggregate_CashbackRateOnly(t *testing.T) {
	company := models.CompanySnapshot{CashbackRate: floatPtr(0.05)}
	agg := Aggregate(&company, NewWindow(testNow), nil)
	assert.True(t, agg.HasCashback)
	assert.Nil(t, agg.CashbackRedeemRate)
	assert.Nil(t, agg.CashbackPayoutHours)
}

func TestAggregate_Plans(t *testing.T) {
	company := models.CompanySnapshot{
		Plans: []models.Plan{
			{ID: "p1", EvaluationModel: stringPtr("two-step"), AccountType: stringPtr("forex"), ProfitSplit: stringPtr("80/20"), Price: 100, Currency: "EUR"},
			{ID: "p2", EvaluationModel: stringPtr("one-step"), AccountType: stringPtr("forex"), ProfitSplit: stringPtr(" 90% "), Price: 99, Currency: "usd"},
			{ID: "p3", ProfitSplit: stringPtr("up to 95"), Price: 50, Currency: "XYZ"},
		},
	}

	agg := Aggregate(&company, NewWindow(testNow), nil)

	assert.Equal(t, []string{"one-step", "two-step"}, agg.EvaluationModels)
	assert.Equal(t, []string{"forex"}, agg.AccountTypes)
	require.NotNil(t, agg.MaxProfitSplit)
	assert.Equal(t, 90, *agg.MaxProfitSplit)
	require.NotNil(t, agg.MaxPlanPrice)
	assert.Equal(t, 108.0, *agg.MaxPlanPrice)
}

func TestParseProfitSplit(t *testing.T) {
	tests := []struct {
		input    *string
		expected int
		ok       bool
	}{
		{input: nil},
		{input: stringPtr("")},
		{input: stringPtr("n/a")},
		{input: stringPtr("80/20"), expected: 80, ok: true},
		{input: stringPtr("  75%"), expected: 75, ok: true},
	}
	for _, tt := range tests {
		got, ok := ParseProfitSplit(tt.input)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.expected, got)
	}
}
