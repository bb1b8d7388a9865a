// internal/ranking/score.go
package ranking

// payoutHoursCeiling is the payout latency at which the payout score reaches zero.
const payoutHoursCeiling = 72.0

// MaxValues are the normalization denominators for dataset-relative signals.
type MaxValues struct {
	ReviewCount           int     `json:"reviewCount"`
	FavoritesCount        int     `json:"favoritesCount"`
	NewReviews30d         int     `json:"newReviews30d"`
	Clicks30d             int     `json:"clicks30d"`
	CashbackAveragePoints float64 `json:"cashbackAveragePoints"`
}

// Scores are the six composite scores, each 0-100 with one decimal.
type Scores struct {
	Overall    float64 `json:"overall"`
	Conditions float64 `json:"conditions"`
	Payouts    float64 `json:"payouts"`
	Community  float64 `json:"community"`
	Cashback   float64 `json:"cashback"`
	Growth     float64 `json:"growth"`
}

// Get returns the score named key; unknown keys read the overall score.
func (s Scores) Get(key string) float64 {
	switch key {
	case SortConditions:
		return s.Conditions
	case SortPayouts:
		return s.Payouts
	case SortCommunity:
		return s.Community
	case SortCashback:
		return s.Cashback
	case SortGrowth:
		return s.Growth
	default:
		return s.Overall
	}
}

// Observe widens m so that it covers one more company.
func (m *MaxValues) Observe(agg *CompanyAggregate, favorites int) {
	if agg.ReviewCount > m.ReviewCount {
		m.ReviewCount = agg.ReviewCount
	}
	if favorites > m.FavoritesCount {
		m.FavoritesCount = favorites
	}
	if agg.NewReviews30d > m.NewReviews30d {
		m.NewReviews30d = agg.NewReviews30d
	}
	if agg.Clicks30d > m.Clicks30d {
		m.Clicks30d = agg.Clicks30d
	}
	if agg.CashbackAveragePoints != nil && *agg.CashbackAveragePoints > m.CashbackAveragePoints {
		m.CashbackAveragePoints = *agg.CashbackAveragePoints
	}
}

// Score combines the normalized signals of one company into its composite scores.
// The result depends only on its arguments.
func Score(agg *CompanyAggregate, favorites int, max MaxValues) Scores {
	rating := NormalizeRating(agg.AverageRating)
	reviewsNorm := NormalizeByMax(float64(agg.ReviewCount), float64(max.ReviewCount))
	favoritesNorm := NormalizeByMax(float64(favorites), float64(max.FavoritesCount))
	newReviewsNorm := NormalizeByMax(float64(agg.NewReviews30d), float64(max.NewReviews30d))
	clicksNorm := NormalizeByMax(float64(agg.Clicks30d), float64(max.Clicks30d))
	trendScore := NormalizeTrend(agg.TrendRatio)

	recommended := 0.5
	if agg.RecommendedRatio != nil {
		recommended = *agg.RecommendedRatio
	}

	redeemRate := 0.0
	if agg.CashbackRedeemRate != nil {
		redeemRate = *agg.CashbackRedeemRate
	}

	pointsNorm := 0.0
	if agg.CashbackAveragePoints != nil {
		pointsNorm = NormalizeByMax(*agg.CashbackAveragePoints, max.CashbackAveragePoints)
	}

	payoutScore := payoutSpeedScore(agg.CashbackPayoutHours)

	hasCashback := 0.0
	if agg.HasCashback {
		hasCashback = 1
	}

	tradingNorm := NormalizeCategory(agg.Categories.TradingConditions, rating)
	uxNorm := NormalizeCategory(agg.Categories.UserExperience, rating)
	payoutExpNorm := NormalizeCategory(agg.Categories.PayoutExperience, rating)

	return Scores{
		Overall:    ScaleScore(0.55*rating + 0.20*reviewsNorm + 0.10*favoritesNorm + 0.15*recommended),
		Conditions: ScaleScore(0.70*tradingNorm + 0.30*uxNorm),
		Payouts:    ScaleScore(0.50*payoutExpNorm + 0.30*redeemRate + 0.20*payoutScore),
		Community:  ScaleScore(0.50*rating + 0.25*reviewsNorm + 0.25*recommended),
		Cashback:   ScaleScore(0.20*hasCashback + 0.35*pointsNorm + 0.25*redeemRate + 0.20*payoutScore),
		Growth:     ScaleScore(0.60*trendScore + 0.25*newReviewsNorm + 0.15*clicksNorm),
	}
}

// payoutSpeedScore rewards faster payouts; unknown latency is neutral.
func payoutSpeedScore(hours *float64) float64 {
	if hours == nil {
		return 0.5
	}
	return 1 - Clamp01(*hours/payoutHoursCeiling)
}
