// internal/ranking/aggregate.go
package ranking

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"ranking-workers/internal/models"
)

const trendWindow = 30 * 24 * time.Hour

var leadingDigits = regexp.MustCompile(`^\s*(\d+)`)

// Window holds the boundaries of the current and previous 30-day buckets.
type Window struct {
	Now      time.Time
	Recent   time.Time
	Previous time.Time
}

func NewWindow(now time.Time) Window {
	recent := now.Add(-trendWindow)
	return Window{
		Now:      now,
		Recent:   recent,
		Previous: recent.Add(-trendWindow),
	}
}

// CompanyAggregate holds the raw per-company counters the scorer works from.
type CompanyAggregate struct {
	ReviewCount      int            `json:"reviewCount"`
	AverageRating    *float64       `json:"averageRating"`
	RecommendedRatio *float64       `json:"recommendedRatio"`
	Categories       CategoryScores `json:"categories"`

	NewReviews30d    int     `json:"newReviews30d"`
	PrevReviews30d   int     `json:"prevReviews30d"`
	ReviewTrendRatio float64 `json:"reviewTrendRatio"`

	Clicks30d     int     `json:"clicks30d"`
	ClicksPrev30d int     `json:"clicksPrev30d"`
	TrendRatio    float64 `json:"trendRatio"`

	CashbackTransactions  int      `json:"cashbackTransactions"`
	CashbackAveragePoints *float64 `json:"cashbackAveragePoints"`
	CashbackRedeemRate    *float64 `json:"cashbackRedeemRate"`
	CashbackPayoutHours   *float64 `json:"cashbackPayoutHours"`
	HasCashback           bool     `json:"hasCashback"`

	EvaluationModels []string `json:"evaluationModels"`
	AccountTypes     []string `json:"accountTypes"`
	MaxProfitSplit   *int     `json:"maxProfitSplit"`
	MaxPlanPrice     *float64 `json:"maxPlanPrice"`
}

// Aggregate computes the raw counters for one company snapshot.
func Aggregate(company *models.CompanySnapshot, window Window, rates RateConverter) CompanyAggregate {
	if rates == nil {
		rates = FallbackUSDRates
	}

	var agg CompanyAggregate
	aggregateReviews(&agg, company, window)
	aggregateClicks(&agg, company.Clicks, window)
	aggregateCashback(&agg, company)
	aggregatePlans(&agg, company.Plans, rates)
	return agg
}

func aggregateReviews(agg *CompanyAggregate, company *models.CompanySnapshot, window Window) {
	agg.ReviewCount = len(company.Reviews)

	ratings := make([]float64, 0, len(company.Reviews))
	var recommended int
	var trading, support, ux, payout []float64

	for i := range company.Reviews {
		review := &company.Reviews[i]
		ratings = append(ratings, review.Rating)

		meta := ExtractReviewMetadata(review.Metadata, PublicLinkCap)
		if meta.Recommended != nil && *meta.Recommended {
			recommended++
		}
		trading = appendPresent(trading, meta.Categories.TradingConditions)
		support = appendPresent(support, meta.Categories.CustomerSupport)
		ux = appendPresent(ux, meta.Categories.UserExperience)
		payout = appendPresent(payout, meta.Categories.PayoutExperience)

		effective := review.EffectiveDate()
		switch {
		case !effective.Before(window.Recent):
			agg.NewReviews30d++
		case !effective.Before(window.Previous):
			agg.PrevReviews30d++
		}
	}

	if len(ratings) > 0 {
		avg := stat.Mean(ratings, nil)
		agg.AverageRating = &avg
		ratio := float64(recommended) / float64(len(ratings))
		agg.RecommendedRatio = &ratio
	} else if company.Rating != nil {
		stored := *company.Rating
		agg.AverageRating = &stored
	}

	agg.Categories = CategoryScores{
		TradingConditions: meanOr(trading, agg.AverageRating),
		CustomerSupport:   meanOr(support, agg.AverageRating),
		UserExperience:    meanOr(ux, agg.AverageRating),
		PayoutExperience:  meanOr(payout, agg.AverageRating),
	}
	agg.ReviewTrendRatio = TrendRatio(agg.NewReviews30d, agg.PrevReviews30d)
}

func aggregateClicks(agg *CompanyAggregate, clicks []models.Click, window Window) {
	for _, click := range clicks {
		switch {
		case !click.CreatedAt.Before(window.Recent):
			agg.Clicks30d++
		case !click.CreatedAt.Before(window.Previous):
			agg.ClicksPrev30d++
		}
	}
	agg.TrendRatio = TrendRatio(agg.Clicks30d, agg.ClicksPrev30d)
}

func aggregateCashback(agg *CompanyAggregate, company *models.CompanySnapshot) {
	txs := company.Transactions
	agg.CashbackTransactions = len(txs)
	agg.HasCashback = len(txs) > 0 || (company.CashbackRate != nil && *company.CashbackRate > 0)
	if len(txs) == 0 {
		return
	}

	points := make([]float64, 0, len(txs))
	var redeemed int
	var payoutHours []float64
	for _, tx := range txs {
		points = append(points, tx.Points)
		if tx.Status == models.TransactionStatusRedeemed {
			redeemed++
		}
		if tx.ApprovedAt != nil && tx.FulfilledAt != nil {
			if hours := tx.FulfilledAt.Sub(*tx.ApprovedAt).Hours(); hours > 0 {
				payoutHours = append(payoutHours, hours)
			}
		}
	}

	avgPoints := stat.Mean(points, nil)
	redeemRate := float64(redeemed) / float64(len(txs))
	agg.CashbackAveragePoints = &avgPoints
	agg.CashbackRedeemRate = &redeemRate
	if len(payoutHours) > 0 {
		avgHours := stat.Mean(payoutHours, nil)
		agg.CashbackPayoutHours = &avgHours
	}
}

func aggregatePlans(agg *CompanyAggregate, plans []models.Plan, rates RateConverter) {
	evaluation := make(map[string]struct{})
	accounts := make(map[string]struct{})

	for _, plan := range plans {
		if plan.EvaluationModel != nil {
			evaluation[*plan.EvaluationModel] = struct{}{}
		}
		if plan.AccountType != nil {
			accounts[*plan.AccountType] = struct{}{}
		}
		if split, ok := ParseProfitSplit(plan.ProfitSplit); ok {
			if agg.MaxProfitSplit == nil || split > *agg.MaxProfitSplit {
				agg.MaxProfitSplit = &split
			}
		}
		price := rates.ToUSD(plan.Price, plan.Currency)
		if agg.MaxPlanPrice == nil || price > *agg.MaxPlanPrice {
			agg.MaxPlanPrice = &price
		}
	}

	agg.EvaluationModels = sortedKeys(evaluation)
	agg.AccountTypes = sortedKeys(accounts)
}

// ParseProfitSplit reads the leading integer of a profit-split label such as "80/20".
func ParseProfitSplit(split *string) (int, bool) {
	if split == nil {
		return 0, false
	}
	m := leadingDigits.FindStringSubmatch(*split)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func appendPresent(values []float64, v *float64) []float64 {
	if v == nil {
		return values
	}
	return append(values, *v)
}

func meanOr(values []float64, fallback *float64) *float64 {
	if len(values) == 0 {
		if fallback == nil {
			return nil
		}
		v := *fallback
		return &v
	}
	mean := stat.Mean(values, nil)
	return &mean
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
