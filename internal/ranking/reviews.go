// internal/ranking/reviews.go
package ranking

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"ranking-workers/internal/models"
)

type ReviewsSort struct {
	SortBy    string        `json:"sortBy"`
	Direction SortDirection `json:"sortDirection"`
}

// Normalized maps unknown keys to rating and defaults to descending.
func (s ReviewsSort) Normalized() ReviewsSort {
	switch s.SortBy {
	case SortRating, SortReviews, SortTrend, SortFavorites:
	default:
		s.SortBy = SortRating
	}
	s.Direction = ParseSortDirection(string(s.Direction))
	return s
}

// CompanyReviewRanking is one company row of the reviews ranking. Its trend
// compares review counts, not clicks.
type CompanyReviewRanking struct {
	CompanyID        string         `json:"companyId"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	LogoURL          string         `json:"logoUrl,omitempty"`
	Country          string         `json:"country,omitempty"`
	Rating           *float64       `json:"rating"`
	ReviewCount      int            `json:"reviewCount"`
	NewReviews30d    int            `json:"newReviews30d"`
	PrevReviews30d   int            `json:"prevReviews30d"`
	TrendRatio       float64        `json:"trendRatio"`
	RecommendedRatio *float64       `json:"recommendedRatio"`
	Categories       CategoryScores `json:"categories"`
	FavoritesCount   int            `json:"favoritesCount"`

	HasCashback           bool     `json:"hasCashback"`
	CashbackRate          *float64 `json:"cashbackRate,omitempty"`
	CashbackAveragePoints *float64 `json:"cashbackAveragePoints"`
	CashbackRedeemRate    *float64 `json:"cashbackRedeemRate"`
	MaxPlanPrice          *float64 `json:"maxPlanPrice"`
	MaxProfitSplit        *int     `json:"maxProfitSplit"`
}

type ReviewsSummary struct {
	TotalCompanies int      `json:"totalCompanies"`
	TotalReviews   int      `json:"totalReviews"`
	NewReviews30d  int      `json:"newReviews30d"`
	AverageRating  *float64 `json:"averageRating"`
}

type ReviewsMaxValues struct {
	ReviewCount    int `json:"reviewCount"`
	NewReviews30d  int `json:"newReviews30d"`
	FavoritesCount int `json:"favoritesCount"`
}

type ReviewsDataset struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Companies   []CompanyReviewRanking `json:"companies"`
	Summary     struct {
		Overall  ReviewsSummary `json:"overall"`
		Filtered ReviewsSummary `json:"filtered"`
	} `json:"summary"`
	MaxValues struct {
		Global   ReviewsMaxValues `json:"global"`
		Filtered ReviewsMaxValues `json:"filtered"`
	} `json:"maxValues"`
}

// EmptyReviewsRanking is the dataset returned when no data could be read.
func EmptyReviewsRanking(now time.Time) *ReviewsDataset {
	return &ReviewsDataset{
		GeneratedAt: now,
		Companies:   []CompanyReviewRanking{},
	}
}

// summaryBuilder accumulates per-company figures into a ReviewsSummary and
// the matching maxima.
type summaryBuilder struct {
	summary ReviewsSummary
	max     ReviewsMaxValues
	ratings []float64
	weights []float64
}

func (b *summaryBuilder) add(agg *CompanyAggregate, favorites int) {
	b.summary.TotalCompanies++
	b.summary.TotalReviews += agg.ReviewCount
	b.summary.NewReviews30d += agg.NewReviews30d
	if agg.ReviewCount > 0 && agg.AverageRating != nil {
		b.ratings = append(b.ratings, *agg.AverageRating)
		b.weights = append(b.weights, float64(agg.ReviewCount))
	}

	if agg.ReviewCount > b.max.ReviewCount {
		b.max.ReviewCount = agg.ReviewCount
	}
	if agg.NewReviews30d > b.max.NewReviews30d {
		b.max.NewReviews30d = agg.NewReviews30d
	}
	if favorites > b.max.FavoritesCount {
		b.max.FavoritesCount = favorites
	}
}

// build returns the summary with a review-weighted average rating.
func (b *summaryBuilder) build() (ReviewsSummary, ReviewsMaxValues) {
	if len(b.ratings) > 0 {
		avg := stat.Mean(b.ratings, b.weights)
		b.summary.AverageRating = &avg
	}
	return b.summary, b.max
}

// BuildReviewsRanking builds the reviews ranking with summaries for the whole
// dataset and for the filtered subset.
func BuildReviewsRanking(snapshots []models.CompanySnapshot, filters Filters, order ReviewsSort, opts Options) *ReviewsDataset {
	opts = opts.withDefaults()
	order = order.Normalized()

	all, _ := aggregateAll(snapshots, opts)

	dataset := EmptyReviewsRanking(opts.Now)
	var overall, subset summaryBuilder
	for i := range all {
		entry := &all[i]
		company := entry.company
		overall.add(&entry.agg, company.FavoritesCount)

		if !filters.Matches(company, &entry.agg) {
			continue
		}
		subset.add(&entry.agg, company.FavoritesCount)
		dataset.Companies = append(dataset.Companies, CompanyReviewRanking{
			CompanyID:             company.ID,
			Name:                  company.Name,
			Slug:                  company.Slug,
			LogoURL:               company.LogoURL,
			Country:               company.Country,
			Rating:                entry.agg.AverageRating,
			ReviewCount:           entry.agg.ReviewCount,
			NewReviews30d:         entry.agg.NewReviews30d,
			PrevReviews30d:        entry.agg.PrevReviews30d,
			TrendRatio:            entry.agg.ReviewTrendRatio,
			RecommendedRatio:      entry.agg.RecommendedRatio,
			Categories:            entry.agg.Categories,
			FavoritesCount:        company.FavoritesCount,
			HasCashback:           entry.agg.HasCashback,
			CashbackRate:          company.CashbackRate,
			CashbackAveragePoints: entry.agg.CashbackAveragePoints,
			CashbackRedeemRate:    entry.agg.CashbackRedeemRate,
			MaxPlanPrice:          entry.agg.MaxPlanPrice,
			MaxProfitSplit:        entry.agg.MaxProfitSplit,
		})
	}

	dataset.Summary.Overall, dataset.MaxValues.Global = overall.build()
	dataset.Summary.Filtered, dataset.MaxValues.Filtered = subset.build()

	sortEntries(dataset.Companies, reviewSortKey(order.SortBy),
		func(c *CompanyReviewRanking) string { return c.Name },
		order.Direction,
	)
	return dataset
}

func reviewSortKey(sortBy string) func(*CompanyReviewRanking) float64 {
	switch sortBy {
	case SortReviews:
		return func(c *CompanyReviewRanking) float64 { return float64(c.ReviewCount) }
	case SortTrend:
		return func(c *CompanyReviewRanking) float64 { return c.TrendRatio }
	case SortFavorites:
		return func(c *CompanyReviewRanking) float64 { return float64(c.FavoritesCount) }
	default:
		return func(c *CompanyReviewRanking) float64 {
			if c.Rating == nil {
				return 0
			}
			return *c.Rating
		}
	}
}
