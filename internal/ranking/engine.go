// internal/ranking/engine.go
package ranking

import (
	"time"

	"ranking-workers/internal/models"
)

// Options carry the per-call inputs that are not part of the snapshot.
type Options struct {
	Now   time.Time
	Rates RateConverter
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
	if o.Rates == nil {
		o.Rates = FallbackUSDRates
	}
	return o
}

type RankingsSort struct {
	SortBy    string        `json:"sortBy"`
	Direction SortDirection `json:"sortDirection"`
}

// Normalized maps unknown keys to the overall score and defaults to descending.
func (s RankingsSort) Normalized() RankingsSort {
	switch s.SortBy {
	case SortOverall, SortConditions, SortPayouts, SortCommunity, SortCashback, SortGrowth:
	default:
		s.SortBy = SortOverall
	}
	s.Direction = ParseSortDirection(string(s.Direction))
	return s
}

// CompanyRanking is one scored company in the rankings dataset.
type CompanyRanking struct {
	CompanyID      string           `json:"companyId"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	LogoURL        string           `json:"logoUrl,omitempty"`
	Country        string           `json:"country,omitempty"`
	FavoritesCount int              `json:"favoritesCount"`
	CashbackRate   *float64         `json:"cashbackRate,omitempty"`
	Metrics        CompanyAggregate `json:"metrics"`
	Scores         Scores           `json:"scores"`
}

// MaxValueSet separates the maxima used for scoring from the ones of the filtered subset.
type MaxValueSet struct {
	Global   MaxValues `json:"global"`
	Filtered MaxValues `json:"filtered"`
}

type AvailableFilters struct {
	Countries        []string `json:"countries"`
	EvaluationModels []string `json:"evaluationModels"`
	AccountTypes     []string `json:"accountTypes"`
}

type RankingsDataset struct {
	GeneratedAt       time.Time        `json:"generatedAt"`
	TotalCompanies    int              `json:"totalCompanies"`
	FilteredCompanies int              `json:"filteredCompanies"`
	Companies         []CompanyRanking `json:"companies"`
	MaxValues         MaxValueSet      `json:"maxValues"`
	Available         AvailableFilters `json:"available"`

	// Overall holds the overall score of every company, filtered or not.
	Overall []CompanyScore `json:"-"`
}

// EmptyRankings is the dataset returned when no data could be read.
func EmptyRankings(now time.Time) *RankingsDataset {
	return &RankingsDataset{
		GeneratedAt: now,
		Companies:   []CompanyRanking{},
		Available: AvailableFilters{
			Countries:        []string{},
			EvaluationModels: []string{},
			AccountTypes:     []string{},
		},
	}
}

type aggregated struct {
	company *models.CompanySnapshot
	agg     CompanyAggregate
}

func aggregateAll(snapshots []models.CompanySnapshot, opts Options) ([]aggregated, MaxValues) {
	window := NewWindow(opts.Now)
	out := make([]aggregated, len(snapshots))
	var global MaxValues
	for i := range snapshots {
		out[i] = aggregated{
			company: &snapshots[i],
			agg:     Aggregate(&snapshots[i], window, opts.Rates),
		}
		global.Observe(&out[i].agg, snapshots[i].FavoritesCount)
	}
	return out, global
}

// BuildRankings scores every company against the dataset-wide maxima, then
// filters and sorts. Filtered maxima are reported but never used for scoring.
func BuildRankings(snapshots []models.CompanySnapshot, filters Filters, order RankingsSort, opts Options) *RankingsDataset {
	opts = opts.withDefaults()
	order = order.Normalized()

	all, global := aggregateAll(snapshots, opts)

	dataset := EmptyRankings(opts.Now)
	dataset.TotalCompanies = len(all)
	dataset.MaxValues.Global = global
	dataset.Available = availableFilters(all)

	var filtered MaxValues
	dataset.Overall = make([]CompanyScore, 0, len(all))
	for i := range all {
		entry := &all[i]
		scores := Score(&entry.agg, entry.company.FavoritesCount, global)
		dataset.Overall = append(dataset.Overall, CompanyScore{CompanyID: entry.company.ID, OverallScore: scores.Overall})

		if !filters.Matches(entry.company, &entry.agg) {
			continue
		}
		filtered.Observe(&entry.agg, entry.company.FavoritesCount)
		dataset.Companies = append(dataset.Companies, CompanyRanking{
			CompanyID:      entry.company.ID,
			Name:           entry.company.Name,
			Slug:           entry.company.Slug,
			LogoURL:        entry.company.LogoURL,
			Country:        entry.company.Country,
			FavoritesCount: entry.company.FavoritesCount,
			CashbackRate:   entry.company.CashbackRate,
			Metrics:        entry.agg,
			Scores:         scores,
		})
	}
	dataset.FilteredCompanies = len(dataset.Companies)
	dataset.MaxValues.Filtered = filtered

	sortEntries(dataset.Companies,
		func(c *CompanyRanking) float64 { return c.Scores.Get(order.SortBy) },
		func(c *CompanyRanking) string { return c.Name },
		order.Direction,
	)
	return dataset
}

func availableFilters(all []aggregated) AvailableFilters {
	countries := make(map[string]struct{})
	evaluation := make(map[string]struct{})
	accounts := make(map[string]struct{})
	for i := range all {
		if c := all[i].company.Country; c != "" {
			countries[c] = struct{}{}
		}
		for _, m := range all[i].agg.EvaluationModels {
			evaluation[m] = struct{}{}
		}
		for _, a := range all[i].agg.AccountTypes {
			accounts[a] = struct{}{}
		}
	}
	return AvailableFilters{
		Countries:        sortedKeys(countries),
		EvaluationModels: sortedKeys(evaluation),
		AccountTypes:     sortedKeys(accounts),
	}
}
