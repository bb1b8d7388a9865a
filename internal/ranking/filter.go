// internal/ranking/filter.go
package ranking

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ranking-workers/internal/models"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Rankings sort keys.
const (
	SortOverall    = "overall"
	SortConditions = "conditions"
	SortPayouts    = "payouts"
	SortCommunity  = "community"
	SortCashback   = "cashback"
	SortGrowth     = "growth"
)

// Reviews-ranking sort keys.
const (
	SortRating    = "rating"
	SortReviews   = "reviews"
	SortTrend     = "trend"
	SortFavorites = "favorites"
)

// ParseSortDirection defaults to descending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

func (d SortDirection) sign() int {
	if d == SortAsc {
		return 1
	}
	return -1
}

// Filters are AND-combined predicates; zero values pass everything.
type Filters struct {
	Search           string   `json:"search,omitempty"`
	Countries        []string `json:"countries,omitempty"`
	EvaluationModels []string `json:"evaluationModels,omitempty"`
	AccountTypes     []string `json:"accountTypes,omitempty"`
	MinReviews       *int     `json:"minReviews,omitempty"`
	HasCashback      *bool    `json:"hasCashback,omitempty"`
}

// Normalized trims and orders the filter values so equivalent filters compare equal.
func (f Filters) Normalized() Filters {
	out := Filters{
		Search:           strings.TrimSpace(f.Search),
		Countries:        normalizeList(upperAll(f.Countries)),
		EvaluationModels: normalizeList(f.EvaluationModels),
		AccountTypes:     normalizeList(f.AccountTypes),
		MinReviews:       f.MinReviews,
	}
	if f.HasCashback != nil && *f.HasCashback {
		out.HasCashback = f.HasCashback
	}
	return out
}

// Matches reports whether a company passes every filter.
func (f Filters) Matches(company *models.CompanySnapshot, agg *CompanyAggregate) bool {
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(company.Name), search) &&
			!strings.Contains(strings.ToLower(company.Slug), search) {
			return false
		}
	}
	// country codes compare case-insensitively
	if len(f.Countries) > 0 && !containsFold(f.Countries, company.Country) {
		return false
	}
	if len(f.EvaluationModels) > 0 && !intersects(f.EvaluationModels, agg.EvaluationModels) {
		return false
	}
	if len(f.AccountTypes) > 0 && !intersects(f.AccountTypes, agg.AccountTypes) {
		return false
	}
	if f.MinReviews != nil && agg.ReviewCount < *f.MinReviews {
		return false
	}
	if f.HasCashback != nil && *f.HasCashback && !agg.HasCashback {
		return false
	}
	return true
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func upperAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}

func containsFold(values []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func intersects(wanted, have []string) bool {
	for _, v := range have {
		if contains(wanted, v) {
			return true
		}
	}
	return false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sortEntries orders items by key and breaks ties on a locale-aware name
// compare. Both comparisons follow the requested direction.
func sortEntries[T any](items []T, key func(*T) float64, name func(*T) string, direction SortDirection) {
	collator := collate.New(language.English)
	sign := direction.sign()
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if c := compareFloat(key(a), key(b)); c != 0 {
			return c*sign < 0
		}
		return collator.CompareString(name(a), name(b))*sign < 0
	})
}
