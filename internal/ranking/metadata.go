// internal/ranking/metadata.go
package ranking

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// PublicLinkCap bounds resource links shown on public review pages.
	PublicLinkCap = 3
	// AdminLinkCap bounds resource links in admin and dispute tooling.
	AdminLinkCap = 10
)

// CategoryScores holds the four per-category review scores on a 0-5 scale.
type CategoryScores struct {
	TradingConditions *float64 `json:"tradingConditions"`
	CustomerSupport   *float64 `json:"customerSupport"`
	UserExperience    *float64 `json:"userExperience"`
	PayoutExperience  *float64 `json:"payoutExperience"`
}

// ReviewMetadata is the typed view of the free-form metadata attached to a review.
type ReviewMetadata struct {
	Recommended   *bool          `json:"recommended"`
	Categories    CategoryScores `json:"categories"`
	Experience    *string        `json:"experience"`
	TradingStyle  *string        `json:"tradingStyle"`
	Timeframe     *string        `json:"timeframe"`
	AccountSize   *string        `json:"accountSize"`
	ResourceLinks []string       `json:"resourceLinks"`
}

var (
	tradingConditionsKeys = []string{"tradingConditions", "trading_conditions", "trading", "conditions"}
	customerSupportKeys   = []string{"customerSupport", "customer_support", "support"}
	userExperienceKeys    = []string{"userExperience", "user_experience", "ux", "platform"}
	payoutExperienceKeys  = []string{"payoutExperience", "payout_experience", "payouts", "payout"}

	nestedScoreKeys = []string{"scores", "ratingBreakdown", "categories"}
)

// ExtractReviewMetadata decodes raw review metadata. It never fails: anything
// that is not a JSON object yields the empty record.
func ExtractReviewMetadata(raw []byte, linkCap int) ReviewMetadata {
	if len(raw) == 0 {
		return emptyMetadata()
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return emptyMetadata()
	}
	return ExtractMetadataValue(value, linkCap)
}

// ExtractMetadataValue is ExtractReviewMetadata for an already decoded value.
func ExtractMetadataValue(value interface{}, linkCap int) ReviewMetadata {
	meta := emptyMetadata()

	obj, ok := value.(map[string]interface{})
	if !ok {
		return meta
	}

	meta.Recommended = parseRecommended(obj["recommended"])

	nested := nestedScores(obj)
	meta.Categories = CategoryScores{
		TradingConditions: lookupCategory(obj, nested, tradingConditionsKeys),
		CustomerSupport:   lookupCategory(obj, nested, customerSupportKeys),
		UserExperience:    lookupCategory(obj, nested, userExperienceKeys),
		PayoutExperience:  lookupCategory(obj, nested, payoutExperienceKeys),
	}

	meta.Experience = optionalString(obj["experience"])
	meta.TradingStyle = optionalString(obj["tradingStyle"])
	meta.Timeframe = optionalString(obj["timeframe"])
	meta.AccountSize = optionalString(obj["accountSize"])
	meta.ResourceLinks = resourceLinks(obj["resourceLinks"], linkCap)

	return meta
}

func emptyMetadata() ReviewMetadata {
	return ReviewMetadata{ResourceLinks: []string{}}
}

func parseRecommended(v interface{}) *bool {
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		b := strings.EqualFold(strings.TrimSpace(t), "true")
		return &b
	default:
		return nil
	}
}

func nestedScores(obj map[string]interface{}) map[string]interface{} {
	for _, key := range nestedScoreKeys {
		if nested, ok := obj[key].(map[string]interface{}); ok {
			return nested
		}
	}
	return nil
}

// lookupCategory tries every alias on the top-level object before the nested one.
func lookupCategory(obj, nested map[string]interface{}, aliases []string) *float64 {
	for _, source := range []map[string]interface{}{obj, nested} {
		if source == nil {
			continue
		}
		for _, key := range aliases {
			if v, ok := parseNumber(source[key]); ok {
				return &v
			}
		}
	}
	return nil
}

func parseNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return parseNumber(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return parseNumber(f)
	default:
		return 0, false
	}
}

func optionalString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func resourceLinks(v interface{}, linkCap int) []string {
	if linkCap <= 0 {
		linkCap = PublicLinkCap
	}
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	links := make([]string, 0, linkCap)
	for _, item := range items {
		if len(links) == linkCap {
			break
		}
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			links = append(links, s)
		}
	}
	return links
}
