// internal/ranking/normalize.go
package ranking

import "math"

const ratingScale = 5.0

// Clamp01 limits x to [0,1]. Non-finite input maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// NormalizeRating maps a 0-5 rating onto [0,1]; an unknown rating is neutral.
func NormalizeRating(rating *float64) float64 {
	if rating == nil {
		return 0.5
	}
	return Clamp01(*rating / ratingScale)
}

// NormalizeByMax scales value against a dataset maximum.
func NormalizeByMax(value, max float64) float64 {
	if max <= 0 || math.IsNaN(max) {
		return 0
	}
	return Clamp01(value / max)
}

// NormalizeTrend centres a relative change at 0.5, saturating at -100% and +100%.
func NormalizeTrend(ratio float64) float64 {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0.5
	}
	return 0.5 + math.Max(-1, math.Min(1, ratio))/2
}

// NormalizeCategory maps a category average, falling back to the normalized rating.
func NormalizeCategory(value *float64, ratingNorm float64) float64 {
	if value == nil {
		return ratingNorm
	}
	return Clamp01(*value / ratingScale)
}

// ScaleScore turns a [0,1] score into 0-100 with one decimal.
func ScaleScore(x float64) float64 {
	return math.Round(Clamp01(x)*1000) / 10
}

// TrendRatio is the relative change between the current and the previous window.
func TrendRatio(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 1
		}
		return 0
	}
	return float64(current-previous) / float64(previous)
}
