// internal/ranking/helpers_test.go
package ranking

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/models"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func metadataJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal metadata: %v", err)
	}
	return raw
}

// createTestCompany builds a company whose reviews alternate between ratings
// 4 and 5 and whose first `recommended` reviews are marked recommended.
func createTestCompany(t *testing.T, id string, reviews, recommended, favorites int) models.CompanySnapshot {
	company := models.CompanySnapshot{
		ID:             id,
		Name:           "Company " + id,
		Slug:           "company-" + id,
		Country:        "US",
		FavoritesCount: favorites,
	}
	for i := 0; i < reviews; i++ {
		rating := 4.0
		if i%2 == 1 {
			rating = 5.0
		}
		meta := map[string]interface{}{"recommended": i < recommended}
		company.Reviews = append(company.Reviews, models.Review{
			ID:        fmt.Sprintf("%s-review-%d", id, i),
			Rating:    rating,
			Metadata:  metadataJSON(t, meta),
			Status:    models.ReviewStatusApproved,
			CreatedAt: daysAgo(90),
		})
	}
	return company
}
