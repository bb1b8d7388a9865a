// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ranking-workers/internal/app"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/service"
)

// The suite needs the Postgres and Redis from configs/config.yaml and only
// runs with RUN_E2E=1.
func setupApp(t *testing.T) *app.App {
	t.Helper()
	if os.Getenv("RUN_E2E") != "1" {
		t.Skip("set RUN_E2E=1 to run against real backends")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.Build(ctx, cfg, zap.NewNop(), app.BuildOptions{ServiceName: "e2e", Retries: 3, SkipAlerts: true})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestRankingsRoundTrip(t *testing.T) {
	a := setupApp(t)
	ctx := context.Background()

	_, err := a.Service.Invalidate(ctx)
	require.NoError(t, err)

	first, err := a.Service.Rankings(ctx, service.RankingsRequest{})
	require.NoError(t, err)
	require.False(t, first.Degraded)
	assert.False(t, first.Cached)

	second, err := a.Service.Rankings(ctx, service.RankingsRequest{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Dataset.TotalCompanies, second.Dataset.TotalCompanies)

	if len(first.Dataset.Companies) == 0 {
		t.Skip("no active companies seeded")
	}
	top := first.Dataset.Companies[0]

	history, err := a.Service.CompanyHistory(ctx, top.CompanyID, 7)
	require.NoError(t, err)
	require.NotEmpty(t, history.Entries)
	latest := history.Entries[len(history.Entries)-1]
	assert.InDelta(t, top.Scores.Overall, latest.OverallScore, 0.01)
}

func TestReviewsRanking(t *testing.T) {
	a := setupApp(t)

	result, err := a.Service.ReviewsRanking(context.Background(), service.ReviewsRequest{})
	require.NoError(t, err)
	assert.Equal(t, len(result.Dataset.Companies), result.Dataset.Summary.Filtered.TotalCompanies)
}
