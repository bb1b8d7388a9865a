package computerankings

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/ranking"
	"ranking-workers/internal/service"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Rankings(ctx context.Context, req service.RankingsRequest) (*service.RankingsResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RankingsResult), args.Error(1)
}

func createTestConfig() *Config {
	return &Config{Enabled: true, MaxJobsActive: 5, Timeout: 30 * time.Second}
}

func createTestHandler(t *testing.T, svc *MockService) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: createTestConfig(),
		Service:      svc,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func createTestResult() *service.RankingsResult {
	dataset := ranking.EmptyRankings(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	dataset.TotalCompanies = 2
	dataset.FilteredCompanies = 1
	dataset.Companies = []ranking.CompanyRanking{{CompanyID: "c1", Name: "Alpha"}}
	return &service.RankingsResult{Dataset: dataset}
}

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid configuration",
			opts:    HandlerOptions{CustomConfig: createTestConfig(), Service: new(MockService)},
			wantErr: false,
		},
		{
			name:    "invalid timeout",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 5}, Service: new(MockService)},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name:    "missing service",
			opts:    HandlerOptions{CustomConfig: createTestConfig()},
			wantErr: true,
			errMsg:  "ranking service is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, handler)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, handler.logger)
		})
	}
}

func TestHandler_ConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 12, Timeout: 45000},
	}}

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.Equal(t, 12, cfg.MaxJobsActive)
	assert.Equal(t, 45*time.Second, cfg.Timeout)

	cfg = createConfigFromAppConfig(nil, nil)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestHandler_HandleVariables(t *testing.T) {
	minReviews := 3
	record := false

	tests := []struct {
		name           string
		variables      map[string]interface{}
		setupMock      func(*MockService)
		wantErr        bool
		errCode        errors.ErrorCode
		validateOutput func(*testing.T, map[string]interface{})
	}{
		{
			name: "filters and sort are passed through",
			variables: map[string]interface{}{
				"filters": map[string]interface{}{
					"countries":  []interface{}{"US"},
					"minReviews": float64(3),
				},
				"sortBy":        "payouts",
				"sortDirection": "asc",
				"recordHistory": false,
			},
			setupMock: func(m *MockService) {
				m.On("Rankings", mock.Anything, service.RankingsRequest{
					Filters:       ranking.Filters{Countries: []string{"US"}, MinReviews: &minReviews},
					Sort:          ranking.RankingsSort{SortBy: "payouts", Direction: ranking.SortAsc},
					RecordHistory: &record,
				}).Return(createTestResult(), nil)
			},
			validateOutput: func(t *testing.T, out map[string]interface{}) {
				dataset := out["dataset"].(*ranking.RankingsDataset)
				assert.Equal(t, 1, dataset.FilteredCompanies)
				assert.Equal(t, false, out["cached"])
				assert.Equal(t, false, out["degraded"])
			},
		},
		{
			name:      "empty variables use defaults",
			variables: map[string]interface{}{},
			setupMock: func(m *MockService) {
				m.On("Rankings", mock.Anything, service.RankingsRequest{}).Return(createTestResult(), nil)
			},
			validateOutput: func(t *testing.T, out map[string]interface{}) {
				assert.NotNil(t, out["dataset"])
			},
		},
		{
			name:      "compute failure is returned",
			variables: map[string]interface{}{},
			setupMock: func(m *MockService) {
				m.On("Rankings", mock.Anything, mock.Anything).
					Return(nil, errors.NewRankingsComputeFailedError(stderrors.New("boom")))
			},
			wantErr: true,
			errCode: errors.ErrCodeRankingsComputeFailed,
		},
		{
			name:      "malformed filters",
			variables: map[string]interface{}{"filters": "US"},
			setupMock: func(m *MockService) {},
			wantErr:   true,
			errCode:   errors.ErrCodeInvalidFilterFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := createTestHandler(t, svc)

			out, err := h.handleVariables(context.Background(), tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errCode, errors.AsStandardError(err).Code)
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, out)
			svc.AssertExpectations(t)
		})
	}
}
