package indexrankings

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/ranking"
	"ranking-workers/internal/search"
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

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) Index() string { return "marketplace-company-rankings" }

func (m *MockIndexer) IndexRankings(ctx context.Context, dataset *ranking.RankingsDataset) (*search.IndexResult, error) {
	args := m.Called(ctx, dataset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.IndexResult), args.Error(1)
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T, svc *MockService, idx *MockIndexer) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Minute},
		Service:      svc,
		Indexer:      idx,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func TestHandler_Execute(t *testing.T) {
	dataset := ranking.EmptyRankings(testNow)

	tests := []struct {
		name           string
		setupMocks     func(*MockService, *MockIndexer)
		wantErr        bool
		errCode        errors.ErrorCode
		validateOutput func(*testing.T, *Output)
	}{
		{
			name: "indexes fresh dataset",
			setupMocks: func(s *MockService, i *MockIndexer) {
				s.On("Rankings", mock.Anything, service.RankingsRequest{}).Return(&service.RankingsResult{Dataset: dataset}, nil)
				i.On("IndexRankings", mock.Anything, dataset).Return(&search.IndexResult{Indexed: 12}, nil)
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Equal(t, 12, out.Indexed)
				assert.False(t, out.Skipped)
				assert.Equal(t, "marketplace-company-rankings", out.Index)
				assert.True(t, out.GeneratedAt.Equal(testNow))
			},
		},
		{
			name: "degraded dataset is skipped",
			setupMocks: func(s *MockService, i *MockIndexer) {
				s.On("Rankings", mock.Anything, mock.Anything).Return(&service.RankingsResult{Dataset: dataset, Degraded: true}, nil)
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.True(t, out.Skipped)
				assert.Zero(t, out.Indexed)
			},
		},
		{
			name: "partial bulk failure",
			setupMocks: func(s *MockService, i *MockIndexer) {
				s.On("Rankings", mock.Anything, mock.Anything).Return(&service.RankingsResult{Dataset: dataset}, nil)
				i.On("IndexRankings", mock.Anything, dataset).
					Return(&search.IndexResult{Indexed: 10, Failed: 2}, stderrors.New("document c3: mapper_parsing_exception"))
			},
			wantErr: true,
			errCode: errors.ErrCodeIndexFailed,
		},
		{
			name: "compute failure",
			setupMocks: func(s *MockService, i *MockIndexer) {
				s.On("Rankings", mock.Anything, mock.Anything).
					Return(nil, errors.NewRankingsComputeFailedError(stderrors.New("timeout")))
			},
			wantErr: true,
			errCode: errors.ErrCodeRankingsComputeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, idx := new(MockService), new(MockIndexer)
			tt.setupMocks(svc, idx)
			h := createTestHandler(t, svc, idx)

			out, err := h.Execute(context.Background(), &Input{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errCode, errors.AsStandardError(err).Code)
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, out)
			svc.AssertExpectations(t)
			idx.AssertExpectations(t)
		})
	}
}
