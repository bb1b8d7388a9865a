package invalidaterankingcache

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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Invalidate(ctx context.Context, tags ...string) (int64, error) {
	args := m.Called(ctx, tags)
	return args.Get(0).(int64), args.Error(1)
}

func createTestConfig() *Config {
	return &Config{Enabled: true, MaxJobsActive: 5, Timeout: 10 * time.Second}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		setupMock      func(*MockService)
		wantErr        bool
		validateOutput func(*testing.T, *Output)
	}{
		{
			name:  "explicit tags",
			input: &Input{Tags: []string{"rankings", " ", "reviews-ranking"}},
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, []string{"rankings", "reviews-ranking"}).Return(int64(4), nil)
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Equal(t, int64(4), out.InvalidatedKeys)
				assert.Equal(t, []string{"rankings", "reviews-ranking"}, out.Tags)
			},
		},
		{
			name:  "company history only",
			input: &Input{CompanyID: "c42"},
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, []string{"ranking-history:c42"}).Return(int64(1), nil)
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Equal(t, int64(1), out.InvalidatedKeys)
			},
		},
		{
			name:  "no tags drops everything",
			input: &Input{},
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, []string{"rankings", "reviews-ranking", "ranking-history"}).Return(int64(9), nil)
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Len(t, out.Tags, 3)
			},
		},
		{
			name:  "redis failure",
			input: &Input{Tags: []string{"rankings"}},
			setupMock: func(m *MockService) {
				m.On("Invalidate", mock.Anything, mock.Anything).
					Return(int64(0), errors.NewCacheFailedError("invalidate", stderrors.New("connection refused")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h, err := NewHandler(HandlerOptions{CustomConfig: createTestConfig(), Service: svc, Logger: logger.NewTestLogger(t)})
			require.NoError(t, err)

			out, err := h.Execute(context.Background(), tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeCacheFailed, errors.AsStandardError(err).Code)
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, out)
			svc.AssertExpectations(t)
		})
	}
}
