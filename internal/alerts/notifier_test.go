// internal/alerts/notifier_test.go
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/models"
)

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

func createTestConfig() Config {
	return Config{
		Threshold:  5,
		TopicARN:   "arn:aws:sns:eu-west-1:123456789012:ranking-alerts",
		FromEmail:  "rankings@example.com",
		Recipients: []string{"ops@example.com"},
		SNSEnabled: true,
		SESEnabled: true,
	}
}

func createTestMovements() []models.ScoreMovement {
	at := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return []models.ScoreMovement{
		{CompanyID: "c1", CompanyName: "Alpha", PreviousScore: 60, CurrentScore: 68, Delta: 8, RecordedAt: at},
		{CompanyID: "c2", CompanyName: "Beta", PreviousScore: 50, CurrentScore: 52, Delta: 2, RecordedAt: at},
		{CompanyID: "c3", CompanyName: "Gamma", PreviousScore: 70, CurrentScore: 58, Delta: -12, RecordedAt: at},
	}
}

func TestNotifyMovements(t *testing.T) {
	snsClient := new(MockSNS)
	sesClient := new(MockSES)

	var subjects []string
	snsClient.On("Publish", mock.Anything, mock.AnythingOfType("*sns.PublishInput")).
		Run(func(args mock.Arguments) {
			subjects = append(subjects, *args.Get(1).(*sns.PublishInput).Subject)
		}).
		Return(&sns.PublishOutput{MessageId: strPtr("msg-1")}, nil).Twice()
	sesClient.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		body := *in.Message.Body.Text.Data
		return assert.Contains(t, body, "Gamma (c3): 70.0 -> 58.0 (-12.0)") &&
			assert.NotContains(t, body, "Beta")
	})).Return(&ses.SendEmailOutput{}, nil).Once()

	n := NewNotifier(snsClient, sesClient, createTestConfig(), logger.NewTestLogger(t))
	result, err := n.NotifyMovements(context.Background(), createTestMovements(), 0)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Considered)
	assert.Equal(t, 2, result.Published)
	assert.True(t, result.Emailed)
	assert.Equal(t, []string{"Gamma moved down", "Alpha moved up"}, subjects)
	snsClient.AssertExpectations(t)
	sesClient.AssertExpectations(t)
}

func TestNotifyMovements_ChannelsDisabled(t *testing.T) {
	snsClient := new(MockSNS)
	sesClient := new(MockSES)

	cfg := createTestConfig()
	cfg.SNSEnabled = false
	cfg.SESEnabled = false

	n := NewNotifier(snsClient, sesClient, cfg, logger.NewTestLogger(t))
	result, err := n.NotifyMovements(context.Background(), createTestMovements(), 0)

	require.NoError(t, err)
	assert.Zero(t, result.Published)
	assert.False(t, result.Emailed)
	snsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	sesClient.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestNotifyMovements_PublishFailure(t *testing.T) {
	snsClient := new(MockSNS)
	snsClient.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	cfg := createTestConfig()
	cfg.SESEnabled = false

	n := NewNotifier(snsClient, nil, cfg, logger.NewTestLogger(t))
	result, err := n.NotifyMovements(context.Background(), createTestMovements(), 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RANKING_ALERT_FAILED")
	assert.Zero(t, result.Published)
}

func TestNotifyMovements_NothingSignificant(t *testing.T) {
	n := NewNotifier(new(MockSNS), new(MockSES), createTestConfig(), logger.NewTestLogger(t))
	result, err := n.NotifyMovements(context.Background(), createTestMovements()[1:2], 0)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Considered)
	assert.Zero(t, result.Published)
}

func TestNotifyMovements_ThresholdBelowConfigured(t *testing.T) {
	snsClient := new(MockSNS)
	sesClient := new(MockSES)

	var events []movementEvent
	snsClient.On("Publish", mock.Anything, mock.AnythingOfType("*sns.PublishInput")).
		Run(func(args mock.Arguments) {
			var event movementEvent
			require.NoError(t, json.Unmarshal([]byte(*args.Get(1).(*sns.PublishInput).Message), &event))
			events = append(events, event)
		}).
		Return(&sns.PublishOutput{MessageId: strPtr("msg-1")}, nil).Times(3)
	sesClient.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		body := *in.Message.Body.Text.Data
		return assert.Contains(t, body, "at least 1 points") &&
			assert.Contains(t, body, "Beta (c2)")
	})).Return(&ses.SendEmailOutput{}, nil).Once()

	n := NewNotifier(snsClient, sesClient, createTestConfig(), logger.NewTestLogger(t))
	result, err := n.NotifyMovements(context.Background(), createTestMovements(), 1)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Considered)
	assert.Equal(t, 3, result.Published)
	assert.True(t, result.Emailed)
	require.Len(t, events, 3)
	assert.Equal(t, "c3", events[0].CompanyID)
	assert.Equal(t, "2024-03-15T00:00:00Z", events[0].RecordedAt)
	snsClient.AssertExpectations(t)
	sesClient.AssertExpectations(t)
}

func strPtr(s string) *string { return &s }
