// internal/alerts/notifier.go
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/template"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"ranking-workers/internal/common/aws"
	"ranking-workers/internal/common/errors"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/metrics"
	"ranking-workers/internal/models"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

type Config struct {
	Threshold   float64
	TopicARN    string
	FromEmail   string
	Recipients  []string
	SNSEnabled  bool
	SESEnabled  bool
	SubjectLine string
}

// Notifier announces large overall-score movements over SNS and SES.
type Notifier struct {
	sns    aws.SNSAPI
	ses    aws.SESAPI
	cfg    Config
	logger logger.Logger
}

type Result struct {
	Considered int      `json:"considered"`
	Published  int      `json:"published"`
	Emailed    bool     `json:"emailed"`
	MessageIDs []string `json:"messageIds,omitempty"`
}

// movementEvent is the SNS message body.
type movementEvent struct {
	EventID       string  `json:"eventId"`
	Type          string  `json:"type"`
	CompanyID     string  `json:"companyId"`
	CompanyName   string  `json:"companyName"`
	PreviousScore float64 `json:"previousScore"`
	CurrentScore  float64 `json:"currentScore"`
	Delta         float64 `json:"delta"`
	RecordedAt    string  `json:"recordedAt"`
}

var digestTemplate = template.Must(template.New("digest").Parse(
	`Ranking score movements of at least {{.Threshold}} points:
{{range .Movements}}
- {{.CompanyName}} ({{.CompanyID}}): {{printf "%.1f" .PreviousScore}} -> {{printf "%.1f" .CurrentScore}} ({{printf "%+.1f" .Delta}})
{{- end}}
`))

func NewNotifier(snsClient aws.SNSAPI, sesClient aws.SESAPI, cfg Config, log logger.Logger) *Notifier {
	if cfg.SubjectLine == "" {
		cfg.SubjectLine = "Company ranking movements"
	}
	return &Notifier{sns: snsClient, ses: sesClient, cfg: cfg, logger: log}
}

// NotifyMovements publishes one SNS message per movement with |delta| at or
// above threshold and one email digest listing all of them. A threshold <= 0
// falls back to the configured one. A channel is skipped when disabled or
// when its client is nil.
func (n *Notifier) NotifyMovements(ctx context.Context, movements []models.ScoreMovement, threshold float64) (*Result, error) {
	if threshold <= 0 {
		threshold = n.cfg.Threshold
	}
	significant := filterSignificant(movements, threshold)
	result := &Result{Considered: len(movements)}
	if len(significant) == 0 {
		return result, nil
	}

	var errs error
	if n.cfg.SNSEnabled && n.sns != nil {
		for _, m := range significant {
			id, err := n.publish(ctx, m)
			if err != nil {
				errs = multierr.Append(errs, errors.NewAlertFailedError(ChannelSNS, err))
				continue
			}
			result.Published++
			result.MessageIDs = append(result.MessageIDs, id)
		}
		metrics.RankingAlertsPublished.WithLabelValues(ChannelSNS).Add(float64(result.Published))
	}

	if n.cfg.SESEnabled && n.ses != nil && len(n.cfg.Recipients) > 0 {
		if err := n.email(ctx, significant, threshold); err != nil {
			errs = multierr.Append(errs, errors.NewAlertFailedError(ChannelSES, err))
		} else {
			result.Emailed = true
			metrics.RankingAlertsPublished.WithLabelValues(ChannelSES).Inc()
		}
	}

	n.logger.Info("ranking movements notified", map[string]interface{}{
		"considered": result.Considered,
		"alerted":    len(significant),
		"published":  result.Published,
		"emailed":    result.Emailed,
	})
	return result, errs
}

// filterSignificant keeps movements with |delta| >= threshold, largest first.
func filterSignificant(movements []models.ScoreMovement, threshold float64) []models.ScoreMovement {
	out := make([]models.ScoreMovement, 0, len(movements))
	for _, m := range movements {
		if math.Abs(m.Delta) >= threshold {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Delta) > math.Abs(out[j].Delta)
	})
	return out
}

func (n *Notifier) publish(ctx context.Context, m models.ScoreMovement) (string, error) {
	event := movementEvent{
		EventID:       uuid.NewString(),
		Type:          "ranking.score_moved",
		CompanyID:     m.CompanyID,
		CompanyName:   m.CompanyName,
		PreviousScore: m.PreviousScore,
		CurrentScore:  m.CurrentScore,
		Delta:         m.Delta,
		RecordedAt:    m.RecordedAt.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	direction := "up"
	if m.Delta < 0 {
		direction = "down"
	}
	out, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: sdkaws.String(n.cfg.TopicARN),
		Message:  sdkaws.String(string(body)),
		Subject:  sdkaws.String(fmt.Sprintf("%s moved %s", truncate(m.CompanyName, 60), direction)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"companyId": {DataType: sdkaws.String("String"), StringValue: sdkaws.String(m.CompanyID)},
			"direction": {DataType: sdkaws.String("String"), StringValue: sdkaws.String(direction)},
		},
	})
	if err != nil {
		return "", err
	}
	if out != nil && out.MessageId != nil {
		return *out.MessageId, nil
	}
	return event.EventID, nil
}

func (n *Notifier) email(ctx context.Context, movements []models.ScoreMovement, threshold float64) error {
	var body strings.Builder
	data := struct {
		Threshold float64
		Movements []models.ScoreMovement
	}{threshold, movements}
	if err := digestTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:      sdkaws.String(n.cfg.FromEmail),
		Destination: &sestypes.Destination{ToAddresses: n.cfg.Recipients},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: sdkaws.String(n.cfg.SubjectLine), Charset: sdkaws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: sdkaws.String(body.String()), Charset: sdkaws.String("UTF-8")},
			},
		},
	})
	return err
}

// SNS subjects are limited to 100 characters.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
