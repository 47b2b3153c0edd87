// Package notify delivers generated plans by email.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"keto-planner/internal/logger"
)

// Mailer sends a plan email.
type Mailer interface {
	SendPlan(ctx context.Context, to string, week int, body string) error
}

// Subject returns the plan email subject for a week number.
func Subject(week int) string {
	return fmt.Sprintf("Your Personalized Keto Plan - Week %d", week)
}

// LogMailer only logs what would have been sent.
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendPlan logs the email.
func (m *LogMailer) SendPlan(ctx context.Context, to string, week int, body string) error {
	m.log.Info("Plan email (not sent)", "to", to, "subject", Subject(week), "body_bytes", len(body))
	return nil
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends plain text email through AWS SES.
type SESMailer struct {
	client sesAPI
	from   string
	log    *logger.Logger
}

// NewSESMailer loads the default AWS configuration for region.
func NewSESMailer(ctx context.Context, region, from string, log *logger.Logger) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), from: from, log: log}, nil
}

// SendPlan sends the plan as a plain text email.
func (m *SESMailer) SendPlan(ctx context.Context, to string, week int, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(Subject(week)), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(m.from),
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	m.log.Info("Plan email sent", "to", to, "message_id", aws.ToString(out.MessageId))
	return nil
}

// New picks the SES sender when a sender address is configured and falls
// back to logging otherwise.
func New(ctx context.Context, from, region string, log *logger.Logger) Mailer {
	if from == "" {
		return NewLogMailer(log)
	}
	m, err := NewSESMailer(ctx, region, from, log)
	if err != nil {
		log.Warn("SES unavailable, plan emails will only be logged", "error", err)
		return NewLogMailer(log)
	}
	return m
}
