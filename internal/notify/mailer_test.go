package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"keto-planner/internal/logger"
)

type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSubject(t *testing.T) {
	if got := Subject(3); got != "Your Personalized Keto Plan - Week 3" {
		t.Errorf("Unexpected subject %q", got)
	}
}

func TestSESMailer(t *testing.T) {
	client := &mockSES{}
	m := &SESMailer{client: client, from: "plans@example.com", log: logger.Nop()}

	if err := m.SendPlan(context.Background(), "jane@example.com", 1, "Day 1: eggs"); err != nil {
		t.Fatalf("SendPlan failed: %v", err)
	}
	in := client.input
	if aws.ToString(in.Source) != "plans@example.com" {
		t.Errorf("Expected source plans@example.com, got %q", aws.ToString(in.Source))
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "jane@example.com" {
		t.Errorf("Unexpected destination %v", in.Destination.ToAddresses)
	}
	if aws.ToString(in.Message.Subject.Data) != "Your Personalized Keto Plan - Week 1" {
		t.Errorf("Unexpected subject %q", aws.ToString(in.Message.Subject.Data))
	}
	if aws.ToString(in.Message.Body.Text.Data) != "Day 1: eggs" {
		t.Errorf("Unexpected body %q", aws.ToString(in.Message.Body.Text.Data))
	}

	t.Run("error", func(t *testing.T) {
		cause := errors.New("throttled")
		m := &SESMailer{client: &mockSES{err: cause}, from: "x@example.com", log: logger.Nop()}
		if err := m.SendPlan(context.Background(), "a@example.com", 1, ""); !errors.Is(err, cause) {
			t.Errorf("Expected wrapped cause, got %v", err)
		}
	})
}

func TestNewWithoutSenderLogs(t *testing.T) {
	m := New(context.Background(), "", "us-east-1", logger.Nop())
	if _, ok := m.(*LogMailer); !ok {
		t.Fatalf("Expected LogMailer, got %T", m)
	}
	if err := m.SendPlan(context.Background(), "a@example.com", 1, "body"); err != nil {
		t.Errorf("Expected log mailer not to fail, got %v", err)
	}
}
