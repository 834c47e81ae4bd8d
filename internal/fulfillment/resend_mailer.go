package fulfillment

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

const DefaultFromAddress = "noreply@yourdomain.com"

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return NewResendMailerWithClient(resend.NewClient(apiKey), from)
}

// NewResendMailerWithClient allows injecting a client pointed at a test server.
func NewResendMailerWithClient(client *resend.Client, from string) *ResendMailer {
	if from == "" {
		from = DefaultFromAddress
	}
	return &ResendMailer{client: client, from: from}
}

func (m *ResendMailer) SendEmail(ctx context.Context, msg Message) error {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend: empty response")
	}
	return nil
}
