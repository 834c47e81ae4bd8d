// services/storefront-service/internal/fulfillment/notifier.go
package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
)

var ErrInvalidDelivery = errors.New("delivery is missing recipient or download link")

// Delivery is everything needed to hand a buyer their download.
// It is also the JSON job body on the fulfillment queue.
type Delivery struct {
	To              string `json:"to"`
	BuyerName       string `json:"buyer_name,omitempty"`
	ProductTitle    string `json:"product_title"`
	FileURL         string `json:"file_url"`
	PaymentID       string `json:"payment_id"`
	ProviderOrderID string `json:"provider_order_id"`
}

func (d Delivery) Validate() error {
	if d.To == "" || d.FileURL == "" {
		return ErrInvalidDelivery
	}
	return nil
}

// Notifier is best effort. Callers log errors and move on.
type Notifier interface {
	Send(ctx context.Context, d Delivery) error
}

// Message is the structured email handed to a Mailer.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	SendEmail(ctx context.Context, msg Message) error
}

var bodyTemplate = template.Must(template.New("delivery").Parse(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #111;">Thank you for your purchase!</h2>
  <p>Hi {{.Name}},</p>
  <p>You've successfully purchased <strong>{{.Title}}</strong>.</p>
  <p style="margin: 24px 0;">
    <a href="{{.FileURL}}" style="background: #111; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none; font-weight: bold;">Download your file</a>
  </p>
  <p style="color: #888; font-size: 14px;">Payment ID: {{.PaymentID}}</p>
  <p style="color: #888; font-size: 14px;">If you have any issues, reply to this email.</p>
</div>`))

// RenderMessage builds the download email. Buyer supplied values are escaped.
func RenderMessage(d Delivery) (Message, error) {
	if err := d.Validate(); err != nil {
		return Message{}, err
	}
	name := d.BuyerName
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Name, Title, PaymentID string
		FileURL                template.URL
	}{
		Name:      name,
		Title:     d.ProductTitle,
		PaymentID: d.PaymentID,
		// file urls come from our own catalog, not from the buyer
		FileURL: template.URL(d.FileURL),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render delivery email: %w", err)
	}
	return Message{
		To:      d.To,
		Subject: "Your purchase: " + d.ProductTitle,
		HTML:    buf.String(),
	}, nil
}

// MailNotifier renders and mails synchronously.
type MailNotifier struct {
	mailer Mailer
	logger *slog.Logger
}

func NewMailNotifier(mailer Mailer, logger *slog.Logger) *MailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailNotifier{mailer: mailer, logger: logger.With("component", "mail_notifier")}
}

func (n *MailNotifier) Send(ctx context.Context, d Delivery) error {
	msg, err := RenderMessage(d)
	if err != nil {
		return err
	}
	if err := n.mailer.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("send delivery email to buyer: %w", err)
	}
	n.logger.Info("delivery email sent", "provider_order_id", d.ProviderOrderID)
	return nil
}
