// Package dispatcher fans a verification alert out to the configured
// operator channels. Every channel is best effort: a failed send is logged
// and swallowed so notification trouble can never block the automation run
// or the record lifecycle.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-autopost/internal/domain"
	"github.com/go-autopost/internal/infrastructure/smtp"
	"github.com/go-autopost/internal/infrastructure/sns"
	"github.com/go-autopost/internal/infrastructure/webhook"
)

// Channel is one delivery target for a verification alert.
type Channel interface {
	Name() string
	Send(ctx context.Context, v *domain.VerificationRequest) error
}

type Dispatcher struct {
	channels []Channel
}

func New(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Dispatch delivers the alert on every channel concurrently and waits for
// all of them. Errors are logged per channel and never propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, v *domain.VerificationRequest) {
	var wg sync.WaitGroup
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, v); err != nil {
				slog.Error("verification alert failed", "channel", ch.Name(), "id", v.VerificationID, "err", err)
				return
			}
			slog.Info("verification alert sent", "channel", ch.Name(), "id", v.VerificationID)
		}(ch)
	}
	wg.Wait()
}

// WebhookChannel posts the alert to an HTTP endpoint.
type WebhookChannel struct {
	Notifier *webhook.Notifier
}

func (c WebhookChannel) Name() string { return "webhook" }

func (c WebhookChannel) Send(ctx context.Context, v *domain.VerificationRequest) error {
	return c.Notifier.Notify(ctx, v)
}

// SMSChannel raises the alert as a text message via SNS.
type SMSChannel struct {
	Sender sns.SMSSender
	To     string
}

func (c SMSChannel) Name() string { return "sms" }

func (c SMSChannel) Send(ctx context.Context, v *domain.VerificationRequest) error {
	msg := fmt.Sprintf("Verification required for %s (request %s). Open the admin dashboard to resolve it.",
		v.Metadata["account"], v.VerificationID)
	return c.Sender.SendSMS(ctx, c.To, msg)
}

// EmailChannel raises the alert by email.
type EmailChannel struct {
	Mailer smtp.Mailer
	To     string
}

func (c EmailChannel) Name() string { return "email" }

func (c EmailChannel) Send(_ context.Context, v *domain.VerificationRequest) error {
	subject := fmt.Sprintf("Verification required: %s", v.VerificationID)
	body := fmt.Sprintf(
		"A login challenge is waiting for a verification code.\r\n\r\nRequest: %s\r\nAccount: %s\r\nCreated: %s\r\n",
		v.VerificationID, v.Metadata["account"], v.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return c.Mailer.SendEmail(c.To, subject, body)
}
