package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"jptraining-backend/lib/telemetry"
	"jptraining-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("jptraining.services.notifier")

const digestSubject = "JP Training - Available Slots Notification"

// SlotSource yields the cached slots with spots left strictly after
// the given day.
type SlotSource interface {
	AvailableSlots(ctx context.Context, after time.Time) ([]Slot, error)
}

type Recipient struct {
	Email            string
	UnsubscribeToken string
}

// RecipientSource yields everyone who asked to hear about open slots.
type RecipientSource interface {
	Recipients(ctx context.Context) ([]Recipient, error)
}

type Options struct {
	Smtp SmtpConfig `json:"smtp"`
	// public base of the subscriber-facing site, used to build
	// unsubscribe links
	SiteBaseURL string `json:"site_base_url"`
}

type Service struct {
	mailer     Sender
	slots      SlotSource
	recipients RecipientSource
	config     Options
}

func NewService(slots SlotSource, recipients RecipientSource, config Options) Service {
	return Service{
		mailer:     NewMailer(config.Smtp),
		slots:      slots,
		recipients: recipients,
		config:     config,
	}
}

func (s Service) UnsubscribeURL(token string) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", s.config.SiteBaseURL, url.QueryEscape(token))
}

// NotifySubscribers mails the digest of open slots to every
// subscriber. Per-recipient delivery failures are logged and skipped,
// never retried; one bounced mailbox must not starve the rest of the
// list.
func (s Service) NotifySubscribers(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "NotifySubscribers")
	defer span.End()

	// only announce slots beyond tomorrow, same-day leftovers are
	// not worth a mail
	after := timezone.Now().AddDate(0, 0, 1)
	slots, err := s.slots.AvailableSlots(ctx, after)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load available slots")
		return err
	}
	span.SetAttributes(attribute.Int("available_slots", len(slots)))
	if len(slots) == 0 {
		slog.InfoContext(ctx, "no available slots, skipping notification run")
		return nil
	}

	recipients, err := s.recipients.Recipients(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load subscribers")
		return err
	}
	slog.InfoContext(ctx, "sending slot digest",
		"slots", len(slots), "recipients", len(recipients))

	for _, r := range recipients {
		body, err := RenderDigest(slots, s.UnsubscribeURL(r.UnsubscribeToken))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to render digest")
			return err
		}
		err = s.mailer.Send(r.Email, digestSubject, body)
		if err != nil {
			slog.ErrorContext(ctx, "failed to send notification",
				"email", r.Email, "err", err)
			continue
		}
		slog.InfoContext(ctx, "notification sent", "email", r.Email)
	}

	return nil
}
