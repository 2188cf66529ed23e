package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"jptraining-backend/lib/telemetry"
	"jptraining-backend/lib/timezone"
	"jptraining-backend/services/notifier"
	"jptraining-backend/services/subscription/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("jptraining.services.subscription")

var (
	ErrAlreadySubscribed = fmt.Errorf("email is already subscribed")
	ErrNotSubscribed     = fmt.Errorf("email is not subscribed")
)

const welcomeSubject = "Thanks for Subscribing to JP Training!"

type Service struct {
	db     *sql.DB
	qry    *db.Queries
	mailer notifier.Sender
	// public base of the subscriber-facing site for unsubscribe links
	siteBaseURL string
}

func NewService(database *sql.DB, mailer notifier.Sender, siteBaseURL string) Service {
	return Service{
		db:          database,
		qry:         db.New(database),
		mailer:      mailer,
		siteBaseURL: siteBaseURL,
	}
}

func normalizeEmail(email string) string {
	return strings.Trim(strings.ToLower(email), " \t\n")
}

func (s Service) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", s.siteBaseURL, url.QueryEscape(token))
}

// Subscribe registers the address and sends the welcome mail carrying
// its unsubscribe link. A failed welcome send surfaces as an error so
// the caller knows the address may be unreachable.
func (s Service) Subscribe(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Subscribe")
	defer span.End()

	email = normalizeEmail(email)
	span.SetAttributes(attribute.String("email", email))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.CreateSubscriber(ctx, db.CreateSubscriberParams{
		Email:     email,
		CreatedAt: timezone.Now().Unix(),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			span.SetStatus(codes.Error, ErrAlreadySubscribed.Error())
			return ErrAlreadySubscribed
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert subscriber")
		return err
	}

	token, err := random.String(24)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate unsubscribe token")
		return err
	}
	err = txqry.CreateUnsubscribeToken(ctx, db.CreateUnsubscribeTokenParams{
		Token: token,
		Email: email,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store unsubscribe token")
		return err
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := notifier.RenderWelcome(s.unsubscribeURL(token))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render welcome email")
		return err
	}
	err = s.mailer.Send(email, welcomeSubject, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send welcome email")
		return err
	}

	return nil
}

// Unsubscribe removes the address and its tokens.
func (s Service) Unsubscribe(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Unsubscribe")
	defer span.End()

	email = normalizeEmail(email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	deleted, err := txqry.DeleteSubscriber(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete subscriber")
		return err
	}
	if deleted == 0 {
		span.SetStatus(codes.Error, ErrNotSubscribed.Error())
		return ErrNotSubscribed
	}
	err = txqry.DeleteTokensForEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete unsubscribe tokens")
		return err
	}

	return tx.Commit()
}

// UnsubscribeByToken resolves a mailed unsubscribe link back to its
// address and removes it.
func (s Service) UnsubscribeByToken(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "UnsubscribeByToken")
	defer span.End()

	email, err := s.qry.GetEmailFromToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, ErrNotSubscribed.Error())
		return ErrNotSubscribed
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve unsubscribe token")
		return err
	}
	return s.Unsubscribe(ctx, email)
}

func (s Service) List(ctx context.Context) ([]db.Subscriber, error) {
	return s.qry.ListSubscribers(ctx)
}

// Recipients implements the notifier's RecipientSource. Subscribers
// without a stored token (rows predating token support) still get the
// digest, just with a tokenless unsubscribe link.
func (s Service) Recipients(ctx context.Context) ([]notifier.Recipient, error) {
	subscribers, err := s.qry.ListSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	recipients := make([]notifier.Recipient, 0, len(subscribers))
	for _, sub := range subscribers {
		token, err := s.qry.GetTokenForEmail(ctx, sub.Email)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("subscriber has no unsubscribe token", "email", sub.Email)
		}
		recipients = append(recipients, notifier.Recipient{
			Email:            sub.Email,
			UnsubscribeToken: token,
		})
	}
	return recipients, nil
}
