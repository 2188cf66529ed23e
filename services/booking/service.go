package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"jptraining-backend/lib/scrapers/resv"
	"jptraining-backend/lib/telemetry"
	"jptraining-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("jptraining.services.booking")

// Request carries everything one booking attempt needs. It is
// immutable for the run; the embedded credentials let users book with
// their own account rather than the sync account.
type Request struct {
	LoginID  string `json:"login_id" binding:"required"`
	Password string `json:"login_pw" binding:"required"`
	Year     int    `json:"year"`
	Month    int    `json:"month" binding:"required"`
	Day      int    `json:"day" binding:"required"`
	Start    string `json:"start_time" binding:"required"`
	End      string `json:"end_time" binding:"required"`
	Room     string `json:"room" binding:"required"`
}

func (r Request) date() time.Time {
	year := r.Year
	if year == 0 {
		year = timezone.Now().Year()
	}
	return timezone.Date(year, time.Month(r.Month), r.Day)
}

// Outcome classifies how an attempt ended, so the API layer can map
// it onto a sensible status code without string-matching messages.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAuthFailed
	OutcomeNoAvailability
	OutcomeError
)

type Result struct {
	Outcome Outcome
	Message string
}

type Service struct {
	baseUrl string
}

func NewService(baseUrl string) Service {
	return Service{baseUrl: baseUrl}
}

// AttemptBooking runs one reservation attempt with a fresh session.
// Exactly one terminal outcome comes back for any input; an ambiguous
// final page is reported as an error, never as success.
func (s Service) AttemptBooking(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "AttemptBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("room", req.Room),
		attribute.String("start", req.Start),
		attribute.String("end", req.End),
	)

	client, err := resv.NewClient(ctx, resv.ClientOptions{BaseUrl: s.baseUrl})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Outcome: OutcomeError, Message: err.Error()}, err
	}

	err = client.Reserve(ctx,
		resv.Credentials{LoginID: req.LoginID, Password: req.Password},
		resv.ReservationRequest{
			Date:  req.date(),
			Start: req.Start,
			End:   req.End,
			Room:  req.Room,
		},
	)
	if err == nil {
		return Result{Outcome: OutcomeSuccess, Message: "Booking successful"}, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var unknown *resv.UnknownResultError
	switch {
	case errors.Is(err, resv.ErrAuthentication):
		return Result{Outcome: OutcomeAuthFailed, Message: "Login failed"}, err
	case errors.Is(err, resv.ErrNoAvailability):
		return Result{Outcome: OutcomeNoAvailability, Message: "No available slots for selected time and room"}, err
	case errors.As(err, &unknown):
		// the site's completion copy is the only success signal
		// there is; keep the page for whoever has to diagnose it
		slog.ErrorContext(ctx, "reservation ended ambiguously", "html", unknown.HTML)
		return Result{Outcome: OutcomeError, Message: unknown.Error()}, err
	default:
		return Result{Outcome: OutcomeError, Message: err.Error()}, err
	}
}
