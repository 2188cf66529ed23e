package resv

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// value of the submit button that advances the multi-step reservation
// workflow, as rendered by the site
const proceedMarker = "Proceed to the next"

// the final page announces success only through this copy, in either
// locale the site serves
var completionMarkers = []string{"予約完了", "Reservation Complete"}

type ReservationRequest struct {
	Date time.Time
	// "HH:MM" bounds; the first slot whose interval fits inside
	// them is taken
	Start string
	End   string
	Room  string
}

// Reserve runs the whole booking workflow: login, timetable fetch,
// slot selection, then the two chained form submissions the site
// requires. Every step fails fast and nothing is retried — the site
// has no idempotency key, so replaying a partially submitted
// reservation blindly could double-book.
func (c *Client) Reserve(ctx context.Context, creds Credentials, req ReservationRequest) error {
	ctx, span := tracer.Start(ctx, "client:Reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", req.Date.Format("2006-01-02")),
		attribute.String("start", req.Start),
		attribute.String("end", req.End),
		attribute.String("room", req.Room),
	)

	err := c.Login(ctx, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return err
	}

	html, err := c.FetchTimetable(ctx, req.Date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch timetable")
		return err
	}
	slots, err := ParseTimetable(html)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse timetable")
		return err
	}

	slot, ok := SelectSlot(slots, req)
	if !ok {
		span.SetStatus(codes.Error, ErrNoAvailability.Error())
		return ErrNoAvailability
	}
	slog.DebugContext(ctx, "selected slot",
		"time", slot.Time, "room", slot.Room, "remaining", slot.Remaining)

	detailRef, err := url.Parse(slot.DetailURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "slot carries an invalid detail link")
		return err
	}
	detailURL := c.CalendarURL().ResolveReference(detailRef).String()

	intermediate, err := c.RelayForm(ctx, detailURL, proceedMarker, map[string]string{
		"submit": proceedMarker,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit detail form")
		return err
	}

	confirmURL, err := ExtractFormAction(intermediate.Body, intermediate.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrProtocol.Error())
		return ErrProtocol
	}

	final, err := c.RelayForm(ctx, confirmURL, "", map[string]string{
		"submit1": "complete",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit confirmation form")
		return err
	}

	body := string(final.Body)
	for _, marker := range completionMarkers {
		if strings.Contains(body, marker) {
			return nil
		}
	}
	span.SetStatus(codes.Error, "completion marker missing from final page")
	return &UnknownResultError{HTML: body}
}

// SelectSlot picks the first slot in document order that is in the
// requested room, fits inside the requested window and still has
// spots left. Times are fixed-width "HH:MM" so plain string order is
// chronological order.
func SelectSlot(slots []Slot, req ReservationRequest) (Slot, bool) {
	for _, slot := range slots {
		start, end, ok := slot.Interval()
		if !ok {
			continue
		}
		if slot.Room != req.Room {
			continue
		}
		if start < req.Start || end > req.End {
			continue
		}
		if slot.Remaining <= 0 {
			continue
		}
		return slot, true
	}
	return Slot{}, false
}
