package timetable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jptraining-backend/lib/scrapers/resv"
	"jptraining-backend/lib/telemetry"
	"jptraining-backend/lib/timezone"
	"jptraining-backend/services/notifier"
	"jptraining-backend/services/timetable/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = telemetry.Tracer("jptraining.services.timetable")

const (
	// how far ahead the site is ever expected to publish slots
	syncHorizonDays = 70
	// this many consecutive blank days means the published calendar
	// has run out, not that the site is having a bad day
	maxEmptyDays = 3
)

// SyncError marks a persistence failure during a sync run. The whole
// run is rolled back when one occurs.
type SyncError struct {
	Cause error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("schedule sync failed: %s", e.Cause)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

type SiteConfig struct {
	BaseUrl     string `json:"base_url"`
	Credentials struct {
		LoginID  string `json:"login_id"`
		Password string `json:"password"`
	} `json:"credentials"`
}

type Service struct {
	db      *sql.DB
	qry     *db.Queries
	site    SiteConfig
	limiter *rate.Limiter
}

func NewService(database *sql.DB, site SiteConfig) Service {
	return Service{
		db:   database,
		qry:  db.New(database),
		site: site,
		// pace timetable requests so a 70-day crawl doesn't hammer
		// the site
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

type DateSummary struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Sync walks the timetable forward from today, caching every slot it
// sees. Each run owns a fresh session and a single transaction: all
// rows land together at commit, and any persistence failure rolls the
// whole run back.
func (s Service) Sync(ctx context.Context) ([]DateSummary, error) {
	ctx, span := tracer.Start(ctx, "Sync")
	defer span.End()

	client, err := resv.NewClient(ctx, resv.ClientOptions{BaseUrl: s.site.BaseUrl})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	err = client.Login(ctx, resv.Credentials{
		LoginID:  s.site.Credentials.LoginID,
		Password: s.site.Credentials.Password,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &SyncError{Cause: err}
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	today := timezone.Now()
	emptyDays := 0
	var summary []DateSummary

	for offset := 0; offset < syncHorizonDays; offset++ {
		date := today.AddDate(0, 0, offset)

		err := s.limiter.Wait(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		html, err := client.FetchTimetable(ctx, date)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch timetable")
			return nil, err
		}
		slots, err := resv.ParseTimetable(html)
		if err != nil {
			// a single unparseable day shouldn't sink the run
			slog.WarnContext(ctx, "skipping unparseable timetable day",
				"date", date.Format("2006-01-02"), "err", err)
			continue
		}

		if len(slots) == 0 {
			emptyDays++
			slog.InfoContext(ctx, "no slots published",
				"date", date.Format("2006-01-02"), "empty_days", emptyDays)
			if emptyDays >= maxEmptyDays {
				slog.InfoContext(ctx, "calendar appears exhausted, stopping early")
				break
			}
			continue
		}
		emptyDays = 0

		dateStr := date.Format("2006-01-02")
		for _, slot := range slots {
			err := s.upsertSlot(ctx, txqry, dateStr, slot)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, &SyncError{Cause: err}
			}
		}

		summary = append(summary, DateSummary{Date: dateStr, Count: len(slots)})
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &SyncError{Cause: err}
	}

	span.SetAttributes(attribute.Int("synced_dates", len(summary)))
	return summary, nil
}

// upsertSlot caches one slot row, updating room and remain in place
// when the (date, start, end, room) key already exists. Slots whose
// time label doesn't parse are skipped, not fatal.
func (s Service) upsertSlot(ctx context.Context, txqry *db.Queries, date string, slot resv.Slot) error {
	start, end, ok := normalizeInterval(slot)
	if !ok {
		slog.DebugContext(ctx, "skipping slot with malformed time",
			"date", date, "time", slot.Time)
		return nil
	}

	id, err := txqry.GetScheduleId(ctx, db.GetScheduleIdParams{
		Date:      date,
		Starttime: start,
		Endtime:   end,
		Room:      slot.Room,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return txqry.CreateSchedule(ctx, db.CreateScheduleParams{
			Date:      date,
			Starttime: start,
			Endtime:   end,
			Room:      slot.Room,
			Remain:    int64(slot.Remaining),
		})
	}
	if err != nil {
		return err
	}
	return txqry.UpdateSchedule(ctx, db.UpdateScheduleParams{
		Room:   slot.Room,
		Remain: int64(slot.Remaining),
		ID:     id,
	})
}

// normalizeInterval validates the slot's time label as an ordered pair
// of "HH:MM" clock times and reformats them, so lexical order on the
// stored strings is chronological order.
func normalizeInterval(slot resv.Slot) (string, string, bool) {
	start, end, ok := slot.Interval()
	if !ok {
		return "", "", false
	}
	startTime, err := time.Parse("15:04", start)
	if err != nil {
		return "", "", false
	}
	endTime, err := time.Parse("15:04", end)
	if err != nil {
		return "", "", false
	}
	if !startTime.Before(endTime) {
		return "", "", false
	}
	return startTime.Format("15:04"), endTime.Format("15:04"), true
}

// AvailableSlots returns cached slots with spots left, strictly after
// the given day, ordered by date then start time. It implements the
// notifier's SlotSource.
func (s Service) AvailableSlots(ctx context.Context, after time.Time) ([]notifier.Slot, error) {
	rows, err := s.qry.GetAvailableSchedulesAfter(ctx, after.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	slots := make([]notifier.Slot, len(rows))
	for i, r := range rows {
		slots[i] = notifier.Slot{
			Date:   r.Date,
			Start:  r.Starttime,
			End:    r.Endtime,
			Room:   r.Room,
			Remain: r.Remain,
		}
	}
	return slots, nil
}
