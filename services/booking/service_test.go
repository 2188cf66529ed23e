package booking

import (
	"context"
	"testing"
	"time"

	"jptraining-backend/lib/scrapers/resv/resvtest"
	"jptraining-backend/lib/telemetry"
	"jptraining-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (Service, *resvtest.Site, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/booking")

	site := resvtest.NewSite("student", "secret")
	s := NewService(site.Server.URL)
	return s, site, func() {
		site.Close()
		cleanup()
	}
}

func TestAttemptBooking(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	date := timezone.Now().AddDate(0, 0, 7)
	site.SetTimetable(date.Format("2006-01-02"), []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
	})

	result, err := service.AttemptBooking(context.Background(), Request{
		LoginID:  "student",
		Password: "secret",
		Year:     date.Year(),
		Month:    int(date.Month()),
		Day:      date.Day(),
		Start:    "10:00",
		End:      "11:00",
		Room:     "A",
	})
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Equal(t, 1, site.Completions())
}

func TestAttemptBookingAuthFailed(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	result, err := service.AttemptBooking(context.Background(), Request{
		LoginID:  "student",
		Password: "wrong",
		Month:    9,
		Day:      1,
		Start:    "10:00",
		End:      "11:00",
		Room:     "A",
	})
	require.Error(t, err)
	require.Equal(t, OutcomeAuthFailed, result.Outcome)
}

func TestAttemptBookingNoAvailability(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	date := timezone.Now().AddDate(0, 0, 7)
	site.SetTimetable(date.Format("2006-01-02"), []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 0, DetailID: 1},
	})

	result, err := service.AttemptBooking(context.Background(), Request{
		LoginID:  "student",
		Password: "secret",
		Year:     date.Year(),
		Month:    int(date.Month()),
		Day:      date.Day(),
		Start:    "10:00",
		End:      "11:00",
		Room:     "A",
	})
	require.Error(t, err)
	require.Equal(t, OutcomeNoAvailability, result.Outcome)
}

func TestAttemptBookingUnknownResult(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	date := timezone.Now().AddDate(0, 0, 7)
	site.SetTimetable(date.Format("2006-01-02"), []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
	})
	site.FailCompletion()

	result, err := service.AttemptBooking(context.Background(), Request{
		LoginID:  "student",
		Password: "secret",
		Year:     date.Year(),
		Month:    int(date.Month()),
		Day:      date.Day(),
		Start:    "10:00",
		End:      "11:00",
		Room:     "A",
	})
	require.Error(t, err)
	require.Equal(t, OutcomeError, result.Outcome)
}

func TestRequestDateDefaultsToCurrentYear(t *testing.T) {
	req := Request{Month: 9, Day: 1}
	require.Equal(t, timezone.Now().Year(), req.date().Year())
	require.Equal(t, time.September, req.date().Month())

	req.Year = 2030
	require.Equal(t, 2030, req.date().Year())
}
