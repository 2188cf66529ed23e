package timetable

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"jptraining-backend/lib/scrapers/resv"
	"jptraining-backend/lib/scrapers/resv/resvtest"
	"jptraining-backend/lib/telemetry"
	"jptraining-backend/lib/timezone"
	"jptraining-backend/services/timetable/db"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (Service, *resvtest.Site, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/timetable")

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}

	site := resvtest.NewSite("student", "secret")
	config := SiteConfig{BaseUrl: site.Server.URL}
	config.Credentials.LoginID = "student"
	config.Credentials.Password = "secret"

	s := NewService(sqlite, config)
	return s, site, func() {
		site.Close()
		cleanup()
	}
}

func allSchedules(t testing.TB, s Service) []db.Schedule {
	rows, err := s.qry.GetAvailableSchedulesAfter(context.Background(), "0000-00-00")
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestSync(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	today := timezone.Now()
	day0 := today.Format("2006-01-02")
	day1 := today.AddDate(0, 0, 1).Format("2006-01-02")
	site.SetTimetable(day0, []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
		{Time: "11:00-12:00", Room: "B", Remaining: 2, DetailID: 2},
	})
	site.SetTimetable(day1, []resvtest.Slot{
		{Time: "09:00-10:00", Room: "A", Remaining: 1, DetailID: 3},
	})

	summary, err := service.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// days past day1 are blank, so the walk stops early and only
	// the populated days make the summary
	require.Equal(t, []DateSummary{
		{Date: day0, Count: 2},
		{Date: day1, Count: 1},
	}, summary)

	rows := allSchedules(t, service)
	require.Len(t, rows, 3)
	require.Equal(t, day0, rows[0].Date)
	require.Equal(t, "10:00", rows[0].Starttime)
	require.Equal(t, "11:00", rows[0].Endtime)
	require.Equal(t, "A", rows[0].Room)
	require.Equal(t, int64(3), rows[0].Remain)
}

func TestSyncResetsEmptyDayCounter(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	// two blank days, then a populated one: the counter resets and
	// the walk keeps going past the gap
	today := timezone.Now()
	day0 := today.Format("2006-01-02")
	day3 := today.AddDate(0, 0, 3).Format("2006-01-02")
	site.SetTimetable(day0, []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
	})
	site.SetTimetable(day3, []resvtest.Slot{
		{Time: "09:00-10:00", Room: "B", Remaining: 2, DetailID: 2},
	})

	summary, err := service.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []DateSummary{
		{Date: day0, Count: 1},
		{Date: day3, Count: 1},
	}, summary)
	require.Len(t, allSchedules(t, service), 2)
}

func TestSyncUpsertsExistingRows(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	day0 := timezone.Now().Format("2006-01-02")
	site.SetTimetable(day0, []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
	})
	_, err := service.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// someone books the slot between runs
	site.SetTimetable(day0, []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 2, DetailID: 1},
	})
	_, err = service.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}

	rows := allSchedules(t, service)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0].Remain)
}

func TestSyncBadCredentials(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	service.site.Credentials.Password = "wrong"

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := service.Sync(ctx)
	require.ErrorIs(t, err, resv.ErrAuthentication)
}

func TestSyncSkipsMalformedTimeLabels(t *testing.T) {
	service, site, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	day0 := timezone.Now().Format("2006-01-02")
	site.SetTimetable(day0, []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
		{Time: "not a time", Room: "B", Remaining: 2, DetailID: 2},
	})

	summary, err := service.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// the malformed block still counts as seen, it just caches
	// nothing
	require.Equal(t, []DateSummary{{Date: day0, Count: 2}}, summary)
	require.Len(t, allSchedules(t, service), 1)
}

func TestAvailableSlots(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	seed := []db.CreateScheduleParams{
		{Date: "2026-09-01", Starttime: "10:00", Endtime: "11:00", Room: "A", Remain: 3},
		{Date: "2026-09-02", Starttime: "09:00", Endtime: "10:00", Room: "B", Remain: 0},
		{Date: "2026-09-03", Starttime: "13:00", Endtime: "14:00", Room: "A", Remain: 1},
	}
	for _, params := range seed {
		err := service.qry.CreateSchedule(ctx, params)
		if err != nil {
			t.Fatal(err)
		}
	}

	slots, err := service.AvailableSlots(ctx, timezone.Date(2026, 9, 1))
	if err != nil {
		t.Fatal(err)
	}

	// the full slot and everything on or before the cutoff day are
	// filtered out
	require.Len(t, slots, 1)
	require.Equal(t, "2026-09-03", slots[0].Date)
	require.Equal(t, "13:00", slots[0].Start)
	require.Equal(t, "14:00", slots[0].End)
	require.Equal(t, "A", slots[0].Room)
	require.Equal(t, int64(1), slots[0].Remain)
}

func TestNormalizeInterval(t *testing.T) {
	start, end, ok := normalizeInterval(resv.Slot{Time: "9:00-10:00"})
	require.True(t, ok)
	require.Equal(t, "09:00", start)
	require.Equal(t, "10:00", end)

	_, _, ok = normalizeInterval(resv.Slot{Time: "?"})
	require.False(t, ok)

	_, _, ok = normalizeInterval(resv.Slot{Time: "self-study"})
	require.False(t, ok)

	// inverted intervals never persist
	_, _, ok = normalizeInterval(resv.Slot{Time: "11:00-10:00"})
	require.False(t, ok)
}
