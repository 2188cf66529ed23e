package resv_test

import (
	"context"
	"errors"
	"testing"

	"jptraining-backend/lib/scrapers/resv"
	"jptraining-backend/lib/scrapers/resv/resvtest"
	"jptraining-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	client, _, cleanup := setupSite(t)
	defer cleanup()

	err := client.Login(context.Background(), resv.Credentials{
		LoginID:  "student",
		Password: "secret",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLoginBadPassword(t *testing.T) {
	client, _, cleanup := setupSite(t)
	defer cleanup()

	err := client.Login(context.Background(), resv.Credentials{
		LoginID:  "student",
		Password: "wrong",
	})
	require.True(t, errors.Is(err, resv.ErrAuthentication))
}

func TestFetchTimetable(t *testing.T) {
	client, site, cleanup := setupSite(t)
	defer cleanup()

	site.SetTimetable("2026-09-02", []resvtest.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailID: 1},
	})

	err := client.Login(context.Background(), resv.Credentials{
		LoginID:  "student",
		Password: "secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	html, err := client.FetchTimetable(context.Background(), timezone.Date(2026, 9, 2))
	if err != nil {
		t.Fatal(err)
	}

	slots, err := resv.ParseTimetable(html)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, []resv.Slot{
		{Time: "10:00-11:00", Room: "A", Remaining: 3, DetailURL: "detail.php?id=1"},
	}, slots)
}

func TestFetchTimetableWithoutSession(t *testing.T) {
	client, _, cleanup := setupSite(t)
	defer cleanup()

	// no login first; the site answers the XHR with an error status
	_, err := client.FetchTimetable(context.Background(), timezone.Date(2026, 9, 2))

	var fetchErr *resv.FetchError
	require.True(t, errors.As(err, &fetchErr))
}
