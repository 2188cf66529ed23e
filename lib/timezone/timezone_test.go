package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	d := Date(2026, time.September, 1)
	require.Equal(t, "2026-09-01", d.Format("2006-01-02"))
	require.Equal(t, "Asia/Tokyo", d.Location().String())
	require.Equal(t, 0, d.Hour())
}

func TestNowIsPinned(t *testing.T) {
	require.Equal(t, "Asia/Tokyo", Now().Location().String())
}
