package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
}

// the booking site renders its calendar in JST; pinning the timezone
// keeps date arithmetic correct no matter where the server runs
func Now() time.Time {
	return time.Now().In(Location)
}

// Date returns midnight of the given calendar day in the site's timezone.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}
