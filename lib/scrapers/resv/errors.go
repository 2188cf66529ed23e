package resv

import "fmt"

var (
	// the login verification page still shows the login prompt
	ErrAuthentication = fmt.Errorf("Failed to log in to the reservation site.")
	// no slot satisfies the requested room/time window with spots left
	ErrNoAvailability = fmt.Errorf("no available slot matches the requested time and room")
	// the page that should carry a form has none
	ErrNoFormFound = fmt.Errorf("no form found in page")
	// the site returned a page whose shape no longer matches the
	// reservation workflow
	ErrProtocol = fmt.Errorf("could not extract the confirmation form from the reservation page")
)

type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// UnknownResultError carries the final reservation page verbatim. The
// site reports completion only through locale-dependent copy, so when
// the marker is missing the raw HTML is the only diagnostic there is.
type UnknownResultError struct {
	HTML string
}

func (e *UnknownResultError) Error() string {
	return "reservation result page carries no completion marker"
}
