package resv

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"jptraining-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

// Slot is one bookable interval on a day-view timetable page.
type Slot struct {
	// raw time label, "HH:MM-HH:MM", or "?" when the block carried
	// no recognizable time text
	Time      string
	Room      string
	Remaining int
	// relative link to the slot's reservation detail page, empty for
	// slots that cannot be booked from the timetable
	DetailURL string
}

// Interval splits the time label into its start and end pieces. ok is
// false for labels without a '-' separator.
func (s Slot) Interval() (start, end string, ok bool) {
	before, after, found := strings.Cut(s.Time, "-")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(before), strings.TrimSpace(after), true
}

// FetchTimetable requests the rendered day view for the given date.
// The endpoint only answers requests that look like the calendar
// page's own XHR, hence the referer and X-Requested-With headers and
// the cache-busting timestamp.
func (c *Client) FetchTimetable(ctx context.Context, date time.Time) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:FetchTimetable")
	defer span.End()
	span.SetAttributes(attribute.String("date", date.Format("2006-01-02")))

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"view_mode":   "day",
			"view_list":   "0",
			"relation_mp": "1",
			"cur_year":    strconv.Itoa(date.Year()),
			"cur_month":   strconv.Itoa(int(date.Month())),
			"cur_day":     strconv.Itoa(date.Day()),
			"cur_mp_id":   "0",
			"_":           strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		SetHeader("Referer", c.CalendarURL().String()).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		Get(timetablePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch timetable")
		return nil, err
	}
	if !res.IsSuccess() {
		err := &FetchError{StatusCode: res.StatusCode(), URL: res.Request.URL}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return res.Body(), nil
}

// ParseTimetable extracts every slot from a day-view page in document
// order. Blocks are parsed independently: a malformed block yields a
// degraded slot ("?" time, zero remaining) instead of aborting the
// rest of the page.
func ParseTimetable(html []byte) ([]Slot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var slots []Slot
	doc.Find("div.time-line, div.lesson").Each(func(_ int, block *goquery.Selection) {
		// the two block classes nest on some layouts; only parse
		// the outermost match so a slot is not reported twice
		if block.ParentsFiltered("div.time-line, div.lesson").Length() > 0 {
			return
		}

		slot := Slot{Time: "?"}

		timeLink := block.Find("li.data-week-info a").First()
		if timeLink.Length() > 0 {
			node := timeLink.Nodes[0]
			slot.Time = timeLabel(node)
			slot.DetailURL = htmlutil.GetAttr(node, "href")
		}

		roomLink := block.Find("li.data-week-mp-name a").First()
		if roomLink.Length() > 0 {
			slot.Room = strings.TrimSpace(roomLink.Text())
		}

		remainSpan := block.Find("span.zannsu").First()
		if remainSpan.Length() > 0 {
			slot.Remaining = digitsIn(remainSpan.Text())
		}

		slots = append(slots, slot)
	})

	return slots, nil
}

// timeLabel recovers the "HH:MM-HH:MM" text from the time anchor. The
// markup varies: some layouts put the range in a direct text fragment
// of the anchor, others bury it under child elements, in which case
// the last line containing a '-' wins.
func timeLabel(node *html.Node) string {
	label := "?"
	for _, fragment := range htmlutil.DirectTextFragments(node) {
		if strings.Contains(fragment, "-") {
			label = strings.TrimSpace(fragment)
		}
	}
	if label != "?" {
		return label
	}

	text := strings.Join(htmlutil.TextFragments(node), "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "-") {
			label = line
		}
	}
	return label
}

// digitsIn concatenates all digit runes in the text and parses the
// result, so "3 spots" and "残り3" both come out as 3.
func digitsIn(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
