package resv

import (
	"context"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"jptraining-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("jptraining.scrapers.resv")

const (
	loginPath     = "/user/usr_login.php"
	verifyPath    = "/user/res_user.php"
	menuPath      = "/user/usr_menu.php"
	calendarPath  = "/reserve/calendar.php"
	timetablePath = "/reserve/get_timetable_pc.php"
)

// the login prompt shows up on the verification page when the session
// is not authenticated, in either locale the site serves
var loginMarkers = []string{"ログインID", "Login ID"}

type Credentials struct {
	LoginID  string
	Password string
}

type ClientOptions struct {
	BaseUrl string
}

// Client holds one authenticated browsing session against the
// reservation site. The site keeps all workflow state in cookies, so a
// Client must never be shared between concurrent runs.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "jptraining.scrapers.resv.http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

// CalendarURL is the navigation context every timetable and detail
// request hangs off of, both as a referer and as the base for
// resolving relative slot links.
func (c *Client) CalendarURL() *url.URL {
	return c.BaseUrl.ResolveReference(&url.URL{Path: calendarPath})
}

// Login authenticates the session and warms the calendar landing pages
// so follow-up requests carry the cookies the site expects. Failure is
// reported immediately, there is no retry.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	_, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"loginid":                  creds.LoginID,
			"loginpw":                  creds.Password,
			"calendar":                 "1",
			"login_direct_id":          "0",
			"login_direct_calendar_id": "0",
			"submit":                   "Log in",
		}).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("calendar", "1").
		Get(verifyPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login verification page")
		return err
	}
	body := res.String()
	for _, marker := range loginMarkers {
		if strings.Contains(body, marker) {
			span.SetStatus(codes.Error, ErrAuthentication.Error())
			return ErrAuthentication
		}
	}

	// the menu and calendar routes set additional session cookies
	// that the timetable endpoint requires
	_, err = c.Http.R().
		SetContext(ctx).
		Get(menuPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch menu page")
		return err
	}
	_, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.ResolveReference(&url.URL{Path: menuPath}).String()).
		Get(calendarPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch calendar page")
		return err
	}

	return nil
}
