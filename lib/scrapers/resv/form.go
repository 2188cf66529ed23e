package resv

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Form is the single form of a workflow page: its action resolved to
// an absolute URL and the input fields to replay on submission.
type Form struct {
	Action string
	Fields map[string]string
}

// ParseForm extracts the page's form. pageURL resolves relative
// actions; an empty action resubmits to the page itself. When
// proceedMarker is non-empty, submit-type inputs whose value differs
// from it are dropped — that is how pages with several mutually
// exclusive buttons are steered down the "proceed" branch.
func ParseForm(html []byte, pageURL *url.URL, proceedMarker string) (Form, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Form{}, err
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return Form{}, ErrNoFormFound
	}

	out := Form{
		Action: resolveAction(form, pageURL),
		Fields: map[string]string{},
	}
	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		value := input.AttrOr("value", "")
		inputType := strings.ToLower(input.AttrOr("type", ""))
		if proceedMarker != "" && inputType == "submit" && strings.TrimSpace(value) != proceedMarker {
			return
		}
		out.Fields[name] = value
	})

	return out, nil
}

// ExtractFormAction is the degenerate parse used between the two
// submission hops: only the next action URL matters, no fields are
// collected. Unlike ParseForm, a missing or empty action is an error
// here — resubmitting the intermediate page to itself would stall the
// workflow, not advance it.
func ExtractFormAction(html []byte, pageURL *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}
	form := doc.Find("form").First()
	if form.Length() == 0 {
		return "", ErrNoFormFound
	}
	action := strings.TrimSpace(form.AttrOr("action", ""))
	if action == "" {
		return "", ErrProtocol
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	return pageURL.ResolveReference(ref).String(), nil
}

func resolveAction(form *goquery.Selection, pageURL *url.URL) string {
	action := form.AttrOr("action", "")
	if action == "" {
		return pageURL.String()
	}
	ref, err := url.Parse(action)
	if err != nil {
		return pageURL.String()
	}
	return pageURL.ResolveReference(ref).String()
}

// RelayForm fetches a workflow page, collects its form and submits it
// back as a form-encoded POST, returning the next page. overrides are
// applied after collection and win over replayed fields.
func (c *Client) RelayForm(ctx context.Context, pageURL string, proceedMarker string, overrides map[string]string) (*Page, error) {
	ctx, span := tracer.Start(ctx, "client:RelayForm")
	defer span.End()
	span.SetAttributes(attribute.String("page_url", pageURL))

	page, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch form page")
		return nil, err
	}

	form, err := ParseForm(page.Body, page.URL, proceedMarker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse form")
		return nil, err
	}
	for name, value := range overrides {
		form.Fields[name] = value
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(form.Fields).
		Post(form.Action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit form")
		return nil, err
	}
	if !res.IsSuccess() {
		err := &FetchError{StatusCode: res.StatusCode(), URL: res.Request.URL}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return pageFromResponse(res)
}

// Page is a fetched document together with the URL it finally came
// from, which is what relative form actions resolve against.
type Page struct {
	Body []byte
	URL  *url.URL
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*Page, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return nil, &FetchError{StatusCode: res.StatusCode(), URL: res.Request.URL}
	}
	return pageFromResponse(res)
}

func pageFromResponse(res *resty.Response) (*Page, error) {
	// RawResponse.Request carries the URL the body was actually
	// served from, after any redirects
	finalURL := res.RawResponse.Request.URL
	if finalURL == nil {
		parsed, err := url.Parse(res.Request.URL)
		if err != nil {
			return nil, err
		}
		finalURL = parsed
	}
	return &Page{
		Body: res.Body(),
		URL:  finalURL,
	}, nil
}
