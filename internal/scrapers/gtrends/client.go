package gtrends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/components/useragent"
	"trendlens-backend/pkg/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_cookies     = "client.cookies"
	report_client_explore     = "client.explore"
	report_client_multiline   = "client.multiline"
	report_client_empty_reply = "client.empty-reply"
)

var tracer = telemetry.Tracer("trendlens/gtrends")

type Options struct {
	BaseUrl  string
	Language string
	// TzOffset is the timezone offset in minutes as trends expects it (360 = UTC-6).
	TzOffset         int
	Timeout          time.Duration
	CloudflareBypass bool
	Gate             *throttle.Gate
	UserAgents       useragent.Provider
	Dump             restyutil.Output
}

type Client struct {
	http *resty.Client
	opts Options
	tel  telemetry.API

	cookiesMu  sync.Mutex
	hasCookies bool
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	assert.True(opts.Timeout > 0, "trends timeout must be positive")

	tel = telemetry.NewScopedAPI("gtrends", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.UserAgents == nil {
		opts.UserAgents = useragent.NewPool(nil)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	// cookiejar.New never fails without a public suffix list
	jar, _ := cookiejar.New(nil)
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetTimeout(opts.Timeout)

	gate := opts.Gate
	agents := opts.UserAgents
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("user-agent", agents.Next())
		return gate.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "trendlens/gtrends", tel)
	restyutil.DumpResponses(client, opts.Dump)

	return &Client{
		http: client,
		opts: opts,
		tel:  tel,
	}
}

// getCookies visits the landing page until it succeeds once, so that the jar holds the NID
// cookie trends expects. Requests without it are rate limited far more aggressively.
func (c *Client) getCookies(ctx context.Context) {
	c.cookiesMu.Lock()
	defer c.cookiesMu.Unlock()
	if c.hasCookies {
		return
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("geo", "US").
		Get("/")
	if err != nil {
		c.tel.ReportDebug(report_client_cookies, err)
		return
	}
	c.tel.ReportDebug(report_client_cookies, res.Status(), len(res.Cookies()))
	c.hasCookies = res.IsSuccess()
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Time    string `json:"time"`
	Geo     string `json:"geo"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type timelinePoint struct {
	Time          string `json:"time"`
	FormattedTime string `json:"formattedTime"`
	Value         []int  `json:"value"`
	HasData       []bool `json:"hasData"`
	IsPartial     bool   `json:"isPartial"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}

// stripGuard removes the anti-XSSI prefix trends puts in front of every json reply.
func stripGuard(body []byte) ([]byte, error) {
	idx := bytes.IndexByte(body, '{')
	if idx < 0 {
		return nil, fmt.Errorf("%w: no json object in body", ErrMalformedResponse)
	}
	return body[idx:], nil
}

func (c *Client) commonParams() map[string]string {
	return map[string]string{
		"hl": c.opts.Language,
		"tz": strconv.Itoa(c.opts.TzOffset),
	}
}

func (c *Client) explore(ctx context.Context, q Query) (widget, error) {
	ctx, span := tracer.Start(ctx, "explore")
	defer span.End()

	items := make([]comparisonItem, len(q.Keywords))
	for i, kw := range q.Keywords {
		items[i] = comparisonItem{
			Keyword: kw,
			Time:    q.Timeframe,
			Geo:     q.Geo,
		}
	}
	req, err := json.Marshal(exploreRequest{
		ComparisonItem: items,
		Category:       q.Category,
		Property:       q.Property,
	})
	if err != nil {
		return widget{}, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.commonParams()).
		SetQueryParam("req", string(req)).
		Get("/trends/api/explore")
	if err != nil {
		return widget{}, fmt.Errorf("explore: %w", err)
	}
	if res.IsError() {
		return widget{}, fmt.Errorf("explore: %s", res.Status())
	}

	body, err := stripGuard(res.Body())
	if err != nil {
		return widget{}, fmt.Errorf("explore: %w", err)
	}
	var parsed exploreResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_explore, err)
		return widget{}, fmt.Errorf("explore: %w: %w", ErrMalformedResponse, err)
	}

	for _, w := range parsed.Widgets {
		if w.ID == "TIMESERIES" {
			return w, nil
		}
	}
	return widget{}, ErrNoTimeseriesWidget
}

func (c *Client) multiline(ctx context.Context, w widget) ([]timelinePoint, error) {
	ctx, span := tracer.Start(ctx, "multiline")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.commonParams()).
		SetQueryParam("req", string(w.Request)).
		SetQueryParam("token", w.Token).
		Get("/trends/api/widgetdata/multiline")
	if err != nil {
		return nil, fmt.Errorf("multiline: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("multiline: %s", res.Status())
	}

	body, err := stripGuard(res.Body())
	if err != nil {
		return nil, fmt.Errorf("multiline: %w", err)
	}
	var parsed multilineResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_multiline, err)
		return nil, fmt.Errorf("multiline: %w: %w", ErrMalformedResponse, err)
	}
	return parsed.Default.TimelineData, nil
}

func (c *Client) InterestOverTime(ctx context.Context, q Query) (Series, error) {
	ctx, span := tracer.Start(ctx, "InterestOverTime")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	c.getCookies(ctx)

	w, err := c.explore(ctx, q)
	if err != nil {
		return Series{}, err
	}
	timeline, err := c.multiline(ctx, w)
	if err != nil {
		return Series{}, err
	}

	series := Series{
		Keywords: q.Keywords,
		Points:   make([]Point, 0, len(timeline)),
	}
	for _, t := range timeline {
		var at time.Time
		unix, err := strconv.ParseInt(t.Time, 10, 64)
		if err == nil {
			at = time.Unix(unix, 0).UTC()
		}
		series.Points = append(series.Points, Point{
			Time:          at,
			FormattedTime: t.FormattedTime,
			Values:        t.Value,
			HasData:       t.HasData,
			IsPartial:     t.IsPartial,
		})
	}
	if len(series.Points) == 0 {
		c.tel.ReportDebug(report_client_empty_reply, q.Keywords)
	}

	return series, nil
}
