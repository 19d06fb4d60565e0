package transport

import (
	"context"
	"fmt"
	"time"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/pkg/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const report_fetcher_get = "fetcher.get"

type FetcherOptions struct {
	// Timeout bounds a single Get, including redirects.
	Timeout time.Duration
	// CloudflareBypass swaps the client transport for one with a browser-like TLS fingerprint
	// and default headers.
	CloudflareBypass bool
	// Gate, when set, is waited on before every request leaves the process.
	Gate *throttle.Gate
	// Dump, when set, receives every response for offline inspection of changed markup.
	Dump restyutil.Output
}

// HTMLFetcher is a Fetcher backed by resty.
type HTMLFetcher struct {
	http    *resty.Client
	timeout time.Duration
	tel     telemetry.API
}

func NewHTMLFetcher(opts FetcherOptions, tel telemetry.API) *HTMLFetcher {
	assert.NotNil(tel)
	assert.True(opts.Timeout > 0, "fetcher timeout must be positive")

	tel = telemetry.NewScopedAPI("transport", tel)

	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(opts.Timeout)

	gate := opts.Gate
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return gate.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "trendlens/transport", tel)
	restyutil.DumpResponses(client, opts.Dump)

	return &HTMLFetcher{
		http:    client,
		timeout: opts.Timeout,
		tel:     tel,
	}
}

func (f *HTMLFetcher) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := f.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return Response{}, fmt.Errorf("get %s: %w", url, err)
	}
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() >= 300 {
		f.tel.ReportDebug(report_fetcher_get, url, res.Status())
		return Response{}, fmt.Errorf("get %s: %w", url, statusError(res.StatusCode(), res.Status()))
	}

	return Response{
		URL:        res.Request.URL,
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
	}, nil
}
