// Package stock measures supply on stock media marketplaces: how many assets a search for a
// keyword returns.
package stock

import (
	"context"
	"errors"
	"fmt"

	"trendlens-backend/internal/components/failure"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/components/transport"
	"trendlens-backend/internal/components/useragent"
	"trendlens-backend/pkg/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_strategy_extract = "strategy.extract"
	report_strategy_close   = "strategy.close-session"
)

var tracer = telemetry.Tracer("trendlens/stock")

var (
	ErrNoLocatorMatched = errors.New("no locator matched")
	ErrNoDigits         = errors.New("matched text has no digits")
	ErrNoTransport      = errors.New("transport not configured")
)

// SupplySample is a single competition measurement. Count is only meaningful when Fetched is
// true, a failed extraction is Fetched=false with Count=0.
type SupplySample struct {
	Keyword string
	Source  SourceID
	Count   int64
	Fetched bool
}

// Strategy measures the supply for a keyword on a single source. Extract never fails, errors
// are reported and turned into an unfetched sample.
type Strategy interface {
	Source() SourceID
	Extract(ctx context.Context, keyword string) SupplySample
}

// Deps are the collaborators shared by every strategy.
type Deps struct {
	Fetcher    transport.Fetcher
	Browser    transport.Browser
	UserAgents useragent.Provider
	// PageDelay is waited on before every request.
	PageDelay *throttle.Throttler
	// RenderDelay is waited on after a browser page loaded, before locating the count.
	RenderDelay *throttle.Throttler
	Reporter    failure.Reporter
}

type strategy struct {
	def  Definition
	deps Deps
	tel  telemetry.API
}

func (s strategy) Source() SourceID {
	return s.def.ID
}

func (s strategy) fail(ctx context.Context, keyword string, kind failure.Kind, err error) SupplySample {
	failure.Report(ctx, s.deps.Reporter, failure.Failure{
		Keyword: keyword,
		Source:  string(s.def.ID),
		Kind:    kind,
		Err:     err,
	})
	return SupplySample{Keyword: keyword, Source: s.def.ID}
}

// open loads the search page, the returned func releases it.
func (s strategy) open(ctx context.Context, keyword string) (transport.Page, func(), error) {
	target := s.def.SearchUrl(keyword)
	agent := s.deps.UserAgents.Next()

	switch s.def.Transport {
	case transport.KindHTML:
		if s.deps.Fetcher == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoTransport, s.def.Transport)
		}
		res, err := s.deps.Fetcher.Get(ctx, target, map[string]string{
			"user-agent": agent,
		})
		if err != nil {
			return nil, nil, err
		}
		doc, err := transport.NewDocument(res.Body)
		if err != nil {
			return nil, nil, err
		}
		return doc, func() {}, nil
	case transport.KindBrowser:
		if s.deps.Browser == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoTransport, s.def.Transport)
		}
		session, err := s.deps.Browser.Open(ctx, target, transport.OpenOptions{
			UserAgent: agent,
		})
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			err := session.Close()
			if err != nil {
				s.tel.ReportDebug(report_strategy_close, keyword, err)
			}
		}
		s.deps.RenderDelay.Wait(ctx)
		return session, release, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrNoTransport, s.def.Transport)
	}
}

func (s strategy) Extract(ctx context.Context, keyword string) (sample SupplySample) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", string(s.def.ID)),
		attribute.String("keyword", keyword),
	)

	release := func() {}
	defer func() {
		// drivers and parsers may panic on pages they do not expect
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "panic")
			sample = s.fail(ctx, keyword, failure.KindTransport, fmt.Errorf("panic: %v", r))
		}
		release()
	}()

	s.deps.PageDelay.Wait(ctx)

	page, closePage, err := s.open(ctx, keyword)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open page")
		return s.fail(ctx, keyword, failure.KindTransport, err)
	}
	release = closePage

	text, locator, err := locate(ctx, page, s.def.Locators)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "locate")
		return s.fail(ctx, keyword, failure.KindTransport, fmt.Errorf("locator %s: %w", locator, err))
	}
	if locator == "" {
		return s.fail(ctx, keyword, failure.KindExtractionMismatch, ErrNoLocatorMatched)
	}

	count, ok := htmlutil.DigitsOnly(text)
	if !ok {
		return s.fail(ctx, keyword, failure.KindExtractionMismatch, fmt.Errorf("%w: locator %s: %q", ErrNoDigits, locator, text))
	}

	s.tel.ReportDebug(report_strategy_extract, keyword, locator, count)
	span.SetAttributes(attribute.Int64("count", count))

	return SupplySample{
		Keyword: keyword,
		Source:  s.def.ID,
		Count:   count,
		Fetched: true,
	}
}
