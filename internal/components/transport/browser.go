package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/pkg/htmlutil"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	report_browser_open  = "browser.open"
	report_browser_close = "browser.close"
)

type BrowserOptions struct {
	// Timeout bounds a whole session, from launch to Close.
	Timeout  time.Duration
	Headless bool
	// Bin is the chrome binary, empty lets rod download or locate one.
	Bin string
	// NoSandbox is required when running as root inside containers.
	NoSandbox bool
	Gate      *throttle.Gate
}

// RodBrowser launches a stealth-patched headless chrome per session.
type RodBrowser struct {
	opts BrowserOptions
	tel  telemetry.API
}

func NewRodBrowser(opts BrowserOptions, tel telemetry.API) RodBrowser {
	assert.NotNil(tel)
	assert.True(opts.Timeout > 0, "browser timeout must be positive")
	return RodBrowser{
		opts: opts,
		tel:  telemetry.NewScopedAPI("transport", tel),
	}
}

func (b RodBrowser) Open(ctx context.Context, url string, opts OpenOptions) (Session, error) {
	err := b.opts.Gate.Wait(ctx)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	s := &rodSession{
		url:    url,
		cancel: cancel,
		tel:    b.tel,
	}

	l := launcher.New().
		Context(sessionCtx).
		Headless(b.opts.Headless).
		Set("disable-blink-features", "AutomationControlled")
	if b.opts.Bin != "" {
		l = l.Bin(b.opts.Bin)
	}
	if b.opts.NoSandbox {
		l = l.NoSandbox(true)
	}

	controlUrl, err := l.Launch()
	if err != nil {
		l.Kill()
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	s.launcher = l

	browser := rod.New().Context(sessionCtx).ControlURL(controlUrl)
	err = browser.Connect()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = browser

	page, err := stealth.Page(browser)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if opts.UserAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      opts.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	err = page.Navigate(url)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	err = page.WaitLoad()
	if err != nil {
		// the result count is often present before late resources finish loading
		b.tel.ReportDebug(report_browser_open, url, err)
	}

	return s, nil
}

type rodSession struct {
	url      string
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cancel   context.CancelFunc
	tel      telemetry.API
}

func (s *rodSession) Find(ctx context.Context, selector string) ([]string, error) {
	elements, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}

	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("read text of %q: %w", selector, err)
		}
		texts = append(texts, htmlutil.CleanText(text))
	}
	return texts, nil
}

// Close releases the page, the browser connection and the chrome process in that order.
func (s *rodSession) Close() error {
	var errs []error
	if s.page != nil {
		errs = append(errs, s.page.Close())
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	s.cancel()

	err := errors.Join(errs...)
	if err != nil {
		s.tel.ReportDebug(report_browser_close, s.url, err)
	}
	return err
}
