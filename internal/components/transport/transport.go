// Package transport holds the two ways supply pages are retrieved: a plain HTML fetch and a
// headless browser session for pages that render their result count client-side.
package transport

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindHTML    Kind = "html"
	KindBrowser Kind = "browser"
)

// ErrStatus is wrapped by Fetcher.Get when the server answers with a non-2xx status.
var ErrStatus = errors.New("unexpected http status")

type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves a page over plain HTTP.
//
// note: fault injection point
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Page is anything that can be queried with a CSS selector for the text of matching elements.
type Page interface {
	Find(ctx context.Context, selector string) ([]string, error)
}

type OpenOptions struct {
	UserAgent string
}

// Session is a loaded browser page. Close must be called exactly once whatever happened
// after Open succeeded.
type Session interface {
	Page
	Close() error
}

// Browser opens a page in a fresh browser instance.
//
// note: fault injection point
type Browser interface {
	Open(ctx context.Context, url string, opts OpenOptions) (Session, error)
}

func statusError(code int, status string) error {
	return fmt.Errorf("%w: %d %s", ErrStatus, code, status)
}
