// Package useragent rotates the client identification strings presented to remote sources.
package useragent

import (
	"sync/atomic"

	browser "github.com/EDDYCJY/fake-useragent"
)

// Provider hands out the User-Agent to use for the next request.
//
// note: fault injection point
type Provider interface {
	Next() string
}

// DefaultPool is used when no pool is configured.
var DefaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

// Pool rotates round-robin through a fixed list. It is safe for concurrent use.
type Pool struct {
	agents []string
	cursor atomic.Uint64
}

func NewPool(agents []string) *Pool {
	if len(agents) == 0 {
		agents = DefaultPool
	}
	cp := make([]string, len(agents))
	copy(cp, agents)
	return &Pool{agents: cp}
}

func (p *Pool) Next() string {
	idx := p.cursor.Add(1) - 1
	return p.agents[idx%uint64(len(p.agents))]
}

func (p *Pool) Len() int {
	return len(p.agents)
}

// Fixed always returns the same string.
type Fixed string

func (f Fixed) Next() string {
	return string(f)
}

// Random draws from the fake-useragent database, falling back to the pool when the
// database returns nothing.
type Random struct {
	fallback *Pool
}

func NewRandom() Random {
	return Random{fallback: NewPool(nil)}
}

func (r Random) Next() string {
	ua := browser.Random()
	if ua == "" {
		return r.fallback.Next()
	}
	return ua
}
