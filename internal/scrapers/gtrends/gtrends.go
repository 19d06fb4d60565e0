// Package gtrends is a client for the unofficial Google Trends widget API: an explore call
// yields per-widget tokens, which are then exchanged for the widget's data.
package gtrends

import (
	"context"
	"errors"
	"time"
)

const DefaultBaseUrl = "https://trends.google.com"

var (
	ErrNoTimeseriesWidget = errors.New("explore response has no TIMESERIES widget")
	ErrMalformedResponse  = errors.New("malformed trends response")
)

type Query struct {
	Keywords []string
	// Timeframe uses the trends syntax, ex. "today 3-m" or "now 7-d".
	Timeframe string
	Category  int
	Geo       string
	// Property is the search property, empty means web search.
	Property string
}

type Point struct {
	Time          time.Time
	FormattedTime string
	// Values holds one value per keyword of the query, in query order.
	Values    []int
	HasData   []bool
	IsPartial bool
}

type Series struct {
	Keywords []string
	Points   []Point
}

// Column returns the values of a single keyword oldest first, false if the keyword is not part
// of the series.
func (s Series) Column(keyword string) ([]int, bool) {
	idx := -1
	for i, k := range s.Keywords {
		if k == keyword {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	out := make([]int, 0, len(s.Points))
	for _, p := range s.Points {
		if idx >= len(p.Values) {
			continue
		}
		out = append(out, p.Values[idx])
	}
	return out, true
}

// API is the trend-data capability.
//
// note: fault injection point
type API interface {
	InterestOverTime(ctx context.Context, q Query) (Series, error)
}
