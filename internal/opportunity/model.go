// Package opportunity combines demand and supply measurements into scored keyword records
// and picks out the golden ones: high demand, low but nonzero competition.
package opportunity

import (
	"time"

	"trendlens-backend/internal/components/failure"
	"trendlens-backend/internal/scrapers/stock"
)

// Reporter is the failure channel of a run.
type Reporter = failure.Reporter

// DemandSample is a demand measurement. Score 0 means either no interest or a failed fetch.
type DemandSample struct {
	Keyword   string
	Score     int
	FetchedAt time.Time
}

// Record is the per-keyword outcome of a run.
type Record struct {
	ID               int    `json:"id"`
	Keyword          string `json:"keyword"`
	DemandScore      int    `json:"demand_score"`
	CompetitionCount int64  `json:"competition_count"`

	Demand DemandSample       `json:"-"`
	Supply stock.SupplySample `json:"-"`
}

// empty is true when neither signal was obtained.
func (r Record) empty() bool {
	return r.DemandScore == 0 && !r.Supply.Fetched
}

type Analysis struct {
	RunID string
	// All holds every emitted record in input order.
	All []Record
	// Golden is the subset of All passing the classifier, ids are kept from All.
	Golden   []Record
	Failures []failure.Failure

	goldenOnly bool
}

// Output is the record set selected by RunConfig.GoldenOnly.
func (a Analysis) Output() []Record {
	if a.goldenOnly {
		return a.Golden
	}
	return a.All
}
