package opportunity

import "fmt"

type Thresholds struct {
	// MinDemand is exclusive.
	MinDemand int `json:"min_demand"`
	// MaxCompetition is exclusive.
	MaxCompetition int64 `json:"max_competition"`
}

var DefaultThresholds = Thresholds{
	MinDemand:      60,
	MaxCompetition: 5_000_000,
}

func (t Thresholds) Validate() error {
	if t.MinDemand < 0 || t.MinDemand > 100 {
		return fmt.Errorf("min demand %d is outside of [0, 100]", t.MinDemand)
	}
	if t.MaxCompetition <= 0 {
		return fmt.Errorf("max competition %d must be positive", t.MaxCompetition)
	}
	return nil
}

// IsGolden reports whether a record has strictly more demand than the threshold and a
// competition count strictly between zero and the threshold. A zero count is never golden,
// it is as likely to be a broken page as an empty market.
func IsGolden(r Record, t Thresholds) bool {
	return r.DemandScore > t.MinDemand &&
		r.CompetitionCount > 0 &&
		r.CompetitionCount < t.MaxCompetition
}

// Golden filters records, keeping their order and ids.
func Golden(records []Record, t Thresholds) []Record {
	out := []Record{}
	for _, r := range records {
		if IsGolden(r, t) {
			out = append(out, r)
		}
	}
	return out
}
