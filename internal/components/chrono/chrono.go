package chrono

import "time"

// TimeAPI is the clock used for timestamps on fetched samples.
//
// note: fault injection point
type TimeAPI interface {
	Now() time.Time
}

type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now().UTC()
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}
