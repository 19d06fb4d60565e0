// Package throttle injects randomized delays between requests so that remote sources do not
// see a machine-regular request pattern.
package throttle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Range is a uniform delay range, both ends inclusive.
type Range struct {
	Min time.Duration
	Max time.Duration
}

func Seconds(min, max float64) Range {
	return Range{
		Min: time.Duration(min * float64(time.Second)),
		Max: time.Duration(max * float64(time.Second)),
	}
}

func (r Range) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("negative delay range [%s, %s]", r.Min, r.Max)
	}
	if r.Max < r.Min {
		return fmt.Errorf("delay range max %s is lower than min %s", r.Max, r.Min)
	}
	return nil
}

func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// Draw picks a duration in the range given a uniform sample in [0, 1).
func (r Range) Draw(sample float64) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(sample*float64(r.Max-r.Min))
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Min, r.Max)
}

// RandomAPI is the source of the delay samples.
//
// note: fault injection point
type RandomAPI interface {
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 {
	return rand.Float64()
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

type Option func(t *Throttler)

func WithRandom(r RandomAPI) Option {
	return func(t *Throttler) { t.rand = r }
}

func WithSleep(fn SleepFunc) Option {
	return func(t *Throttler) { t.sleep = fn }
}

// Throttler suspends the caller for a random duration drawn from its range. It never fails,
// a done context only cuts the wait short.
type Throttler struct {
	rng   Range
	rand  RandomAPI
	sleep SleepFunc
}

func New(rng Range, options ...Option) *Throttler {
	t := &Throttler{
		rng:   rng,
		rand:  defaultRandom{},
		sleep: sleepContext,
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// None is a Throttler that never waits.
func None() *Throttler {
	return New(Range{})
}

func (t *Throttler) Range() Range {
	return t.rng
}

// Next returns the duration the next Wait would use, it consumes a random sample.
func (t *Throttler) Next() time.Duration {
	if t.rng.IsZero() {
		return 0
	}
	return t.rng.Draw(t.rand.Float64())
}

func (t *Throttler) Wait(ctx context.Context) {
	if t == nil {
		return
	}
	d := t.Next()
	if d <= 0 {
		return
	}
	t.sleep(ctx, d)
}
