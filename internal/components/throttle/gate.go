package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between any two outbound requests, no matter how many
// workers share it. A zero interval disables the gate.
type Gate struct {
	limiter *rate.Limiter
}

func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		return &Gate{}
	}
	// burst of 1 so that two workers can never go out back to back
	return &Gate{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the caller may issue a request. It only fails when ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
