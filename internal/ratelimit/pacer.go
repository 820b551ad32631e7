// Package ratelimit paces page actions in slow mode.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces browser actions at least Gap apart. The first action is never
// delayed. A nil Pacer, or one built with a zero gap, never waits.
type Pacer struct {
	limiter *rate.Limiter
	gap     time.Duration
}

// NewPacer returns a pacer enforcing gap between actions.
func NewPacer(gap time.Duration) *Pacer {
	if gap <= 0 {
		return &Pacer{}
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(gap), 1),
		gap:     gap,
	}
}

// Wait blocks until the next action may run or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Gap returns the configured spacing. Zero means pacing is off.
func (p *Pacer) Gap() time.Duration {
	if p == nil {
		return 0
	}
	return p.gap
}
