// Package limiter throttles outbound API traffic and login attempts.
package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle paces outbound requests.
type Throttle interface {
	// Wait blocks until a request may be sent or ctx is done.
	Wait(ctx context.Context) error
}

// Noop never blocks.
type Noop struct{}

// Wait implements Throttle.
func (Noop) Wait(ctx context.Context) error { return ctx.Err() }

// Rate is a token-bucket Throttle.
type Rate struct {
	l *rate.Limiter
}

// NewRate returns a Throttle allowing rps requests per second with the given burst.
// A non-positive rps disables throttling.
func NewRate(rps float64, burst int) Throttle {
	if rps <= 0 {
		return Noop{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Rate{l: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait implements Throttle.
func (r *Rate) Wait(ctx context.Context) error { return r.l.Wait(ctx) }
