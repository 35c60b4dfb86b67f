// Package ratelimit implements per-client sliding window admission control.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request from key fits in the current window.
// A returned error means the decision could not be made; callers fail open.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Config struct {
	Window      time.Duration
	MaxRequests int
}
