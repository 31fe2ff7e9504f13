package server

import "golang.org/x/time/rate"

// newRateLimiter returns the token bucket guarding one connection's inbound
// frames.
func newRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)
}
