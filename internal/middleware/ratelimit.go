package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"

	"github.com/mmynk/lingostake/internal/metrics"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiter keeps one token bucket per caller.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows r requests per second per caller with the given
// burst. A non-positive r disables limiting.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
		idle:     5 * time.Minute,
	}
}

// AllowWithRetry reports whether key may proceed, and if not, how long
// until it may.
func (rl *RateLimiter) AllowWithRetry(key string) (bool, time.Duration) {
	if rl.rate <= 0 {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Run drops idle callers every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.prune(time.Now().Add(-rl.idle))
		}
	}
}

func (rl *RateLimiter) prune(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// RateLimit returns an interceptor limiting mutating calls per authenticated
// account, falling back to the peer address for anonymous calls. Procedures
// declared free of side effects pass through. It must run after the auth
// interceptor.
func RateLimit(limiter *RateLimiter) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IdempotencyLevel == connect.IdempotencyNoSideEffects {
				return next(ctx, req)
			}

			key := GetAccount(ctx)
			if key == "" {
				key = "peer:" + req.Peer().Addr
			}

			allowed, retryAfter := limiter.AllowWithRetry(key)
			if !allowed {
				metrics.RateLimitedTotal.WithLabelValues(req.Spec().Procedure).Inc()

				seconds := int(retryAfter.Seconds())
				if seconds < 1 {
					seconds = 1
				}
				err := connect.NewError(connect.CodeResourceExhausted,
					fmt.Errorf("%w: retry in %ds", ErrRateLimited, seconds))
				err.Meta().Set("Retry-After", strconv.Itoa(seconds))
				return nil, err
			}
			return next(ctx, req)
		}
	}
}
