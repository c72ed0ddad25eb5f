package redis

import (
	"context"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/circuitbreaker"
)

// GuardedStatusCache puts a circuit breaker in front of a status cache.
// While the circuit is open reads are misses and writes are skipped, so
// callers go straight to the store instead of waiting on Redis timeouts.
type GuardedStatusCache struct {
	inner   hifz.StatusCache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedStatusCache wraps inner with breaker.
func NewGuardedStatusCache(inner hifz.StatusCache, breaker *circuitbreaker.CircuitBreaker) *GuardedStatusCache {
	return &GuardedStatusCache{inner: inner, breaker: breaker}
}

// Get returns the cached status. A rejected call is reported as a miss.
func (g *GuardedStatusCache) Get(ctx context.Context, learnerID shared.LearnerID) (*hifz.LearnerStatus, error) {
	var status *hifz.LearnerStatus
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		status, err = g.inner.Get(ctx, learnerID)
		return err
	})
	if circuitbreaker.IsRejected(err) {
		return nil, nil
	}
	return status, err
}

// Set stores a status when the circuit allows it.
func (g *GuardedStatusCache) Set(ctx context.Context, status *hifz.LearnerStatus) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Set(ctx, status)
	})
}

// Invalidate always reaches Redis: a skipped delete could leave a stale
// status behind once the circuit closes again.
func (g *GuardedStatusCache) Invalidate(ctx context.Context, learnerID shared.LearnerID) error {
	return g.inner.Invalidate(ctx, learnerID)
}

// Breaker exposes the breaker for health reporting.
func (g *GuardedStatusCache) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}
