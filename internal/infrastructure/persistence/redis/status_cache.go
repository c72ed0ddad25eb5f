package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/hifz"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// StatusCache implements hifz.StatusCache using the generic Redis Cache.
type StatusCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewStatusCache creates a new StatusCache. ttl <= 0 uses TTLStatusCache.
func NewStatusCache(cache *Cache, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = TTLStatusCache
	}
	return &StatusCache{cache: cache, ttl: ttl}
}

// StatusKey generates the cache key of a learner status.
func (s *StatusCache) StatusKey(learnerID shared.LearnerID) string {
	return s.cache.Key(segmentStatus, learnerID.String())
}

// Get returns the cached status, or (nil, nil) on a miss.
func (s *StatusCache) Get(ctx context.Context, learnerID shared.LearnerID) (*hifz.LearnerStatus, error) {
	var st hifz.LearnerStatus
	if err := s.cache.Get(ctx, s.StatusKey(learnerID), &st); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// Set stores a status.
func (s *StatusCache) Set(ctx context.Context, st *hifz.LearnerStatus) error {
	if st == nil {
		return nil
	}
	return s.cache.Set(ctx, s.StatusKey(st.LearnerID), st, s.ttl)
}

// Invalidate removes a learner status from cache.
func (s *StatusCache) Invalidate(ctx context.Context, learnerID shared.LearnerID) error {
	return s.cache.Delete(ctx, s.StatusKey(learnerID))
}
