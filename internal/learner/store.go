package learner

import (
	"context"
	"errors"
	"time"

	"github.com/jon4hz/eduquest/internal/cache"
)

// ErrNoContext is returned when a user has no active learner context,
// e.g. after sign-out or expiry.
var ErrNoContext = errors.New("no active learner session, please sign in again")

// ContextStore keeps one SessionContext per signed-in user.
type ContextStore interface {
	Get(ctx context.Context, userID uint) (*SessionContext, error)
	Set(ctx context.Context, sc *SessionContext) error
	Delete(ctx context.Context, userID uint) error
}

// CacheStore is a ContextStore on top of a prefixed cache.
type CacheStore struct {
	cache *cache.PrefixedCache[SessionContext]
	ttl   time.Duration
}

var _ ContextStore = (*CacheStore)(nil)

// NewCacheStore returns a store whose entries expire after ttl of inactivity.
func NewCacheStore(c *cache.PrefixedCache[SessionContext], ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

func (s *CacheStore) Get(ctx context.Context, userID uint) (*SessionContext, error) {
	sc, err := s.cache.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNoContext
		}
		return nil, err
	}
	return &sc, nil
}

func (s *CacheStore) Set(ctx context.Context, sc *SessionContext) error {
	return s.cache.Set(ctx, sc.UserID, *sc, s.ttl)
}

func (s *CacheStore) Delete(ctx context.Context, userID uint) error {
	return s.cache.Delete(ctx, userID)
}
