package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/support-relay/internal/domain"
)

// CachedProfileStore layers an in-process cache over a ProfileStore. Profiles
// change rarely, so a short TTL keeps the hot path off Postgres without a
// separate invalidation channel.
type CachedProfileStore struct {
	inner  ProfileStore
	cache  *bigcache.BigCache
	logger *zap.Logger
}

// NewCachedProfileStore wraps the store with a bigcache instance.
func NewCachedProfileStore(inner ProfileStore, ttl time.Duration, logger *zap.Logger) (*CachedProfileStore, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, err
	}
	return &CachedProfileStore{inner: inner, cache: cache, logger: logger}, nil
}

func (s *CachedProfileStore) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	key := cacheKey(userID)
	if raw, err := s.cache.Get(key); err == nil {
		var profile domain.Profile
		if err := json.Unmarshal(raw, &profile); err == nil {
			return &profile, nil
		}
		_ = s.cache.Delete(key)
	}

	profile, err := s.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.put(key, profile)
	return profile, nil
}

func (s *CachedProfileStore) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	if _, err := s.cache.Get(cacheKey(userID)); err == nil {
		return true, nil
	}
	return s.inner.IsRegistered(ctx, userID)
}

func (s *CachedProfileStore) Upsert(ctx context.Context, profile *domain.Profile) error {
	if err := s.inner.Upsert(ctx, profile); err != nil {
		return err
	}
	s.put(cacheKey(profile.UserID), profile)
	return nil
}

func (s *CachedProfileStore) SetLanguage(ctx context.Context, userID int64, lang domain.Language) error {
	if err := s.inner.SetLanguage(ctx, userID, lang); err != nil {
		return err
	}
	// Evict so the next read picks up the new language.
	if err := s.cache.Delete(cacheKey(userID)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		s.logger.Warn("profile cache eviction failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return nil
}

func (s *CachedProfileStore) put(key string, profile *domain.Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, raw); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
