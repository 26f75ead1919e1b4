package redis

import (
	"context"
	"errors"
	"time"

	"github.com/islandscholars/placement-hub/internal/application/suggestion"
)

// SuggestionCache implements suggestion.Cache on top of Cache.
type SuggestionCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSuggestionCache creates a suggestion cache; ttl <= 0 means TTLSuggestions.
func NewSuggestionCache(cache *Cache, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = TTLSuggestions
	}
	return &SuggestionCache{cache: cache, ttl: ttl}
}

// GetSuggestions returns the cached ranking, if any.
func (s *SuggestionCache) GetSuggestions(ctx context.Context, studentID string) ([]suggestion.Scored, bool, error) {
	var ranked []suggestion.Scored
	err := s.cache.Get(ctx, SuggestionsKey(studentID), &ranked)
	if errors.Is(err, ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ranked, true, nil
}

// SetSuggestions stores a ranking. An empty ranking is cached too.
func (s *SuggestionCache) SetSuggestions(ctx context.Context, studentID string, ranked []suggestion.Scored) error {
	if ranked == nil {
		ranked = []suggestion.Scored{}
	}
	return s.cache.Set(ctx, SuggestionsKey(studentID), ranked, s.ttl)
}

func (s *SuggestionCache) InvalidateStudent(ctx context.Context, studentID string) error {
	return s.cache.Delete(ctx, SuggestionsKey(studentID))
}

func (s *SuggestionCache) InvalidateAll(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, PrefixSuggestions+"*")
}

var _ suggestion.Cache = (*SuggestionCache)(nil)
