package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps tokens in process memory. Tokens do not survive a restart.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *MemoryStore) Save(_ context.Context, tokenHash string, userID uint, ttl time.Duration) error {
	if err := s.cache.Add(tokenHash, TokenData{UserID: userID, CreatedAt: time.Now()}, ttl); err != nil {
		return ErrTokenExists
	}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, tokenHash string) (uint, error) {
	v, ok := s.cache.Get(tokenHash)
	if !ok {
		return 0, ErrNotFound
	}
	return v.(TokenData).UserID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, tokenHash string) error {
	s.cache.Delete(tokenHash)
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
