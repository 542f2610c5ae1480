// Package session provides bearer token storage backends.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrNotFound    = errors.New("token not found or expired")
	ErrTokenExists = errors.New("token already bound")
)

// Store binds token hashes to user ids. Save is first-write-wins.
type Store interface {
	Save(ctx context.Context, tokenHash string, userID uint, ttl time.Duration) error
	Lookup(ctx context.Context, tokenHash string) (uint, error)
	Revoke(ctx context.Context, tokenHash string) error
	Close() error
}

// TokenData holds the data stored for each token
type TokenData struct {
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HashToken returns the hex blake2b-256 digest of a raw bearer token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
