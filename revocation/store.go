package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "padlock"

// Checker answers whether a claim identifier has been revoked. The HTTP guard
// accepts any Checker so callers can swap in their own denylist.
type Checker interface {
	IsRevoked(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store is a Redis denylist of claim identifiers.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore returns a Store using rdb. An empty prefix defaults to "padlock".
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) key(id uuid.UUID) string {
	return s.prefix + ":rv:" + id.String()
}

// Revoke denylists id for ttl. A ttl <= 0 keeps the entry until Reinstate.
// It reports whether id was newly revoked; revoking twice keeps the first TTL.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	if id == uuid.Nil {
		return false, ErrInvalidIdentifier
	}

	if ttl < 0 {
		ttl = 0
	}
	created, err := s.redis.SetNX(ctx, s.key(id), s.now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return created, nil
}

// RevokeUntil denylists id until expiresAt. A claim that has already expired
// needs no entry, and RevokeUntil returns false without touching Redis.
func (s *Store) RevokeUntil(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error) {
	remaining := expiresAt.Sub(s.now())
	if remaining <= 0 {
		if id == uuid.Nil {
			return false, ErrInvalidIdentifier
		}
		return false, nil
	}
	// Redis PX has millisecond resolution.
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	return s.Revoke(ctx, id, remaining)
}

// IsRevoked implements Checker.
func (s *Store) IsRevoked(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, ErrInvalidIdentifier
	}

	err := s.redis.Get(ctx, s.key(id)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}

// Reinstate removes id from the denylist. Reinstating an identifier that was
// never revoked is not an error.
func (s *Store) Reinstate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidIdentifier
	}
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokedAt returns when id was revoked.
func (s *Store) RevokedAt(ctx context.Context, id uuid.UUID) (time.Time, bool, error) {
	if id == uuid.Nil {
		return time.Time{}, false, ErrInvalidIdentifier
	}

	unix, err := s.redis.Get(ctx, s.key(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}
