// Package redis persists gateway sessions in Redis so a tab's moderator
// session survives restarts and is shared between replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dreamsite/internal/gateway"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds sessions that carry no expiry of their own.
const DefaultTTL = 24 * time.Hour

func NewClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// SessionStore implements gateway.SessionStorage on top of a Redis client.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Load(ctx context.Context, key string) (*gateway.Session, error) {
	raw, err := s.rdb.Get(ctx, gateway.StorageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gateway.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess gateway.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save stores the session until it goes stale, or for the default TTL when
// it has no expiry. A stale session is not stored.
func (s *SessionStore) Save(ctx context.Context, key string, sess *gateway.Session) error {
	ttl := s.ttl
	if until := sess.RetainUntil(); !until.IsZero() {
		ttl = until.Sub(s.now())
		if ttl <= 0 {
			return s.Remove(ctx, key)
		}
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, gateway.StorageKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, gateway.StorageKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
