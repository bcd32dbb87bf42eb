package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	"github.com/AxelTei/Jeux-Olympiques/internal/repository"
	"github.com/redis/go-redis/v9"
)

// SessionStore holds signed-in users server-side. A session is created
// on signin, refreshed on read, and deleted on signout; the client only
// ever sees the opaque session id.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	const op = "redis.SessionStore.Save"

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.rdb.Set(ctx, KeySession(sess.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	const op = "redis.SessionStore.Get"

	v, err := s.rdb.Get(ctx, KeySession(sessionID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(v), &sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Sliding expiry: an active user stays signed in.
	_ = s.rdb.Expire(ctx, KeySession(sessionID), s.ttl).Err()

	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	const op = "redis.SessionStore.Delete"

	if err := s.rdb.Del(ctx, KeySession(sessionID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
