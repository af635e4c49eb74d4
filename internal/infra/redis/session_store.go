package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// SessionStore keeps session identities in Redis so several instances can
// share logins. Keys expire on their own after the configured TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ app.SessionRepository = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, identity domain.Identity) (string, error) {
	raw, err := json.Marshal(identity)
	if err != nil {
		return "", errors.Wrap(err, "marshal session")
	}
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), raw, s.ttl).Err(); err != nil {
		return "", errors.Wrap(err, "store session")
	}
	return token, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.Identity, error) {
	raw, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Identity{}, errors.Wrap(err, "load session")
	}
	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return domain.Identity{}, errors.Wrap(err, "unmarshal session")
	}
	return identity, nil
}

// Update rewrites the identity and keeps the remaining TTL.
func (s *SessionStore) Update(ctx context.Context, token string, identity domain.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	ok, err := s.client.SetArgs(ctx, sessionKey(token), raw, redis.SetArgs{Mode: "XX", KeepTTL: true}).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "update session")
	}
	if ok != "OK" {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return errors.Wrap(s.client.Del(ctx, sessionKey(token)).Err(), "delete session")
}

func sessionKey(token string) string {
	return "session:" + token
}
