package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("oauth session not found")

// OAuthSession is the server-held value carried across the provider redirect:
// the CSRF state parameter keys the return URL the browser should end up at.
type OAuthSession struct {
	Provider string `json:"provider"`
	ReturnTo string `json:"return_to"`
}

// SessionRepository stores short-lived OAuth redirect sessions in Redis. The
// TTL bounds how long a login attempt may sit between redirect and callback.
type SessionRepository interface {
	Set(ctx context.Context, state string, session *OAuthSession, ttl time.Duration) error
	// Take returns the session for a state and deletes it, so each state is
	// usable exactly once.
	Take(ctx context.Context, state string) (*OAuthSession, error)
}

type sessionRepository struct {
	redis *RedisDB
}

func NewSessionRepository(redis *RedisDB) SessionRepository {
	return &sessionRepository{redis: redis}
}

func (r *sessionRepository) Set(ctx context.Context, state string, session *OAuthSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth session: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(state), data, ttl).Err()
}

func (r *sessionRepository) Take(ctx context.Context, state string) (*OAuthSession, error) {
	data, err := r.redis.Client.GetDel(ctx, r.key(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get oauth session: %w", err)
	}

	var session OAuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth session: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) key(state string) string {
	return "oauth_state:" + state
}
