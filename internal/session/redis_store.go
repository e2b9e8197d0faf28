package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, clientID string) (string, error) {
	id, err := s.client.Get(ctx, storeKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return id, nil
}

// Set persists without TTL: a session id lives until explicitly rotated.
func (s *RedisStore) Set(ctx context.Context, clientID string, sessionID string) error {
	if err := s.client.Set(ctx, storeKey(clientID), sessionID, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func storeKey(clientID string) string {
	return fmt.Sprintf("session:%s", clientID)
}
