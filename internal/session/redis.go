package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session records in Redis hashes keyed by user id.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Get returns the stored hash for the user; missing keys yield an empty map.
func (s *RedisStore) Get(ctx context.Context, userID int64) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session get %d: %w", userID, err)
	}
	return fields, nil
}

// Set overwrites the given fields of the user's session hash.
func (s *RedisStore) Set(ctx context.Context, userID int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, key(userID), fields).Err(); err != nil {
		return fmt.Errorf("session set %d: %w", userID, err)
	}
	return nil
}

// Delete removes the user's session record entirely.
func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("session delete %d: %w", userID, err)
	}
	return nil
}
