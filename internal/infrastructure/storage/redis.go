package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	redisPrefix    = "fieldops:"
)

// RedisConfig captures the settings for establishing a Redis connection.
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// ConnectRedis initialises a Redis client and validates connectivity with a
// ping. A default timeout is applied when none is provided.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// RedisStore backs both the credential store and the plain KV store with
// Redis, for kiosk deployments where several terminals share one session.
// Keys are namespaced under the fieldops: prefix.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- ports.KVStore ---

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, redisPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisPrefix+key).Err(); err != nil {
		return fmt.Errorf("storage: redis del %s: %w", key, err)
	}
	return nil
}

// --- ports.CredentialStore ---
//
// The credential interface carries no context; operations run against a
// short background deadline instead.

func (s *RedisStore) AccessToken() (string, error)       { return s.credGet(keyAccess) }
func (s *RedisStore) SetAccessToken(token string) error  { return s.credSet(keyAccess, token) }
func (s *RedisStore) RefreshToken() (string, error)      { return s.credGet(keyRefresh) }
func (s *RedisStore) SetRefreshToken(token string) error { return s.credSet(keyRefresh, token) }
func (s *RedisStore) Role() (string, error)              { return s.credGet(keyRole) }
func (s *RedisStore) SetRole(role string) error          { return s.credSet(keyRole, role) }

func (s *RedisStore) ClearAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	keys := []string{redisPrefix + keyAccess, redisPrefix + keyRefresh, redisPrefix + keyRole}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("storage: redis clear credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) credGet(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.Get(ctx, key)
}

func (s *RedisStore) credSet(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.Set(ctx, key, value)
}
