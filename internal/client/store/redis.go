package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suraj-driod/swa-antarang/internal/models"
)

const defaultRedisTimeout = 5 * time.Second

// RedisConfig captures the settings for the redis-backed store.
type RedisConfig struct {
	Addr    string
	DB      int
	Prefix  string
	Timeout time.Duration
	// TTL bounds how long a session survives without being re-saved.
	// Zero keeps it until cleared.
	TTL time.Duration
}

// kv is the part of the go-redis client the store uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps the session as one JSON value under "<prefix>:session".
// It lets several client processes on one host share a sign-in.
type RedisStore struct {
	client kv
	key    string
	ttl    time.Duration
}

// ConnectRedis dials redis and validates connectivity with a ping.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
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

func NewRedisStore(client kv, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "swa-antarang"
	}
	return &RedisStore{client: client, key: prefix + ":session", ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (*models.Session, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decode(b)
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session) error {
	blob, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
