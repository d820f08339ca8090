// Package tokenstore records consumed refresh token ids so each refresh token
// can be exchanged exactly once.
package tokenstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "auth:refresh:used:"

// Store marks token ids as used. Consume reports false when the id was
// already consumed.
type Store interface {
	Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("tokenstore: setnx: %w", err)
	}
	return ok, nil
}

// MemoryStore keeps consumed ids in process. Entries expire with their token.
type MemoryStore struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{used: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Consume(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.used {
		if now.After(exp) {
			delete(s.used, id)
		}
	}
	if _, seen := s.used[jti]; seen {
		return false, nil
	}
	s.used[jti] = now.Add(ttl)
	return true, nil
}

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// Connect parses redisURL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	logrus.WithField("addr", opts.Addr).Info("Connected to Redis")
	return client, nil
}

// New returns a Redis-backed store when redisURL is set and reachable, and
// an in-memory store otherwise. The returned close func is never nil.
func New(ctx context.Context, redisURL string) (Store, func() error) {
	if redisURL == "" {
		logrus.Info("REDIS_URL not set, refresh tokens tracked in memory")
		return NewMemoryStore(), func() error { return nil }
	}
	client, err := Connect(ctx, redisURL)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, refresh tokens tracked in memory")
		return NewMemoryStore(), func() error { return nil }
	}
	return NewRedisStore(client), client.Close
}
