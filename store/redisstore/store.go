// Package redisstore keeps captured click identifiers in Redis, one key per
// identifier, scoped to a session and expiring with it.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	cfg    Config
	client *redis.Client
	owned  bool
	closed atomic.Bool
}

// NewStore connects to Redis and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		PoolSize:     10,
		MinIdleConns: 1,
	})
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{cfg: cfg, client: client, owned: true}, nil
}

// NewStoreWithClient scopes an existing client to cfg's session. Close does
// not close a client it did not create.
func NewStoreWithClient(client *redis.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("redisstore: nil client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, client: client}, nil
}

// Key returns the Redis key holding key for this session.
func (s *Store) Key(key string) string {
	return s.cfg.Prefix + ":" + s.cfg.Session + ":" + key
}

// Get returns "" and a nil error for absent keys.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redisstore: get %s: %w", key, err)
	}
	return v, nil
}

// Set writes value and refreshes the session TTL on that key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.Key(key), value, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.closed.Swap(true) || !s.owned {
		return nil
	}
	return s.client.Close()
}

func ping(c *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := c.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redisstore: ping: %w", err)
	}
	if strings.ToUpper(res) != "PONG" {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}
	return nil
}
