package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xtrack"
	_ "github.com/trickstertwo/xtrack/adapter/meta"
	_ "github.com/trickstertwo/xtrack/adapter/reddit"
	_ "github.com/trickstertwo/xtrack/adapter/tiktok"
	"github.com/trickstertwo/xtrack/internal/config"
	"github.com/trickstertwo/xtrack/internal/consolepixel"
	"github.com/trickstertwo/xtrack/sink/redisstream"
	"github.com/trickstertwo/xtrack/store/memory"
	"github.com/trickstertwo/xtrack/store/redisstore"
)

// wiring turns configuration into dispatchers. One Redis client is shared
// by every session it creates, so per-visitor dispatchers stay cheap.
type wiring struct {
	cfg    *config.Config
	logger *xlog.Logger
	redis  *redis.Client

	// recorder holds the pixel calls of the most recent session only.
	recorder *consolepixel.Recorder
}

func newWiring(c *config.Config, logger *xlog.Logger) (*wiring, error) {
	w := &wiring{cfg: c, logger: logger}
	if c.Relay.Sink == redisstream.SinkName || c.Session.Store == "redis" {
		w.redis = redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Username: c.Redis.Username,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := w.redis.Ping(context.Background()).Err(); err != nil {
			_ = w.redis.Close()
			return nil, fmt.Errorf("redis ping %s: %w", c.Redis.Addr, err)
		}
	}
	return w, nil
}

// session describes one visitor: where they landed and what browser they use.
type session struct {
	ID         string
	LandingURL string
	UserAgent  string
}

func (w *wiring) dispatcher(s session, obs ...xtrack.Observer) (*xtrack.Dispatcher, error) {
	store, err := w.store(s.ID)
	if err != nil {
		return nil, err
	}
	w.recorder = consolepixel.NewRecorder(w.logger)

	b := xtrack.NewDispatcherBuilder().
		WithLogger(w.logger).
		WithSessionStore(store).
		WithCapabilities(w.recorder.Capabilities(w.cfg.Adapters.Enabled...)).
		WithRelayTimeout(w.cfg.Relay.Timeout).
		WithAdapterTimeout(w.cfg.Relay.AdapterTimeout).
		WithObserver(obs...)

	if s.LandingURL != "" {
		landing := s.LandingURL
		b.WithLocation(func() string { return landing })
	}
	if s.UserAgent != "" {
		ua := s.UserAgent
		b.WithUserAgent(func() string { return ua })
	}

	switch w.cfg.Relay.Sink {
	case redisstream.SinkName:
		sk, err := redisstream.NewSinkWithClient(w.redis, redisstream.Config{
			Addr:         w.cfg.Redis.Addr,
			Stream:       w.cfg.Redis.Stream,
			MaxLenApprox: w.cfg.Redis.MaxLenApprox,
		})
		if err != nil {
			return nil, err
		}
		b.WithSinkInstance(sk)
	default:
		b.WithSink(xtrack.HTTPSinkName, map[string]any{
			"base_url": w.cfg.Relay.BaseURL,
			"path":     w.cfg.Relay.Path,
		})
	}

	return b.Build()
}

func (w *wiring) store(id string) (xtrack.SessionStore, error) {
	if w.cfg.Session.Store != "redis" {
		return memory.New(), nil
	}
	if id == "" {
		id = uuid.NewString()
	}
	return redisstore.NewStoreWithClient(w.redis, redisstore.Config{
		Addr:    w.cfg.Redis.Addr,
		Prefix:  w.cfg.Session.Prefix,
		Session: id,
		TTL:     w.cfg.Session.TTL,
	})
}

func (w *wiring) Close() error {
	if w.redis != nil {
		return w.redis.Close()
	}
	return nil
}
