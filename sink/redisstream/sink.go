package redisstream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trickstertwo/xtrack"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("redisstream: sink closed")

// Sink appends each relay payload to a Redis stream with one XADD, for a
// backend worker to pick up. No retry is attempted.
type Sink struct {
	cfg    Config
	client *redis.Client
	owned  bool
	closed atomic.Bool

	sent   atomic.Uint64
	failed atomic.Uint64
}

var _ xtrack.Sink = (*Sink)(nil)

// NewSink connects to Redis and verifies the connection.
func NewSink(cfg Config) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   0,
		PoolSize:     10,
		MinIdleConns: 1,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:    tls.VersionTLS12,
			ServerName:    cfg.TLSServerName,
			Renegotiation: tls.RenegotiateNever,
		}
	}

	client := redis.NewClient(opts)
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Sink{cfg: cfg, client: client, owned: true}, nil
}

// NewSinkWithClient uses an existing client. Close leaves it open.
func NewSinkWithClient(client *redis.Client, cfg Config) (*Sink, error) {
	if client == nil {
		return nil, errors.New("redisstream: nil client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sink{cfg: cfg, client: client}, nil
}

// Stream returns the target stream name.
func (s *Sink) Stream() string { return s.cfg.Stream }

func (s *Sink) Send(ctx context.Context, out xtrack.Outbound) error {
	if s.closed.Load() {
		return ErrClosed
	}

	vals := map[string]any{
		fieldEventID:     out.EventID,
		fieldEventName:   string(out.EventName),
		fieldPayload:     out.Body,
		fieldContentType: out.ContentType,
		fieldProducedAt:  out.ProducedAt.UnixNano(),
	}

	args := &redis.XAddArgs{
		Stream: s.cfg.Stream,
		ID:     "*",
		Values: vals,
	}
	// Approximate trimming keeps the stream bounded.
	if s.cfg.MaxLenApprox > 0 {
		args.MaxLen = s.cfg.MaxLenApprox
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.failed.Add(1)
		return fmt.Errorf("redisstream: xadd %s: %w", s.cfg.Stream, err)
	}
	s.sent.Add(1)
	return nil
}

// Stats returns the number of appended and failed payloads.
func (s *Sink) Stats() (sent, failed uint64) {
	return s.sent.Load(), s.failed.Load()
}

func (s *Sink) Close(_ context.Context) error {
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
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("redis ping timeout: %w", err)
		}
		return err
	}

	if strings.ToUpper(res) != "PONG" {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}

	return nil
}
