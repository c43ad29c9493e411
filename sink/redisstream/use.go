package redisstream

import (
	"fmt"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xtrack"
)

const SinkName = "redis-streams"

func init() {
	if err := xtrack.RegisterSink(SinkName, func(cfg map[string]any) (xtrack.Sink, error) {
		return NewSink(ConfigFromMap(cfg))
	}); err != nil {
		panic(fmt.Errorf("xtrack: failed to register sink %q: %w", SinkName, err))
	}
}

// Use builds a Dispatcher relaying through Redis Streams, installs it as the
// process-wide default and returns it.
func Use(cfg Config, opts ...Option) *xtrack.Dispatcher {
	db := xtrack.NewDispatcherBuilder().
		WithSink(SinkName, cfg.toMap())

	for _, o := range opts {
		if o != nil {
			o(db)
		}
	}
	d, err := db.Build()
	if err != nil {
		panic(fmt.Errorf("redisstream.Use: %w", err))
	}

	xtrack.SetDefault(d)
	return d
}

// Option configures the xtrack.Dispatcher construction when calling Use.
type Option func(*xtrack.DispatcherBuilder)

// WithLogger injects a custom xlog logger.
func WithLogger(l *xlog.Logger) Option {
	return func(b *xtrack.DispatcherBuilder) { b.WithLogger(l) }
}

// WithClock injects a custom xclock clock.
func WithClock(c xclock.Clock) Option {
	return func(b *xtrack.DispatcherBuilder) { b.WithClock(c) }
}

// WithCapabilities supplies the loaded SDK handles.
func WithCapabilities(caps xtrack.Capabilities) Option {
	return func(b *xtrack.DispatcherBuilder) { b.WithCapabilities(caps) }
}

// WithSessionStore sets where click identifiers are kept.
func WithSessionStore(s xtrack.SessionStore) Option {
	return func(b *xtrack.DispatcherBuilder) { b.WithSessionStore(s) }
}

// WithRelayTimeout bounds the XADD call.
func WithRelayTimeout(d time.Duration) Option {
	return func(b *xtrack.DispatcherBuilder) { b.WithRelayTimeout(d) }
}

// WithObserver attaches observers for lifecycle events.
func WithObserver(obs ...xtrack.Observer) Option {
	return func(b *xtrack.DispatcherBuilder) { b.WithObserver(obs...) }
}
