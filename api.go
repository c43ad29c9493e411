package xtrack

import (
	"context"
)

// Adapter is the Strategy for one advertising platform's in-browser SDK.
// Send shapes the envelope for the platform and calls its SDK handle.
// An adapter whose SDK handle is absent returns ErrSDKUnavailable.
type Adapter interface {
	Name() string
	Send(ctx context.Context, env Envelope) error
}

// Sink is the Strategy that carries the server-bound copy of an event to
// the backend ingestion endpoint.
type Sink interface {
	// Send delivers one encoded relay payload. Exactly one attempt is made.
	Send(ctx context.Context, out Outbound) error
	// Close releases resources.
	Close(ctx context.Context) error
}

// SessionStore is the tab-scoped key/value substrate that holds captured
// attribution identifiers. Get returns "" and a nil error for absent keys.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Codec is the Strategy for encoding relay payloads on the wire.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
	ContentType() string
}

// Observer receives dispatch lifecycle events. Implementations should be non-blocking.
type Observer interface {
	OnEvent(e Event)
}

// HealthChecker provides health status for production monitoring.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// LocationFunc returns the current page URL.
type LocationFunc func() string

// UserAgentFunc returns the calling browser's user-agent string.
type UserAgentFunc func() string

// Capabilities maps a platform name to its optional SDK handle. A missing
// entry or a nil handle means the SDK is not loaded.
type Capabilities map[string]any

// API represents the complete dispatcher surface.
type API interface {
	Dispatch(ctx context.Context, req Request)
	Track(ctx context.Context, req Request) Envelope
	Capture(ctx context.Context, pageURL string)
	Close(ctx context.Context) error
	GetMetrics() Metrics
	Health(ctx context.Context) HealthStatus
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
}

var _ API = (*Dispatcher)(nil)
var _ HealthChecker = (*Dispatcher)(nil)
