package xtrack

import (
	"time"
)

// Outbound is the encoded server-bound copy of one envelope as handed to a Sink.
type Outbound struct {
	// EventID is the dedup token shared with every pixel call of the same dispatch.
	EventID string
	// EventName is the canonical business action, kept for sink-side routing and logs.
	EventName EventName
	// Body is the payload encoded by the configured Codec.
	Body []byte
	// ContentType is the codec's media type.
	ContentType string
	// ProducedAt is the envelope timestamp (from injected clock).
	ProducedAt time.Time
}
