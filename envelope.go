package xtrack

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
)

// Envelope is the canonical record of one dispatch. Every adapter and the
// relay receive the same EventID. Consumers get their own Clone.
type Envelope struct {
	EventName   EventName
	EventID     string
	SourceURL   string
	Timestamp   time.Time
	UserData    UserData
	CustomData  CustomData
	Attribution Attribution
	// ClickID is the Reddit click identifier, surfaced at the top level
	// because its server-side consumer expects it there.
	ClickID string
}

// Clone returns a deep copy so no consumer can observe another's mutations.
func (e Envelope) Clone() Envelope {
	out := e
	out.UserData = e.UserData.Clone()
	out.CustomData = e.CustomData.Clone()
	out.Attribution = e.Attribution.Clone()
	return out
}

// EnvelopeBuilder is the single authority for event-ID generation and for
// merging caller data with the session's attribution context.
type EnvelopeBuilder struct {
	attribution *AttributionStore
	location    LocationFunc
	clock       xclock.Clock
	newID       func() string
}

func NewEnvelopeBuilder(attribution *AttributionStore, location LocationFunc, clock xclock.Clock) *EnvelopeBuilder {
	if clock == nil {
		clock = xclock.Default()
	}
	if attribution == nil {
		attribution = NewAttributionStore(nil, nil)
	}
	return &EnvelopeBuilder{
		attribution: attribution,
		location:    location,
		clock:       clock,
		newID:       uuid.NewString,
	}
}

// Build produces a fresh envelope. It never fails: missing attribution
// degrades to an empty snapshot.
func (b *EnvelopeBuilder) Build(ctx context.Context, req Request) Envelope {
	src := req.SourceURL
	if src == "" && b.location != nil {
		src = b.location()
	}

	ids := b.attribution.Read(ctx)

	return Envelope{
		EventName:   req.EventName,
		EventID:     b.newID(),
		SourceURL:   src,
		Timestamp:   b.clock.Now(),
		UserData:    HashUserData(req.UserData),
		CustomData:  req.CustomData.Clone(),
		Attribution: ids,
		ClickID:     ids[RDTCID],
	}
}
