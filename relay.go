package xtrack

import (
	"context"
	"fmt"
	"time"

	"github.com/trickstertwo/xlog"
)

// RelayPayload is the body the ingestion endpoint receives.
type RelayPayload struct {
	EventName      EventName         `json:"event_name"`
	EventID        string            `json:"event_id"`
	EventSourceURL string            `json:"event_source_url"`
	UserData       map[string]string `json:"user_data"`
	ClickID        string            `json:"click_id,omitempty"`
	CustomData     CustomData        `json:"custom_data,omitempty"`
}

// NewRelayPayload re-expresses env in the server-side field conventions.
// user_data is seeded with the user agent, overlaid with the envelope's match
// fields (raw email and phone never leave as plain text), then with the
// attribution-derived fields: Meta's fbc token and TikTok's ttclid. The
// Reddit click id travels at the top level as click_id.
func NewRelayPayload(env Envelope, userAgent string) RelayPayload {
	ud := make(map[string]string, len(env.UserData)+3)
	if userAgent != "" {
		ud[FieldUserAgent] = userAgent
	}
	for k, v := range env.UserData.MatchFields() {
		ud[k] = v
	}
	if fbclid := env.Attribution[FBCLID]; fbclid != "" {
		ud[FieldFBC] = FormatFBC(env.Timestamp, fbclid)
	}
	if ttclid := env.Attribution[TTCLID]; ttclid != "" {
		ud[FieldTTCLID] = ttclid
	}

	p := RelayPayload{
		EventName:      env.EventName,
		EventID:        env.EventID,
		EventSourceURL: env.SourceURL,
		UserData:       ud,
		ClickID:        env.ClickID,
	}
	if len(env.CustomData) > 0 {
		p.CustomData = env.CustomData.Clone()
	}
	return p
}

// FormatFBC builds Meta's click attribution token fb.1.<unix millis>.<fbclid>.
func FormatFBC(at time.Time, fbclid string) string {
	return fmt.Sprintf("fb.1.%d.%s", at.UnixMilli(), fbclid)
}

// Relay sends the server-bound copy of an envelope through a Sink. One
// attempt is made; failures are logged with the event name and returned to
// the dispatcher, which only records them.
type Relay struct {
	sink      Sink
	codec     Codec
	userAgent UserAgentFunc
	timeout   time.Duration
	logger    *xlog.Logger
}

func NewRelay(sink Sink, codec Codec, userAgent UserAgentFunc, timeout time.Duration, logger *xlog.Logger) *Relay {
	if codec == nil {
		codec = JSONCodec{}
	}
	if logger == nil {
		logger = xlog.Default()
	}
	return &Relay{sink: sink, codec: codec, userAgent: userAgent, timeout: timeout, logger: logger}
}

// Deliver encodes env and hands it to the sink once.
func (r *Relay) Deliver(ctx context.Context, env Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("xtrack: relay panic recovered: %v", rec)
		}
		if err != nil {
			r.logger.Warn().
				Str("event_name", string(env.EventName)).
				Str("event_id", env.EventID).
				Err(err).
				Msg("xtrack: failed to relay event")
		}
	}()

	if r.sink == nil {
		return ErrNoSinkConfigured
	}

	ua := ""
	if r.userAgent != nil {
		ua = r.userAgent()
	}
	body, err := r.codec.Marshal(NewRelayPayload(env, ua))
	if err != nil {
		return fmt.Errorf("xtrack: encode relay payload: %w", err)
	}

	sctx := ctx
	cancel := func() {}
	if r.timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	return r.sink.Send(sctx, Outbound{
		EventID:     env.EventID,
		EventName:   env.EventName,
		Body:        body,
		ContentType: r.codec.ContentType(),
		ProducedAt:  env.Timestamp,
	})
}
