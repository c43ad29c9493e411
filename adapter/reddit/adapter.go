// Package reddit adapts envelopes to the Reddit pixel.
package reddit

import (
	"context"
	"fmt"

	"github.com/trickstertwo/xtrack"
)

// Adapter: Reddit pixel (Strategy + Adapter patterns)

const Platform = "reddit"

func init() {
	if err := xtrack.RegisterAdapter(Platform, func(handle any) (xtrack.Adapter, error) {
		if xtrack.IsNilHandle(handle) {
			return New(nil), nil
		}
		p, ok := handle.(Pixel)
		if !ok {
			return nil, fmt.Errorf("reddit: handle %T does not implement reddit.Pixel", handle)
		}
		return New(p), nil
	}); err != nil {
		panic(fmt.Errorf("xtrack: failed to register adapter %q: %w", Platform, err))
	}
}

// Properties of one track call. ConversionID is the dedup token; Reddit
// takes it as a property rather than a call option.
type Properties struct {
	ConversionID string   `json:"conversion_id"`
	Value        *float64 `json:"value,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	ItemCount    *int     `json:"itemCount,omitempty"`
}

// Pixel is the call surface of a loaded Reddit pixel.
type Pixel interface {
	Track(event string, props Properties) error
}

var eventNames = map[xtrack.EventName]string{
	xtrack.ViewContent: "ViewContent",
	xtrack.AddToCart:   "AddToCart",
	xtrack.Purchase:    "Purchase",
	xtrack.Lead:        "Lead",
}

// EventName translates a canonical name; unmapped names pass through.
func EventName(n xtrack.EventName) string {
	if v, ok := eventNames[n]; ok {
		return v
	}
	return string(n)
}

// BuildProperties shapes the track call for env.
func BuildProperties(env xtrack.Envelope) Properties {
	p := Properties{ConversionID: env.EventID}
	if v, ok := env.CustomData.Value(); ok {
		p.Value = &v
	}
	p.Currency = env.CustomData.Currency()
	if ids, ok := env.CustomData.ContentIDs(); ok {
		n := len(ids)
		p.ItemCount = &n
	}
	return p
}

type Adapter struct {
	pixel Pixel
}

var _ xtrack.Adapter = (*Adapter)(nil)

// New wraps p. A nil p, typed or not, yields an adapter that always reports
// ErrSDKUnavailable.
func New(p Pixel) *Adapter {
	if xtrack.IsNilHandle(p) {
		return &Adapter{}
	}
	return &Adapter{pixel: p}
}

func (a *Adapter) Name() string { return Platform }

func (a *Adapter) Send(ctx context.Context, env xtrack.Envelope) error {
	if a.pixel == nil {
		return xtrack.ErrSDKUnavailable
	}

	name := EventName(env.EventName)
	done := xtrack.TraceSDKCall(ctx, Platform, "track", name, env.EventID)
	err := a.pixel.Track(name, BuildProperties(env))
	done(err)

	if err != nil {
		return fmt.Errorf("reddit: track: %w", err)
	}
	return nil
}
