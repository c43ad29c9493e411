// Package meta adapts envelopes to the Meta pixel.
package meta

import (
	"context"
	"errors"
	"fmt"

	"github.com/trickstertwo/xtrack"
)

// Adapter: Meta pixel (Strategy + Adapter patterns)

const Platform = "meta"

func init() {
	if err := xtrack.RegisterAdapter(Platform, func(handle any) (xtrack.Adapter, error) {
		if xtrack.IsNilHandle(handle) {
			return New(nil), nil
		}
		p, ok := handle.(Pixel)
		if !ok {
			return nil, fmt.Errorf("meta: handle %T does not implement meta.Pixel", handle)
		}
		return New(p), nil
	}); err != nil {
		panic(fmt.Errorf("xtrack: failed to register adapter %q: %w", Platform, err))
	}
}

// TrackOptions are the per-call pixel options. EventID is the browser-side
// dedup token matched against the server copy.
type TrackOptions struct {
	EventID string `json:"eventID"`
}

// Pixel is the call surface of a loaded Meta pixel.
type Pixel interface {
	// Init re-initializes the pixel's identity context with match fields.
	Init(match map[string]string) error
	Track(event string, data map[string]any, opts TrackOptions) error
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

// PixelData is the custom data minus fields the pixel does not use.
func PixelData(cd xtrack.CustomData) map[string]any {
	out := cd.Clone()
	if out == nil {
		return map[string]any{}
	}
	delete(out, xtrack.KeyContentNames)
	return out
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

// Send re-initializes identity when match fields are present, then tracks.
// An Init failure does not prevent the Track call.
func (a *Adapter) Send(ctx context.Context, env xtrack.Envelope) error {
	if a.pixel == nil {
		return xtrack.ErrSDKUnavailable
	}

	var initErr error
	if match := env.UserData.MatchFields(); len(match) > 0 {
		if err := a.pixel.Init(match); err != nil {
			initErr = fmt.Errorf("meta: init: %w", err)
		}
	}

	name := EventName(env.EventName)
	done := xtrack.TraceSDKCall(ctx, Platform, "track", name, env.EventID)
	err := a.pixel.Track(name, PixelData(env.CustomData), TrackOptions{EventID: env.EventID})
	done(err)

	var trackErr error
	if err != nil {
		trackErr = fmt.Errorf("meta: track: %w", err)
	}
	return errors.Join(initErr, trackErr)
}
