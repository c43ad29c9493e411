// Package tiktok adapts envelopes to the TikTok pixel.
package tiktok

import (
	"context"
	"errors"
	"fmt"

	"github.com/trickstertwo/xtrack"
)

// Adapter: TikTok pixel (Strategy + Adapter patterns)

const Platform = "tiktok"

func init() {
	if err := xtrack.RegisterAdapter(Platform, func(handle any) (xtrack.Adapter, error) {
		if xtrack.IsNilHandle(handle) {
			return New(nil), nil
		}
		p, ok := handle.(Pixel)
		if !ok {
			return nil, fmt.Errorf("tiktok: handle %T does not implement tiktok.Pixel", handle)
		}
		return New(p), nil
	}); err != nil {
		panic(fmt.Errorf("xtrack: failed to register adapter %q: %w", Platform, err))
	}
}

type Content struct {
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
	ContentName string `json:"content_name"`
}

type Properties struct {
	Contents []Content `json:"contents"`
	Value    *float64  `json:"value,omitempty"`
	Currency string    `json:"currency,omitempty"`
}

// Identity carries raw identifiers; the pixel hashes them itself.
type Identity struct {
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Pixel is the call surface of a loaded TikTok pixel.
type Pixel interface {
	Identify(id Identity) error
	Track(event string, props Properties) error
}

var eventNames = map[xtrack.EventName]string{
	xtrack.ViewContent: "ViewContent",
	xtrack.AddToCart:   "AddToCart",
	xtrack.Purchase:    "CompletePayment",
	xtrack.Lead:        "SubmitForm",
}

// EventName translates a canonical name; unmapped names pass through.
func EventName(n xtrack.EventName) string {
	if v, ok := eventNames[n]; ok {
		return v
	}
	return string(n)
}

// BuildContents zips content_ids with the positionally aligned
// content_names. Missing names are "".
func BuildContents(cd xtrack.CustomData) []Content {
	ids, _ := cd.ContentIDs()
	names := cd.ContentNames()
	ct := cd.ContentType()

	out := make([]Content, len(ids))
	for i, id := range ids {
		out[i] = Content{ContentID: id, ContentType: ct}
		if i < len(names) {
			out[i].ContentName = names[i]
		}
	}
	return out
}

// BuildProperties shapes the track call. Value and currency are attached
// only when present.
func BuildProperties(cd xtrack.CustomData) Properties {
	p := Properties{Contents: BuildContents(cd)}
	if v, ok := cd.Value(); ok {
		p.Value = &v
	}
	p.Currency = cd.Currency()
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

// Send identifies the shopper with raw email/phone when known, then tracks.
func (a *Adapter) Send(ctx context.Context, env xtrack.Envelope) error {
	if a.pixel == nil {
		return xtrack.ErrSDKUnavailable
	}

	var identifyErr error
	id := Identity{
		Email:       env.UserData[xtrack.FieldEmail],
		PhoneNumber: env.UserData[xtrack.FieldPhone],
	}
	if id.Email != "" || id.PhoneNumber != "" {
		if err := a.pixel.Identify(id); err != nil {
			identifyErr = fmt.Errorf("tiktok: identify: %w", err)
		}
	}

	name := EventName(env.EventName)
	done := xtrack.TraceSDKCall(ctx, Platform, "track", name, env.EventID)
	err := a.pixel.Track(name, BuildProperties(env.CustomData))
	done(err)

	var trackErr error
	if err != nil {
		trackErr = fmt.Errorf("tiktok: track: %w", err)
	}
	return errors.Join(identifyErr, trackErr)
}
