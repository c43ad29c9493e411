package meta

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xtrack"
)

type trackCall struct {
	event string
	data  map[string]any
	opts  TrackOptions
}

type fakePixel struct {
	inits    []map[string]string
	tracks   []trackCall
	initErr  error
	trackErr error
}

func (p *fakePixel) Init(match map[string]string) error {
	p.inits = append(p.inits, match)
	return p.initErr
}

func (p *fakePixel) Track(event string, data map[string]any, opts TrackOptions) error {
	p.tracks = append(p.tracks, trackCall{event: event, data: data, opts: opts})
	return p.trackErr
}

func TestSend_NilPixelIsUnavailable(t *testing.T) {
	err := New(nil).Send(context.Background(), xtrack.Envelope{EventName: xtrack.Purchase})
	assert.ErrorIs(t, err, xtrack.ErrSDKUnavailable)
}

func TestSend_TypedNilPixelIsUnavailable(t *testing.T) {
	var p *fakePixel
	err := New(p).Send(context.Background(), xtrack.Envelope{EventName: xtrack.Purchase})
	assert.ErrorIs(t, err, xtrack.ErrSDKUnavailable)

	a, err := xtrack.NewAdapter(Platform, p)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Send(context.Background(), xtrack.Envelope{EventName: xtrack.Purchase}), xtrack.ErrSDKUnavailable)
}

func TestSend_TracksWithEventIDAndDropsContentNames(t *testing.T) {
	p := &fakePixel{}
	env := xtrack.Envelope{
		EventName: xtrack.AddToCart,
		EventID:   "evt-1",
		CustomData: xtrack.CustomData{
			"content_ids":   []string{"1"},
			"content_names": []string{"Foo"},
			"value":         9.99,
			"currency":      "USD",
		},
	}

	require.NoError(t, New(p).Send(context.Background(), env))

	require.Len(t, p.tracks, 1)
	call := p.tracks[0]
	assert.Equal(t, "AddToCart", call.event)
	assert.Equal(t, TrackOptions{EventID: "evt-1"}, call.opts)
	assert.NotContains(t, call.data, "content_names")
	assert.Equal(t, 9.99, call.data["value"])
	assert.Equal(t, "USD", call.data["currency"])
	assert.Empty(t, p.inits, "no match fields, no init")

	// caller's custom data is untouched
	assert.Contains(t, env.CustomData, "content_names")
}

func TestSend_InitBeforeTrackWithMatchFieldsOnly(t *testing.T) {
	p := &fakePixel{}
	env := xtrack.Envelope{
		EventName: xtrack.Purchase,
		EventID:   "evt-2",
		UserData: xtrack.UserData{
			"email": "a@b.com",
			"em":    "fb98d44ad7501a959f3f4f4a3f004fe2d9e581ea6207e218c4b02c08a4d75adf",
			"fn":    "alex",
			"ln":    "",
		},
	}

	require.NoError(t, New(p).Send(context.Background(), env))

	require.Len(t, p.inits, 1)
	assert.Equal(t, map[string]string{
		"em": "fb98d44ad7501a959f3f4f4a3f004fe2d9e581ea6207e218c4b02c08a4d75adf",
		"fn": "alex",
	}, p.inits[0])
	require.Len(t, p.tracks, 1)
	assert.Equal(t, "Purchase", p.tracks[0].event)
}

func TestSend_InitFailureStillTracks(t *testing.T) {
	p := &fakePixel{initErr: errors.New("boom")}
	env := xtrack.Envelope{EventName: xtrack.Lead, EventID: "evt-3", UserData: xtrack.UserData{"fn": "x"}}

	err := New(p).Send(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta: init")
	assert.Len(t, p.tracks, 1)
}

func TestPixelData_Nil(t *testing.T) {
	assert.Equal(t, map[string]any{}, PixelData(nil))
}

func TestEventName_PassThrough(t *testing.T) {
	assert.Equal(t, "Purchase", EventName(xtrack.Purchase))
	assert.Equal(t, "Search", EventName("Search"))
}

func TestRegistry_Factory(t *testing.T) {
	a, err := xtrack.NewAdapter(Platform, nil)
	require.NoError(t, err)
	assert.Equal(t, Platform, a.Name())

	a, err = xtrack.NewAdapter(Platform, &fakePixel{})
	require.NoError(t, err)
	assert.NoError(t, a.Send(context.Background(), xtrack.Envelope{EventName: xtrack.ViewContent}))

	_, err = xtrack.NewAdapter(Platform, "not a pixel")
	assert.Error(t, err)
}
