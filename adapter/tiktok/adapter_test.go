package tiktok

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
	props Properties
}

type fakePixel struct {
	calls      []string
	identities []Identity
	tracks     []trackCall
	trackErr   error
}

func (p *fakePixel) Identify(id Identity) error {
	p.calls = append(p.calls, "identify")
	p.identities = append(p.identities, id)
	return nil
}

func (p *fakePixel) Track(event string, props Properties) error {
	p.calls = append(p.calls, "track")
	p.tracks = append(p.tracks, trackCall{event: event, props: props})
	return p.trackErr
}

func TestBuildContents_MissingNamesDefaultEmpty(t *testing.T) {
	contents := BuildContents(xtrack.CustomData{
		"content_ids":   []string{"1", "2"},
		"content_names": []string{"Foo"},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, Content{ContentID: "1", ContentType: "product", ContentName: "Foo"}, contents[0])
	assert.Equal(t, Content{ContentID: "2", ContentType: "product", ContentName: ""}, contents[1])
}

func TestBuildContents_DecodedJSONShapes(t *testing.T) {
	contents := BuildContents(xtrack.CustomData{
		"content_ids":  []any{"9"},
		"content_type": "product_group",
	})
	require.Len(t, contents, 1)
	assert.Equal(t, "9", contents[0].ContentID)
	assert.Equal(t, "product_group", contents[0].ContentType)
}

func TestBuildProperties_ValueCurrencyOnlyWhenPresent(t *testing.T) {
	p := BuildProperties(xtrack.CustomData{})
	assert.Nil(t, p.Value)
	assert.Equal(t, "", p.Currency)
	assert.NotNil(t, p.Contents)
	assert.Empty(t, p.Contents)

	p = BuildProperties(xtrack.CustomData{"value": 0.0, "currency": "EUR"})
	require.NotNil(t, p.Value)
	assert.Equal(t, 0.0, *p.Value)
	assert.Equal(t, "EUR", p.Currency)
}

func TestSend_PurchaseMapsToCompletePayment(t *testing.T) {
	p := &fakePixel{}
	env := xtrack.Envelope{
		EventName:  xtrack.Purchase,
		EventID:    "evt-1",
		CustomData: xtrack.CustomData{"content_ids": []string{"7"}, "value": 42.5, "currency": "USD"},
	}

	require.NoError(t, New(p).Send(context.Background(), env))

	require.Len(t, p.tracks, 1)
	assert.Equal(t, "CompletePayment", p.tracks[0].event)
	require.NotNil(t, p.tracks[0].props.Value)
	assert.Equal(t, 42.5, *p.tracks[0].props.Value)
	assert.Empty(t, p.identities)
}

func TestSend_IdentifyBeforeTrack(t *testing.T) {
	p := &fakePixel{}
	env := xtrack.Envelope{
		EventName: xtrack.Lead,
		UserData:  xtrack.UserData{"email": "a@b.com", "phone": "5551234567"},
	}

	require.NoError(t, New(p).Send(context.Background(), env))

	assert.Equal(t, []string{"identify", "track"}, p.calls)
	assert.Equal(t, Identity{Email: "a@b.com", PhoneNumber: "5551234567"}, p.identities[0])
	assert.Equal(t, "SubmitForm", p.tracks[0].event)
}

func TestSend_TrackError(t *testing.T) {
	p := &fakePixel{trackErr: errors.New("blocked")}
	err := New(p).Send(context.Background(), xtrack.Envelope{EventName: xtrack.ViewContent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiktok: track")
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

func TestEventName_PassThrough(t *testing.T) {
	assert.Equal(t, "AddToCart", EventName(xtrack.AddToCart))
	assert.Equal(t, "Search", EventName("Search"))
}
