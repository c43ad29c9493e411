package consolepixel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xtrack"
	"github.com/trickstertwo/xtrack/adapter/reddit"
)

func TestCapabilities_DefaultsToAllPlatforms(t *testing.T) {
	caps := NewRecorder(nil).Capabilities()
	assert.Len(t, caps, 3)
	assert.IsType(t, &Meta{}, caps["meta"])
	assert.IsType(t, &TikTok{}, caps["tiktok"])
	assert.IsType(t, &Reddit{}, caps["reddit"])
}

func TestCapabilities_Subset(t *testing.T) {
	caps := NewRecorder(nil).Capabilities(reddit.Platform)
	assert.Len(t, caps, 1)
	assert.Contains(t, caps, reddit.Platform)
}

func TestRecorder_ThroughDispatcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	rec := NewRecorder(nil)
	d, closeFn, err := xtrack.New(func(b *xtrack.DispatcherBuilder) {
		b.WithSink(xtrack.HTTPSinkName, map[string]any{"base_url": srv.URL}).
			WithCapabilities(rec.Capabilities())
	})
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	env := d.Track(context.Background(), xtrack.Request{
		EventName:  xtrack.Purchase,
		UserData:   xtrack.UserData{xtrack.FieldEmail: "a@b.co"},
		CustomData: xtrack.CustomData{xtrack.KeyValue: 10.0, xtrack.KeyCurrency: "USD"},
	})

	byPlatform := map[string][]Call{}
	for _, c := range rec.Calls() {
		byPlatform[c.Platform] = append(byPlatform[c.Platform], c)
	}

	require.Len(t, byPlatform["meta"], 2)
	assert.Equal(t, "init", byPlatform["meta"][0].Method)
	assert.Contains(t, byPlatform["meta"][1].Payload, env.EventID)

	require.Len(t, byPlatform["tiktok"], 2)
	assert.Equal(t, "identify", byPlatform["tiktok"][0].Method)
	assert.Equal(t, "CompletePayment", byPlatform["tiktok"][1].Event)

	require.Len(t, byPlatform["reddit"], 1)
	assert.Contains(t, byPlatform["reddit"][0].Payload, `"conversion_id":"`+env.EventID+`"`)
}
