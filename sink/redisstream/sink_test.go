package redisstream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xtrack"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSink_Send(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	s, err := NewSinkWithClient(client, Defaults())
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := xtrack.Outbound{
		EventID:     "5f0c4a52-8f2e-4b8e-9c1e-0a8d3f6b7c21",
		EventName:   xtrack.Purchase,
		Body:        []byte(`{"event_name":"Purchase"}`),
		ContentType: "application/json",
		ProducedAt:  at,
	}
	require.NoError(t, s.Send(ctx, out))

	msgs, err := client.XRange(ctx, "xtrack:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	v := msgs[0].Values
	assert.Equal(t, out.EventID, v[fieldEventID])
	assert.Equal(t, "Purchase", v[fieldEventName])
	assert.Equal(t, `{"event_name":"Purchase"}`, v[fieldPayload])
	assert.Equal(t, "application/json", v[fieldContentType])

	sent, failed := s.Stats()
	assert.Equal(t, uint64(1), sent)
	assert.Equal(t, uint64(0), failed)
}

func TestSink_MaxLenApprox(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	cfg := Defaults()
	cfg.Stream = "bounded"
	cfg.MaxLenApprox = 5
	s, err := NewSinkWithClient(client, cfg)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Send(ctx, xtrack.Outbound{EventID: "id", EventName: xtrack.ViewContent, Body: []byte("{}")}))
	}

	n, err := client.XLen(ctx, "bounded").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, int64(20))
	assert.GreaterOrEqual(t, n, int64(5))
}

func TestSink_ServerDown(t *testing.T) {
	client, mr := newTestClient(t)
	s, err := NewSinkWithClient(client, Defaults())
	require.NoError(t, err)
	mr.Close()

	err = s.Send(context.Background(), xtrack.Outbound{EventID: "id", Body: []byte("{}")})
	assert.Error(t, err)

	_, failed := s.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestSink_ClosedBorrowedClient(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	s, err := NewSinkWithClient(client, Defaults())
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	assert.ErrorIs(t, s.Send(ctx, xtrack.Outbound{}), ErrClosed)
	assert.NoError(t, client.Ping(ctx).Err())
}

func TestRegistry_BuildsSinkByName(t *testing.T) {
	_, mr := newTestClient(t)

	sk, err := xtrack.NewSink(SinkName, map[string]any{"addr": mr.Addr(), "stream": "named"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sk.Close(context.Background()) })

	rs, ok := sk.(*Sink)
	require.True(t, ok)
	assert.Equal(t, "named", rs.Stream())
}

func TestDispatcher_RelaysThroughStream(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	cfg := Defaults()
	cfg.Addr = mr.Addr()
	cfg.Stream = "conversions"

	d, closeFn, err := xtrack.New(func(b *xtrack.DispatcherBuilder) {
		b.WithSink(SinkName, cfg.toMap()).
			WithUserAgent(func() string { return "test-agent" })
	})
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	env := d.Track(ctx, xtrack.Request{
		EventName:  xtrack.AddToCart,
		SourceURL:  "https://shop.example/p/7",
		CustomData: xtrack.CustomData{"content_ids": []string{"7"}},
	})

	msgs, err := client.XRange(ctx, "conversions", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, env.EventID, msgs[0].Values[fieldEventID])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values[fieldPayload].(string)), &body))
	assert.Equal(t, env.EventID, body["event_id"])
	assert.Equal(t, "AddToCart", body["event_name"])
	assert.Equal(t, "https://shop.example/p/7", body["event_source_url"])
	assert.Equal(t, "test-agent", body["user_data"].(map[string]any)["client_user_agent"])
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())

	cfg := Defaults()
	cfg.Stream = ""
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.MaxLenApprox = -1
	assert.Error(t, cfg.Validate())
}

func TestConfigFromMap_Defaults(t *testing.T) {
	cfg := ConfigFromMap(nil)
	assert.Equal(t, Defaults(), cfg)

	cfg = ConfigFromMap(map[string]any{"max_len_approx": 10, "stream": "s"})
	assert.Equal(t, int64(10), cfg.MaxLenApprox)
	assert.Equal(t, "s", cfg.Stream)
}
