package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, session string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := Defaults()
	cfg.Addr = mr.Addr()
	cfg.Session = session

	s, err := NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_GetAbsent(t *testing.T) {
	s, _ := newTestStore(t, "tab-1")

	v, err := s.Get(context.Background(), "xtrack_cid_fbclid")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestStore_SetGetWithTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "tab-1")

	require.NoError(t, s.Set(ctx, "xtrack_cid_rdt_cid", "abc123"))

	v, err := s.Get(ctx, "xtrack_cid_rdt_cid")
	require.NoError(t, err)
	assert.Equal(t, "abc123", v)

	key := "xtrack:session:tab-1:xtrack_cid_rdt_cid"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	mr.FastForward(31 * time.Minute)
	v, err = s.Get(ctx, "xtrack_cid_rdt_cid")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfgA := Defaults()
	cfgA.Session = "a"
	a, err := NewStoreWithClient(client, cfgA)
	require.NoError(t, err)

	cfgB := Defaults()
	cfgB.Session = "b"
	b, err := NewStoreWithClient(client, cfgB)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "k", "from-a"))

	v, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	// closing a borrowed-client store leaves the client usable
	require.NoError(t, a.Close())
	require.NoError(t, client.Ping(ctx).Err())
}

func TestStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, "tab-1")
	mr.Close()

	_, err := s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", "v"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, cfg.Validate(), "session is required")

	cfg.Session = "s"
	assert.NoError(t, cfg.Validate())

	cfg.TTL = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestConfigFromMap(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{
		"addr":    "redis:6379",
		"session": "tab-9",
		"ttl":     "5m",
		"db":      2,
	})
	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, "tab-9", cfg.Session)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
	assert.Equal(t, 2, cfg.DB)
	assert.Equal(t, "xtrack:session", cfg.Prefix)
}
