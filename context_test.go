package xtrack

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

func TestClockFromContext(t *testing.T) {
	_, ok := ClockFromContext(context.Background())
	assert.False(t, ok)

	clk := xclock.Default()
	got, ok := ClockFromContext(injectClock(context.Background(), clk))
	require.True(t, ok)
	assert.Equal(t, clk, got)
}

func TestTraceSDKCall(t *testing.T) {
	// no injected logger: a no-op
	TraceSDKCall(context.Background(), "meta", "track", "Purchase", "id-1")(nil)

	ctx := injectLogger(context.Background(), xlog.Default())
	ctx = injectClock(ctx, xclock.Default())
	assert.NotPanics(t, func() {
		TraceSDKCall(ctx, "meta", "track", "Purchase", "id-1")(errors.New("blocked"))
	})
}

type vendorCodec struct{ JSONCodec }

func (vendorCodec) Name() string        { return "custom" }
func (vendorCodec) ContentType() string { return "application/vnd.xtrack+json" }

func TestBuilder_WithCodecInstance(t *testing.T) {
	sink := &recordingSink{}
	d, err := NewDispatcherBuilder().
		WithSinkInstance(sink).
		WithCodecInstance(vendorCodec{}).
		Build()
	require.NoError(t, err)
	defer func() { _ = d.Close(context.Background()) }()

	env := d.Track(context.Background(), Request{EventName: Lead})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.outs, 1)
	assert.Equal(t, "application/vnd.xtrack+json", sink.outs[0].ContentType)
	assert.Equal(t, env.EventID, sink.outs[0].EventID)
}
