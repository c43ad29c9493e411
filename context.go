package xtrack

import (
	"context"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// ctxKey is the base for all context keys in xtrack (prevents collisions).
type ctxKey string

const (
	loggerCtxKey ctxKey = "xtrack:logger"
	clockCtxKey  ctxKey = "xtrack:clock"
)

func injectLogger(ctx context.Context, l *xlog.Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerCtxKey, l)
}

// LoggerFromContext returns the dispatcher's logger inside an adapter call.
func LoggerFromContext(ctx context.Context) (*xlog.Logger, bool) {
	if v := ctx.Value(loggerCtxKey); v != nil {
		if l, ok := v.(*xlog.Logger); ok && l != nil {
			return l, true
		}
	}
	return nil, false
}

func injectClock(ctx context.Context, c xclock.Clock) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, clockCtxKey, c)
}

// ClockFromContext returns the dispatcher's clock inside an adapter call.
func ClockFromContext(ctx context.Context) (xclock.Clock, bool) {
	if v := ctx.Value(clockCtxKey); v != nil {
		if c, ok := v.(xclock.Clock); ok && c != nil {
			return c, true
		}
	}
	return nil, false
}

// TraceSDKCall starts timing one SDK call on the dispatcher's clock. The
// returned func logs the call at debug level with its duration and error.
// Outside a dispatch (no injected logger) it does nothing.
func TraceSDKCall(ctx context.Context, platform, method, event, eventID string) func(err error) {
	lg, ok := LoggerFromContext(ctx)
	if !ok {
		return func(error) {}
	}
	clk, ok := ClockFromContext(ctx)
	if !ok {
		clk = xclock.Default()
	}
	start := clk.Now()
	return func(err error) {
		lg.Debug().
			Str("platform", platform).
			Str("method", method).
			Str("event", event).
			Str("event_id", eventID).
			Dur("duration", clk.Since(start)).
			Err(err).
			Msg("xtrack: pixel call")
	}
}
