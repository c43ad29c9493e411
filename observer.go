package xtrack

import (
	"github.com/trickstertwo/xlog"
)

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// LoggingObserver is an Adapter that emits dispatch lifecycle events via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnEvent(e Event) {
	if o.Logger == nil {
		return
	}
	switch {
	case e.Err != nil && e.Type != AdapterSkipped:
		o.Logger.Warn().
			Str("type", string(e.Type)).
			Str("event_name", string(e.EventName)).
			Str("event_id", e.EventID).
			Str("platform", e.Platform).
			Dur("duration", e.Duration).
			Err(e.Err).
			Msg("xtrack event")
	default:
		o.Logger.Debug().
			Str("type", string(e.Type)).
			Str("event_name", string(e.EventName)).
			Str("event_id", e.EventID).
			Str("platform", e.Platform).
			Dur("duration", e.Duration).
			Msg("xtrack event")
	}
}
