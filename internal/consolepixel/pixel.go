// Package consolepixel provides SDK handles for every supported platform
// that log the calls they receive instead of talking to a browser. The CLI
// uses them to show what each platform would have been sent.
package consolepixel

import (
	"encoding/json"
	"sync"

	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xtrack"
	"github.com/trickstertwo/xtrack/adapter/meta"
	"github.com/trickstertwo/xtrack/adapter/reddit"
	"github.com/trickstertwo/xtrack/adapter/tiktok"
)

// Call is one recorded SDK invocation.
type Call struct {
	Platform string
	Method   string
	Event    string
	Payload  string
}

// Recorder collects calls and logs each one at debug level.
type Recorder struct {
	logger *xlog.Logger

	mu    sync.Mutex
	calls []Call
}

func NewRecorder(logger *xlog.Logger) *Recorder {
	if logger == nil {
		logger = xlog.Default()
	}
	return &Recorder{logger: logger}
}

func (r *Recorder) record(platform, method, event string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte(`null`)
	}
	c := Call{Platform: platform, Method: method, Event: event, Payload: string(b)}

	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()

	r.logger.Debug().
		Str("platform", platform).
		Str("method", method).
		Str("event", event).
		Str("payload", c.Payload).
		Msg("pixel call")
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Capabilities returns handles for the named platforms. An empty list
// enables all three.
func (r *Recorder) Capabilities(platforms ...string) xtrack.Capabilities {
	if len(platforms) == 0 {
		platforms = []string{meta.Platform, tiktok.Platform, reddit.Platform}
	}
	caps := xtrack.Capabilities{}
	for _, p := range platforms {
		switch p {
		case meta.Platform:
			caps[p] = &Meta{rec: r}
		case tiktok.Platform:
			caps[p] = &TikTok{rec: r}
		case reddit.Platform:
			caps[p] = &Reddit{rec: r}
		default:
			// Left for the builder to reject as an unknown platform.
			caps[p] = nil
		}
	}
	return caps
}

type Meta struct{ rec *Recorder }

var _ meta.Pixel = (*Meta)(nil)

func (m *Meta) Init(match map[string]string) error {
	m.rec.record(meta.Platform, "init", "", match)
	return nil
}

func (m *Meta) Track(event string, data map[string]any, opts meta.TrackOptions) error {
	m.rec.record(meta.Platform, "track", event, map[string]any{"data": data, "options": opts})
	return nil
}

type TikTok struct{ rec *Recorder }

var _ tiktok.Pixel = (*TikTok)(nil)

func (t *TikTok) Identify(id tiktok.Identity) error {
	t.rec.record(tiktok.Platform, "identify", "", id)
	return nil
}

func (t *TikTok) Track(event string, props tiktok.Properties) error {
	t.rec.record(tiktok.Platform, "track", event, props)
	return nil
}

type Reddit struct{ rec *Recorder }

var _ reddit.Pixel = (*Reddit)(nil)

func (r *Reddit) Track(event string, props reddit.Properties) error {
	r.rec.record(reddit.Platform, "track", event, props)
	return nil
}
