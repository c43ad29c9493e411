package xtrack

import (
	"context"
	"net/url"

	"github.com/trickstertwo/xlog"
)

// ClickIDKey is a recognized attribution query parameter.
type ClickIDKey string

const (
	FBCLID ClickIDKey = "fbclid"  // Meta
	TTCLID ClickIDKey = "ttclid"  // TikTok
	RDTCID ClickIDKey = "rdt_cid" // Reddit
)

// ClickIDKeys is the closed set of parameters Capture looks for.
var ClickIDKeys = []ClickIDKey{FBCLID, TTCLID, RDTCID}

// StorageKeyPrefix namespaces attribution entries in the session store.
const StorageKeyPrefix = "xtrack_cid_"

// StorageKey returns the session-store key for k.
func StorageKey(k ClickIDKey) string { return StorageKeyPrefix + string(k) }

// Attribution is a snapshot of captured click identifiers.
type Attribution map[ClickIDKey]string

func (a Attribution) Clone() Attribution {
	if a == nil {
		return nil
	}
	out := make(Attribution, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// AttributionStore carries click identifiers from the landing URL to every
// later event of the same session. Storage failures are never surfaced.
type AttributionStore struct {
	store  SessionStore
	logger *xlog.Logger
}

// NewAttributionStore wraps store. A nil store disables attribution.
func NewAttributionStore(store SessionStore, logger *xlog.Logger) *AttributionStore {
	if logger == nil {
		logger = xlog.Default()
	}
	return &AttributionStore{store: store, logger: logger}
}

// Capture records every recognized, non-empty click identifier found in the
// query string of pageURL. Values already stored for keys absent from
// pageURL are left untouched.
func (a *AttributionStore) Capture(ctx context.Context, pageURL string) {
	if a.store == nil || pageURL == "" {
		return
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		a.logger.Debug().Err(err).Msg("xtrack: capture skipped, unparsable url")
		return
	}
	params := u.Query()
	for _, key := range ClickIDKeys {
		val := params.Get(string(key))
		if val == "" {
			continue
		}
		if err := a.store.Set(ctx, StorageKey(key), val); err != nil {
			a.logger.Debug().Str("key", string(key)).Err(err).Msg("xtrack: session store unavailable")
			return
		}
	}
}

// Read returns the stored identifiers, omitting absent keys. On storage
// failure it returns an empty snapshot.
func (a *AttributionStore) Read(ctx context.Context) Attribution {
	ids := Attribution{}
	if a.store == nil {
		return ids
	}
	for _, key := range ClickIDKeys {
		val, err := a.store.Get(ctx, StorageKey(key))
		if err != nil {
			a.logger.Debug().Str("key", string(key)).Err(err).Msg("xtrack: session store unavailable")
			return Attribution{}
		}
		if val != "" {
			ids[key] = val
		}
	}
	return ids
}
