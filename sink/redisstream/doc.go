// Package redisstream provides a Redis Streams relay sink for xtrack.
//
// Sink name: "redis-streams"
//
// Config keys:
// - addr: "host:port" (default "127.0.0.1:6379")
// - stream: stream the relay payloads are appended to (default "xtrack:events")
// - max_len_approx: approximate stream cap, 0 = unbounded
// - tls / tls_server_name: enable TLS to the server
//
// Example builder usage:
//
//	d, _ := xtrack.NewDispatcherBuilder().
//	    WithSink(redisstream.SinkName, map[string]any{
//	        "addr":           "localhost:6379",
//	        "stream":         "storefront:conversions",
//	        "max_len_approx": int64(100000),
//	    }).
//	    Build()
package redisstream
