package xtrack

import (
	"errors"
	"reflect"
	"sort"
	"sync"
)

// AdapterFactory builds a platform adapter around an SDK handle. The handle
// may be nil (see IsNilHandle), in which case the adapter must be a no-op.
type AdapterFactory func(handle any) (Adapter, error)

// SinkFactory constructs relay sinks from a config blob.
type SinkFactory func(cfg map[string]any) (Sink, error)

var (
	adapterRegistryMu sync.RWMutex
	adapterRegistry   = map[string]AdapterFactory{}

	sinkRegistryMu sync.RWMutex
	sinkRegistry   = map[string]SinkFactory{
		HTTPSinkName: func(cfg map[string]any) (Sink, error) {
			return NewHTTPSink(HTTPSinkConfigFromMap(cfg))
		},
	}
)

// RegisterAdapter registers a platform adapter factory. Adapter packages
// call it from init().
func RegisterAdapter(platform string, factory AdapterFactory) error {
	if platform == "" {
		return errors.New("platform name must not be empty")
	}
	if factory == nil {
		return errors.New("adapter factory must not be nil")
	}
	adapterRegistryMu.Lock()
	adapterRegistry[platform] = factory
	adapterRegistryMu.Unlock()
	return nil
}

// NewAdapter builds the adapter registered for platform around handle.
func NewAdapter(platform string, handle any) (Adapter, error) {
	adapterRegistryMu.RLock()
	f, ok := adapterRegistry[platform]
	adapterRegistryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownPlatform{name: platform}
	}
	return f(handle)
}

// IsNilHandle reports whether an SDK handle is absent: either an untyped nil
// or a typed nil pointer, map, func or channel stored in an interface.
func IsNilHandle(h any) bool {
	if h == nil {
		return true
	}
	switch v := reflect.ValueOf(h); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Platforms lists the registered platform names in sorted order.
func Platforms() []string {
	adapterRegistryMu.RLock()
	names := make([]string, 0, len(adapterRegistry))
	for name := range adapterRegistry {
		names = append(names, name)
	}
	adapterRegistryMu.RUnlock()
	sort.Strings(names)
	return names
}

// RegisterSink registers a relay sink backend.
func RegisterSink(name string, factory SinkFactory) error {
	if name == "" {
		return errors.New("sink name must not be empty")
	}
	if factory == nil {
		return errors.New("sink factory must not be nil")
	}
	sinkRegistryMu.Lock()
	sinkRegistry[name] = factory
	sinkRegistryMu.Unlock()
	return nil
}

// NewSink constructs a sink by name with config.
func NewSink(name string, cfg map[string]any) (Sink, error) {
	sinkRegistryMu.RLock()
	f, ok := sinkRegistry[name]
	sinkRegistryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownSink{name: name}
	}
	return f(cfg)
}
