package xtrack

import (
	"context"
	"fmt"
	"sync"
)

var (
	defaultDispatcher   *Dispatcher
	defaultDispatcherMu sync.Mutex
)

// Default returns the process-wide Dispatcher, building one with the
// builder defaults on first use.
func Default() *Dispatcher {
	defaultDispatcherMu.Lock()
	defer defaultDispatcherMu.Unlock()

	if defaultDispatcher != nil {
		return defaultDispatcher
	}

	d, err := NewDispatcherBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("xtrack: failed to initialize default dispatcher: %v", err))
	}
	defaultDispatcher = d
	return defaultDispatcher
}

// SetDefault replaces the process-wide default Dispatcher.
func SetDefault(d *Dispatcher) {
	if d == nil {
		panic("xtrack: SetDefault called with nil Dispatcher")
	}
	defaultDispatcherMu.Lock()
	defaultDispatcher = d
	defaultDispatcherMu.Unlock()
}

// Dispatch is the Facade using the default dispatcher.
func Dispatch(ctx context.Context, req Request) {
	Default().Dispatch(ctx, req)
}

// Track is the Facade using the default dispatcher.
func Track(ctx context.Context, req Request) Envelope {
	return Default().Track(ctx, req)
}

// Capture is the Facade using the default dispatcher.
func Capture(ctx context.Context, pageURL string) {
	Default().Capture(ctx, pageURL)
}
