package xtrack

import (
	"errors"
	"fmt"
)

var (
	// ErrSDKUnavailable is returned by adapters whose SDK handle is not loaded.
	// The dispatcher reports it as a skip, not a failure.
	ErrSDKUnavailable = errors.New("xtrack: sdk not available")

	ErrDispatcherClosed            = errors.New("xtrack: dispatcher is closed")
	ErrNoSinkConfigured            = errors.New("xtrack: no relay sink configured")
	ErrSDKPanic                    = errors.New("xtrack: sdk call panicked")
	ErrObserverPoolShutdownTimeout = errors.New("xtrack: observer pool shutdown timeout")
)

type ErrUnknownSink struct{ name string }

func (e ErrUnknownSink) Error() string { return fmt.Sprintf("xtrack: unknown sink: %s", e.name) }

type ErrUnknownPlatform struct{ name string }

func (e ErrUnknownPlatform) Error() string {
	return fmt.Sprintf("xtrack: no adapter registered for platform %q", e.name)
}

// StatusError reports a non-2xx answer from the ingestion endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("xtrack: relay endpoint returned status %d", e.Code)
}
