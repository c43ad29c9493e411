package xtrack

import (
	"context"
	"fmt"
	"time"
)

// SendFunc delivers one envelope to one platform.
type SendFunc func(ctx context.Context, env Envelope) error

// Middleware composes concerns around an adapter's SendFunc.
type Middleware func(next SendFunc) SendFunc

// TimeoutMiddleware bounds how long the dispatcher waits for one SDK call.
// The call itself is not cancelled; its late result is discarded.
func TimeoutMiddleware(d time.Duration) Middleware {
	if d <= 0 {
		// No-op if duration invalid.
		return func(next SendFunc) SendFunc { return next }
	}
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, env Envelope) error {
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						errCh <- fmt.Errorf("%w: %v", ErrSDKPanic, r)
					}
				}()
				errCh <- next(tctx, env)
			}()

			select {
			case <-tctx.Done():
				return tctx.Err()
			case err := <-errCh:
				return err
			}
		}
	}
}

// RecoveryMiddleware turns a panicking SDK call into an error so sibling
// adapters and the relay keep running.
func RecoveryMiddleware() Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, env Envelope) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrSDKPanic, r)
				}
			}()
			return next(ctx, env)
		}
	}
}

// Chain composes middlewares around a SendFunc in order.
func Chain(h SendFunc, mws ...Middleware) SendFunc {
	if len(mws) == 0 {
		return h
	}
	wrapped := h
	// Apply in reverse so that first middleware wraps last.
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
