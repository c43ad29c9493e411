package xtrack

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// Dispatcher is the single entry point the storefront calls. It builds one
// envelope per business action and fans it out to every platform adapter and
// to the server relay.
type Dispatcher struct {
	attribution *AttributionStore
	builder     *EnvelopeBuilder
	adapters    []boundAdapter
	relay       *Relay
	sink        Sink
	clock       xclock.Clock
	logger      *xlog.Logger

	observerPool *ObserverPool
	observersMu  sync.RWMutex
	observers    []Observer

	metrics dispatchMetrics

	// mu orders inflight.Add against Close so no dispatch starts after the drain.
	mu        sync.RWMutex
	inflight  sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

// boundAdapter is an adapter with the dispatcher's middleware chain applied.
type boundAdapter struct {
	name string
	send SendFunc
}

type dispatchMetrics struct {
	dispatched     atomic.Uint64
	adapterCalls   atomic.Uint64
	adapterErrors  atomic.Uint64
	adapterSkipped atomic.Uint64
	relayed        atomic.Uint64
	relayErrors    atomic.Uint64
	processingNs   atomic.Int64
}

// Dispatch submits req and returns without waiting. The work is detached
// from ctx cancellation; outcomes are only visible to observers and logs.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) {
	if !d.acquire() {
		d.logger.Debug().Str("event_name", string(req.EventName)).Err(ErrDispatcherClosed).Msg("xtrack: dispatch dropped")
		return
	}
	// The caller may reuse its maps as soon as Dispatch returns.
	req.UserData = req.UserData.Clone()
	req.CustomData = req.CustomData.Clone()
	dctx := context.WithoutCancel(ctx)
	go func() {
		defer d.inflight.Done()
		d.fanOut(dctx, d.builder.Build(dctx, req))
	}()
}

// Track is the synchronous form of Dispatch: it returns once every adapter
// and the relay have finished. The envelope is returned for correlation.
func (d *Dispatcher) Track(ctx context.Context, req Request) Envelope {
	env := d.builder.Build(ctx, req)
	if !d.acquire() {
		d.logger.Debug().Str("event_name", string(req.EventName)).Err(ErrDispatcherClosed).Msg("xtrack: track dropped")
		return env
	}
	defer d.inflight.Done()
	d.fanOut(ctx, env)
	return env
}

// Capture records click identifiers found in pageURL for later events.
func (d *Dispatcher) Capture(ctx context.Context, pageURL string) {
	d.attribution.Capture(ctx, pageURL)
}

// Attribution returns the identifiers currently held for the session.
func (d *Dispatcher) Attribution(ctx context.Context) Attribution {
	return d.attribution.Read(ctx)
}

func (d *Dispatcher) acquire() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return false
	}
	d.inflight.Add(1)
	return true
}

// fanOut hands a private copy of env to every adapter and to the relay,
// concurrently, and waits for all of them.
func (d *Dispatcher) fanOut(ctx context.Context, env Envelope) {
	start := d.clock.Now()
	d.metrics.dispatched.Add(1)
	d.notify(Event{Type: DispatchStart, EventName: env.EventName, EventID: env.EventID})

	hctx := injectLogger(ctx, d.logger)
	hctx = injectClock(hctx, d.clock)

	var wg sync.WaitGroup
	for _, a := range d.adapters {
		wg.Add(1)
		go func(a boundAdapter, env Envelope) {
			defer wg.Done()
			d.runAdapter(hctx, a, env)
		}(a, env.Clone())
	}
	wg.Add(1)
	go func(env Envelope) {
		defer wg.Done()
		d.runRelay(hctx, env)
	}(env.Clone())
	wg.Wait()

	elapsed := d.clock.Since(start)
	d.recordProcessingTime(elapsed.Nanoseconds())
	d.notify(Event{Type: DispatchDone, EventName: env.EventName, EventID: env.EventID, Duration: elapsed})
}

func (d *Dispatcher) runAdapter(ctx context.Context, a boundAdapter, env Envelope) {
	start := d.clock.Now()
	err := a.send(ctx, env)
	elapsed := d.clock.Since(start)

	switch {
	case err == nil:
		d.metrics.adapterCalls.Add(1)
		d.notify(Event{Type: AdapterDone, EventName: env.EventName, EventID: env.EventID, Platform: a.name, Duration: elapsed})
	case errors.Is(err, ErrSDKUnavailable):
		d.metrics.adapterSkipped.Add(1)
		d.logger.Debug().Str("platform", a.name).Str("event_name", string(env.EventName)).Msg("xtrack: sdk not loaded, adapter skipped")
		d.notify(Event{Type: AdapterSkipped, EventName: env.EventName, EventID: env.EventID, Platform: a.name, Duration: elapsed, Err: err})
	default:
		d.metrics.adapterErrors.Add(1)
		d.logger.Warn().Str("platform", a.name).Str("event_name", string(env.EventName)).Err(err).Msg("xtrack: adapter call failed")
		d.notify(Event{Type: AdapterDone, EventName: env.EventName, EventID: env.EventID, Platform: a.name, Duration: elapsed, Err: err})
	}
}

func (d *Dispatcher) runRelay(ctx context.Context, env Envelope) {
	start := d.clock.Now()
	err := d.relay.Deliver(ctx, env)
	if err != nil {
		d.metrics.relayErrors.Add(1)
	} else {
		d.metrics.relayed.Add(1)
	}
	d.notify(Event{Type: RelayDone, EventName: env.EventName, EventID: env.EventID, Duration: d.clock.Since(start), Err: err})
}

// GetMetrics returns current dispatcher metrics.
func (d *Dispatcher) GetMetrics() Metrics {
	var dropped uint64
	if d.observerPool != nil {
		dropped = d.observerPool.Stats().Dropped
	}
	return Metrics{
		Dispatched:        d.metrics.dispatched.Load(),
		AdapterCalls:      d.metrics.adapterCalls.Load(),
		AdapterErrors:     d.metrics.adapterErrors.Load(),
		AdapterSkipped:    d.metrics.adapterSkipped.Load(),
		Relayed:           d.metrics.relayed.Load(),
		RelayErrors:       d.metrics.relayErrors.Load(),
		EventsDropped:     dropped,
		AvgDispatchTimeMs: float64(d.metrics.processingNs.Load()) / 1e6,
	}
}

// Health reports dispatcher health. A relay error rate above 5% is degraded.
func (d *Dispatcher) Health(ctx context.Context) HealthStatus {
	if d.closed.Load() {
		return HealthStatus{
			Status:    "unhealthy",
			Timestamp: d.clock.Now(),
			Message:   "dispatcher is closed",
		}
	}

	metrics := d.GetMetrics()
	status := "healthy"
	msg := ""

	attempts := metrics.Relayed + metrics.RelayErrors
	if metrics.RelayErrors > 0 && attempts > 0 {
		errorRate := float64(metrics.RelayErrors) / float64(attempts)
		if errorRate > 0.05 {
			status = "degraded"
			msg = "relay error rate above 5%"
		}
	}

	return HealthStatus{
		Status:    status,
		Metrics:   metrics,
		Timestamp: d.clock.Now(),
		Message:   msg,
	}
}

// Close stops accepting dispatches, waits for in-flight ones (bounded by
// ctx), drains the observer pool and closes the sink. It is idempotent.
func (d *Dispatcher) Close(ctx context.Context) error {
	var closeErr error

	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed.Store(true)
		d.mu.Unlock()

		done := make(chan struct{})
		go func() {
			d.inflight.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			d.logger.Warn().Err(ctx.Err()).Msg("xtrack: in-flight dispatches abandoned")
			closeErr = ctx.Err()
		}

		if d.observerPool != nil {
			if err := d.observerPool.Close(5 * time.Second); err != nil {
				d.logger.Warn().Err(err).Msg("xtrack: observer pool shutdown timeout")
				closeErr = errors.Join(closeErr, err)
			}
		}

		if d.sink != nil {
			if err := d.sink.Close(ctx); err != nil {
				d.logger.Error().Err(err).Msg("xtrack: sink close failed")
				closeErr = errors.Join(closeErr, err)
			}
		}
	})

	return closeErr
}

// AddObserver registers an observer (thread-safe).
func (d *Dispatcher) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	d.observersMu.Lock()
	d.observers = append(d.observers, obs)
	d.observersMu.Unlock()
}

// RemoveObserver removes an observer. Observers of uncomparable dynamic
// type (such as ObserverFunc) cannot be removed.
func (d *Dispatcher) RemoveObserver(obs Observer) {
	if obs == nil {
		return
	}
	d.observersMu.Lock()
	defer d.observersMu.Unlock()

	for i, o := range d.observers {
		if sameObserver(o, obs) {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			break
		}
	}
}

func sameObserver(a, b Observer) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// notify delivers e on the observer pool when one is configured, otherwise
// inline on the calling goroutine.
func (d *Dispatcher) notify(e Event) {
	d.observersMu.RLock()
	if len(d.observers) == 0 {
		d.observersMu.RUnlock()
		return
	}
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.observersMu.RUnlock()

	if d.observerPool != nil {
		d.observerPool.Notify(e, observers)
		return
	}
	for _, o := range observers {
		safeNotify(o, e)
	}
}

// recordProcessingTime keeps an exponential moving average of dispatch time.
func (d *Dispatcher) recordProcessingTime(ns int64) {
	const alpha = 0.2
	current := d.metrics.processingNs.Load()
	if current == 0 {
		d.metrics.processingNs.Store(ns)
		return
	}
	newAvg := int64(float64(ns)*alpha + float64(current)*(1-alpha))
	d.metrics.processingNs.Store(newAvg)
}
