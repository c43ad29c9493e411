package xtrack

import (
	"context"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
	"github.com/trickstertwo/xtrack/store/memory"
)

// DispatcherBuilder constructs Dispatcher instances (Builder pattern).
type DispatcherBuilder struct {
	store     SessionStore
	location  LocationFunc
	userAgent UserAgentFunc

	capabilities Capabilities
	adapters     []Adapter

	sinkName string
	sinkCfg  map[string]any
	sinkInst Sink

	codecName string
	codecInst Codec

	middlewares []Middleware
	observers   []Observer
	logger      *xlog.Logger
	clock       xclock.Clock

	relayTimeout   time.Duration
	adapterTimeout time.Duration

	poolWorkers int
	poolBuffer  int
}

// NewDispatcherBuilder returns a builder with the HTTP sink, the JSON codec
// and an in-process session store.
func NewDispatcherBuilder() *DispatcherBuilder {
	return &DispatcherBuilder{
		sinkName:     HTTPSinkName,
		codecName:    "json",
		relayTimeout: 10 * time.Second,
	}
}

func (db *DispatcherBuilder) WithSessionStore(s SessionStore) *DispatcherBuilder {
	db.store = s
	return db
}

// WithLocation sets the current-page provider. Build captures attribution
// from it once.
func (db *DispatcherBuilder) WithLocation(f LocationFunc) *DispatcherBuilder {
	db.location = f
	return db
}

func (db *DispatcherBuilder) WithUserAgent(f UserAgentFunc) *DispatcherBuilder {
	db.userAgent = f
	return db
}

// WithCapabilities supplies SDK handles by platform name. Every registered
// platform gets an adapter; platforms without a handle are skipped at send time.
func (db *DispatcherBuilder) WithCapabilities(caps Capabilities) *DispatcherBuilder {
	if db.capabilities == nil {
		db.capabilities = Capabilities{}
	}
	for k, v := range caps {
		db.capabilities[k] = v
	}
	return db
}

// WithAdapter adds a ready adapter alongside the registry-built ones.
func (db *DispatcherBuilder) WithAdapter(a ...Adapter) *DispatcherBuilder {
	for _, ad := range a {
		if ad != nil {
			db.adapters = append(db.adapters, ad)
		}
	}
	return db
}

func (db *DispatcherBuilder) WithSink(name string, cfg map[string]any) *DispatcherBuilder {
	db.sinkName = name
	db.sinkCfg = cfg
	return db
}

// WithSinkInstance accepts a ready Sink instance (e.g., from a sink package's Use()).
func (db *DispatcherBuilder) WithSinkInstance(s Sink) *DispatcherBuilder {
	db.sinkInst = s
	return db
}

func (db *DispatcherBuilder) WithCodec(name string) *DispatcherBuilder {
	db.codecName = name
	return db
}

func (db *DispatcherBuilder) WithCodecInstance(c Codec) *DispatcherBuilder {
	db.codecInst = c
	return db
}

func (db *DispatcherBuilder) WithMiddleware(mw ...Middleware) *DispatcherBuilder {
	if len(mw) == 0 {
		return db
	}
	db.middlewares = append(db.middlewares, mw...)
	return db
}

func (db *DispatcherBuilder) WithObserver(obs ...Observer) *DispatcherBuilder {
	for _, o := range obs {
		if o != nil {
			db.observers = append(db.observers, o)
		}
	}
	return db
}

// WithObserverPool delivers observer events asynchronously on workers
// goroutines with a buffer of bufferSize events.
func (db *DispatcherBuilder) WithObserverPool(workers, bufferSize int) *DispatcherBuilder {
	db.poolWorkers = workers
	db.poolBuffer = bufferSize
	return db
}

func (db *DispatcherBuilder) WithLogger(l *xlog.Logger) *DispatcherBuilder {
	db.logger = l
	return db
}

func (db *DispatcherBuilder) WithClock(c xclock.Clock) *DispatcherBuilder {
	db.clock = c
	return db
}

func (db *DispatcherBuilder) WithRelayTimeout(d time.Duration) *DispatcherBuilder {
	if d > 0 {
		db.relayTimeout = d
	}
	return db
}

// WithAdapterTimeout bounds each SDK call. Zero disables the bound.
func (db *DispatcherBuilder) WithAdapterTimeout(d time.Duration) *DispatcherBuilder {
	db.adapterTimeout = d
	return db
}

func (db *DispatcherBuilder) Build() (*Dispatcher, error) {
	var err error

	var sk Sink
	switch {
	case db.sinkInst != nil:
		sk = db.sinkInst
	case db.sinkName != "":
		sk, err = NewSink(db.sinkName, db.sinkCfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoSinkConfigured
	}

	var cd Codec
	if db.codecInst != nil {
		cd = db.codecInst
	} else {
		cd, err = NewCodec(db.codecName)
		if err != nil {
			return nil, err
		}
	}

	adapters, err := db.buildAdapters()
	if err != nil {
		return nil, err
	}

	clk := db.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := db.logger
	if lg == nil {
		lg = xlog.Default()
	}
	var store SessionStore = db.store
	if store == nil {
		store = memory.New()
	}

	attribution := NewAttributionStore(store, lg)
	d := &Dispatcher{
		attribution: attribution,
		builder:     NewEnvelopeBuilder(attribution, db.location, clk),
		relay:       NewRelay(sk, cd, db.userAgent, db.relayTimeout, lg),
		sink:        sk,
		clock:       clk,
		logger:      lg,
	}

	// Recovery is always outermost so a panicking SDK never escapes its goroutine.
	mws := []Middleware{RecoveryMiddleware()}
	if db.adapterTimeout > 0 {
		mws = append(mws, TimeoutMiddleware(db.adapterTimeout))
	}
	mws = append(mws, db.middlewares...)
	for _, a := range adapters {
		d.adapters = append(d.adapters, boundAdapter{name: a.Name(), send: Chain(a.Send, mws...)})
	}

	if db.poolWorkers > 0 || db.poolBuffer > 0 {
		d.observerPool = NewObserverPool(context.Background(), db.poolWorkers, db.poolBuffer)
	}

	hasLoggingObserver := false
	for _, o := range db.observers {
		if _, ok := o.(LoggingObserver); ok {
			hasLoggingObserver = true
			break
		}
	}
	if !hasLoggingObserver {
		d.AddObserver(LoggingObserver{Logger: lg})
	}
	for _, o := range db.observers {
		d.AddObserver(o)
	}

	if db.location != nil {
		attribution.Capture(context.Background(), db.location())
	}

	return d, nil
}

// buildAdapters creates one adapter per registered platform, then appends
// the explicitly supplied ones. A capability for an unregistered platform
// is an error.
func (db *DispatcherBuilder) buildAdapters() ([]Adapter, error) {
	registered := Platforms()
	known := make(map[string]bool, len(registered))
	out := make([]Adapter, 0, len(registered)+len(db.adapters))
	for _, name := range registered {
		known[name] = true
		a, err := NewAdapter(name, db.capabilities[name])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	for name := range db.capabilities {
		if !known[name] {
			return nil, ErrUnknownPlatform{name: name}
		}
	}
	return append(out, db.adapters...), nil
}

// New constructs a Dispatcher via Builder and returns a close func for convenience.
func New(init func(b *DispatcherBuilder)) (*Dispatcher, func() error, error) {
	b := NewDispatcherBuilder()
	if init != nil {
		init(b)
	}
	d, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error { return d.Close(context.Background()) }
	return d, closeFn, nil
}
