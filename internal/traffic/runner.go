package traffic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/xtrack"
)

// SessionFactory builds a dispatcher for one visitor session. The journey
// supplies the landing URL and user agent; the factory owns everything else.
type SessionFactory func(j Journey) (*xtrack.Dispatcher, error)

// Summary counts what a run dispatched.
type Summary struct {
	Journeys int
	Events   map[xtrack.EventName]int
	Elapsed  time.Duration
}

type Runner struct {
	gen     *Generator
	factory SessionFactory
	pause   time.Duration
	logger  *xlog.Logger
}

func NewRunner(gen *Generator, factory SessionFactory, pause time.Duration, logger *xlog.Logger) *Runner {
	if logger == nil {
		logger = xlog.Default()
	}
	return &Runner{gen: gen, factory: factory, pause: pause, logger: logger}
}

// Run plays count journeys. Each journey gets its own session, so click
// identifiers never leak between visitors. It stops early when ctx is done.
func (r *Runner) Run(ctx context.Context, count int) (Summary, error) {
	start := time.Now()
	sum := Summary{Events: map[xtrack.EventName]int{}}
	var mu sync.Mutex

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}

		j := r.gen.Journey()
		d, err := r.factory(j)
		if err != nil {
			return sum, fmt.Errorf("traffic: build session %d: %w", i+1, err)
		}

		for _, req := range j.Requests {
			env := d.Track(ctx, req)
			mu.Lock()
			sum.Events[req.EventName]++
			mu.Unlock()
			r.logger.Info().
				Str("journey", fmt.Sprintf("%d/%d", i+1, count)).
				Str("event_name", string(env.EventName)).
				Str("event_id", env.EventID).
				Str("click_id", env.ClickID).
				Msg("traffic event dispatched")
		}

		if err := d.Close(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("traffic: session close failed")
		}
		sum.Journeys++

		if r.pause > 0 && i < count-1 {
			select {
			case <-ctx.Done():
			case <-time.After(r.pause):
			}
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}
