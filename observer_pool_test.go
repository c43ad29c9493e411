package xtrack

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverPool_DeliversAndDrainsOnClose(t *testing.T) {
	var (
		mu  sync.Mutex
		got []EventType
	)
	obs := ObserverFunc(func(e Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	})

	p := NewObserverPool(context.Background(), 2, 64)
	for i := 0; i < 10; i++ {
		p.Notify(Event{Type: RelayDone}, []Observer{obs})
	}
	require.NoError(t, p.Close(time.Second))

	mu.Lock()
	assert.Len(t, got, 10)
	mu.Unlock()
	assert.Equal(t, uint64(10), p.Stats().Processed)

	// no-ops once closed
	p.Notify(Event{Type: RelayDone}, []Observer{obs})
	assert.NoError(t, p.Close(time.Second))
}

func TestObserverPool_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	slow := ObserverFunc(func(Event) { <-block })

	p := NewObserverPool(context.Background(), 1, 1)
	for i := 0; i < 20; i++ {
		p.Notify(Event{Type: DispatchDone}, []Observer{slow})
	}
	assert.Greater(t, p.Stats().Dropped, uint64(0))

	close(block)
	require.NoError(t, p.Close(time.Second))
}

func TestObserverPool_PanickingObserverIsIsolated(t *testing.T) {
	var called sync.WaitGroup
	called.Add(1)
	bad := ObserverFunc(func(Event) { panic("observer bug") })
	good := ObserverFunc(func(Event) { called.Done() })

	p := NewObserverPool(context.Background(), 1, 4)
	p.Notify(Event{Type: AdapterDone}, []Observer{bad, good})
	called.Wait()
	require.NoError(t, p.Close(time.Second))
}
