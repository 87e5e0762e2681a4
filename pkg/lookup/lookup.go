// Package lookup runs keyed, cancellable background lookups (geocoding,
// forecasts) whose results are only applied while still current.
//
// Starting a new lookup for a key supersedes the previous one: its context is
// cancelled and, should it finish anyway, its result is dropped. The same holds
// after Cancel or Close.
package lookup

import (
	"context"
	"sync"
)

type entry struct {
	gen    uint64
	cancel context.CancelFunc
}

// Tracker owns the in-flight lookups for one kind of work, keyed by K.
// The zero value is not usable; call New.
type Tracker[K comparable, V any] struct {
	mu       sync.Mutex
	inflight map[K]entry
	gen      uint64
	closed   bool
	wg       sync.WaitGroup
}

func New[K comparable, V any]() *Tracker[K, V] {
	return &Tracker[K, V]{inflight: make(map[K]entry)}
}

// Start launches fetch in its own goroutine. apply receives the outcome only if
// no later Start, Cancel or Close for the same key happened in between. apply
// runs with the tracker's lock held, so it must not call back into the tracker.
//
// It reports false when the tracker has been closed.
func (t *Tracker[K, V]) Start(
	parent context.Context,
	key K,
	fetch func(ctx context.Context) (V, error),
	apply func(v V, err error),
) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}

	if prev, ok := t.inflight[key]; ok {
		prev.cancel()
	}

	// Detach from the caller's cancellation (typically an HTTP request) while
	// keeping its values, so the lookup outlives the request that started it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	t.gen++
	gen := t.gen
	t.inflight[key] = entry{gen: gen, cancel: cancel}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer cancel()

		v, err := fetch(ctx)

		t.mu.Lock()
		defer t.mu.Unlock()

		cur, ok := t.inflight[key]
		if !ok || cur.gen != gen || ctx.Err() != nil {
			return
		}
		delete(t.inflight, key)
		apply(v, err)
	}()

	return true
}

// Cancel abandons the in-flight lookup for key, if any.
func (t *Tracker[K, V]) Cancel(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.inflight[key]; ok {
		e.cancel()
		delete(t.inflight, key)
	}
}

// Pending reports whether a lookup for key is still outstanding.
func (t *Tracker[K, V]) Pending(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.inflight[key]
	return ok
}

// Wait blocks until every started goroutine has returned.
func (t *Tracker[K, V]) Wait() {
	t.wg.Wait()
}

// Close cancels everything in flight, refuses new work and waits for the
// goroutines to drain.
func (t *Tracker[K, V]) Close() {
	t.mu.Lock()
	t.closed = true
	for k, e := range t.inflight {
		e.cancel()
		delete(t.inflight, k)
	}
	t.mu.Unlock()

	t.wg.Wait()
}
