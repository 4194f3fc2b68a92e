// Package render coordinates on-demand computation of derived assets:
// encoded page images and per-archive dimension sets. A single-flight
// map guarantees that concurrent requests for the same asset trigger at
// most one computation, with every waiter receiving the same outcome; a
// durable file cache is the source of truth once work completes.
package render

import "sync"

// Outcome is the shared result delivered to every waiter of one
// computation.
type Outcome[V any] struct {
	Value V
	Err   error
}

// Flight is a single-flight map: one in-flight computation per key,
// with late arrivals joining the existing waiter list instead of
// starting a second computation.
//
// The mutex is held only for list mutation, never during the
// computation, so contention is bounded by request concurrency rather
// than by computation time. The key exists in the map if and only if a
// computation for it is running; Finish removes the key and delivers to
// all waiters under the same lock acquisition, so no waiter can be added
// after delivery has begun.
type Flight[K comparable, V any] struct {
	mu      sync.Mutex
	waiters map[K][]chan Outcome[V]
}

// NewFlight creates an empty single-flight map.
func NewFlight[K comparable, V any]() *Flight[K, V] {
	return &Flight[K, V]{waiters: make(map[K][]chan Outcome[V])}
}

// Join attaches to the computation for key. The returned channel
// receives exactly one Outcome. claimed is true when the caller is the
// sole worker for the key and must eventually call Finish; joiners get
// claimed false and only wait.
func (f *Flight[K, V]) Join(key K) (wait <-chan Outcome[V], claimed bool) {
	// Buffered so delivery never blocks on a waiter that gave up.
	ch := make(chan Outcome[V], 1)

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.waiters[key]; ok {
		f.waiters[key] = append(existing, ch)
		return ch, false
	}
	f.waiters[key] = []chan Outcome[V]{ch}
	return ch, true
}

// Finish removes the key and delivers the outcome to every waiter
// queued for it, including the claimer's own channel. Each waiter
// receives exactly one delivery.
func (f *Flight[K, V]) Finish(key K, value V, err error) {
	f.mu.Lock()
	waiters := f.waiters[key]
	delete(f.waiters, key)
	f.mu.Unlock()

	out := Outcome[V]{Value: value, Err: err}
	for _, ch := range waiters {
		ch <- out
	}
}

// Pending returns the number of in-flight keys.
func (f *Flight[K, V]) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}
