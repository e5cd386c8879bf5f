// Package notify provides the subscriber list shared by the shell's state contexts.
package notify

import "sync"

// Registry keeps subscribers in registration order.
// The zero value is ready to use.
type Registry[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Add registers fn and returns a function that unregisters it.
// The returned function is safe to call more than once.
func (r *Registry[T]) Add(fn func(T)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// Snapshot returns the subscribers registered at the time of the call.
func (r *Registry[T]) Snapshot() []func(T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fns := make([]func(T), len(r.subs))
	for i, s := range r.subs {
		fns[i] = s.fn
	}
	return fns
}

// Len returns the number of registered subscribers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
