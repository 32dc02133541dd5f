// Package reactive provides versioned cells: writable signals and memoized
// computations that recompute only when an upstream version moves.
package reactive

import (
	"sort"
	"sync"
)

// Source is anything a Memo can depend on.
type Source interface {
	Version() uint64
}

// Signal holds a value and a version that increments on every Set.
type Signal[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	subs    map[int]func()
	nextSub int
}

func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial, version: 1, subs: make(map[int]func())}
}

func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Signal[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set stores v and notifies subscribers. Subscribers run after the lock is released.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.version++
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Update applies fn to the current value under the write lock.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.version++
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Subscribe registers fn to run after every change. The returned cancel is idempotent.
func (s *Signal[T]) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Signal[T]) snapshotSubs() []func() {
	if len(s.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	return out
}

// Readable is the read side of a Signal.
type Readable[T any] interface {
	Source
	Get() T
	Subscribe(fn func()) func()
}

var _ Readable[int] = (*Signal[int])(nil)
