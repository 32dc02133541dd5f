package reactive

import "sync"

// Memo caches the result of compute and recomputes exactly when one of its
// dependencies reports a version different from the last compute.
type Memo[T any] struct {
	mu       sync.Mutex
	compute  func() T
	deps     []Source
	seen     []uint64
	value    T
	valid    bool
	version  uint64
	computes int
}

func NewMemo[T any](compute func() T, deps ...Source) *Memo[T] {
	return &Memo[T]{
		compute: compute,
		deps:    deps,
		seen:    make([]uint64, len(deps)),
	}
}

func (m *Memo[T]) Get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh()
	return m.value
}

// Version moves only when the memo recomputes, so memos can depend on memos.
func (m *Memo[T]) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh()
	return m.version
}

// Computes reports how many times compute has run.
func (m *Memo[T]) Computes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}

func (m *Memo[T]) refresh() {
	current := make([]uint64, len(m.deps))
	stale := !m.valid
	for i, d := range m.deps {
		current[i] = d.Version()
		if current[i] != m.seen[i] {
			stale = true
		}
	}
	if !stale {
		return
	}
	m.value = m.compute()
	m.seen = current
	m.valid = true
	m.version++
	m.computes++
}
