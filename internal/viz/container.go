package viz

import (
	"math"
	"sync"
)

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Drawable reports whether the area has room to draw in.
func (s Size) Drawable() bool {
	return finite(s.Width) && finite(s.Height) && s.Width > 0 && s.Height > 0
}

// Container is the host element a chart draws into. Its size is read at
// render time; the engine never sets it.
type Container interface {
	Size() Size
	OnResize(fn func()) (cancel func())
}

// Box is a Container whose size is reported by the host.
type Box struct {
	mu   sync.Mutex
	size Size
	subs map[int]func()
	next int
}

func NewBox(width, height float64) *Box {
	return &Box{size: Size{Width: width, Height: height}, subs: make(map[int]func())}
}

func (b *Box) Size() Size {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// SetSize records a new size and notifies observers when it changed.
func (b *Box) SetSize(width, height float64) {
	b.mu.Lock()
	next := Size{Width: width, Height: height}
	if next == b.size {
		b.mu.Unlock()
		return
	}
	b.size = next
	subs := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (b *Box) OnResize(fn func()) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Observers is the number of live resize subscriptions.
func (b *Box) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
