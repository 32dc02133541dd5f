package viz

import (
	"sort"
	"sync"
	"time"
)

type FrameID uint64

// FrameScheduler runs callbacks on the next frame. A cancelled frame never runs.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

type frameQueue struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func(time.Time)
}

func (q *frameQueue) request(fn func(time.Time)) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[FrameID]func(time.Time))
	}
	q.next++
	q.pending[q.next] = fn
	return q.next
}

func (q *frameQueue) cancel(id FrameID) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

func (q *frameQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// run executes every callback queued before the call, in request order.
// Callbacks queued while running wait for the next frame.
func (q *frameQueue) run(now time.Time) int {
	q.mu.Lock()
	ids := make([]FrameID, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	q.mu.Unlock()

	ran := 0
	for _, id := range ids {
		q.mu.Lock()
		fn, ok := q.pending[id]
		delete(q.pending, id)
		q.mu.Unlock()
		if !ok {
			continue
		}
		fn(now)
		ran++
	}
	return ran
}

// TickerScheduler fires frames on a fixed interval from its own goroutine.
type TickerScheduler struct {
	queue    frameQueue
	interval time.Duration

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &TickerScheduler{interval: interval}
}

func (s *TickerScheduler) RequestFrame(fn func(now time.Time)) FrameID {
	return s.queue.request(fn)
}

func (s *TickerScheduler) CancelFrame(id FrameID) {
	s.queue.cancel(id)
}

func (s *TickerScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-t.C:
				s.queue.run(now)
			}
		}
	}(s.stop, s.done)
}

// Stop halts the ticker and waits for an in-progress frame to finish.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// ManualScheduler runs frames only when Flush is called.
type ManualScheduler struct {
	queue frameQueue
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) RequestFrame(fn func(now time.Time)) FrameID {
	return s.queue.request(fn)
}

func (s *ManualScheduler) CancelFrame(id FrameID) {
	s.queue.cancel(id)
}

// Flush runs one frame and reports how many callbacks ran.
func (s *ManualScheduler) Flush(now time.Time) int {
	return s.queue.run(now)
}

func (s *ManualScheduler) Pending() int {
	return s.queue.len()
}

var (
	_ FrameScheduler = (*TickerScheduler)(nil)
	_ FrameScheduler = (*ManualScheduler)(nil)
)
