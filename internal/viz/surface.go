package viz

import (
	"sync"
	"sync/atomic"
	"time"

	"job-tracker/internal/domain/chart"
)

// Frame is one completed render.
type Frame struct {
	Scene *Scene
	At    time.Time
	Seq   int
}

// Surface binds a renderer to a container. Every trigger (data, style or
// size) schedules a redraw on the next frame; triggers arriving before that
// frame collapse into one render.
type Surface struct {
	renderer Renderer
	sched    FrameScheduler
	box      Container
	onFrame  func(Frame)

	mu         sync.Mutex
	series     chart.Series
	style      Style
	frame      FrameID
	queued     bool
	animate    bool
	unobserve  func()
	scene      *Scene
	renderedAt time.Time
	hovered    int
	renders    int

	// deliverMu is held while onFrame runs; Close takes it so no frame is
	// delivered once Close returns.
	deliverMu sync.Mutex
	closed    atomic.Bool
}

// NewSurface subscribes to container resizes and queues the first draw.
// onFrame runs on the scheduler's goroutine and must not block.
func NewSurface(r Renderer, sched FrameScheduler, box Container, onFrame func(Frame)) *Surface {
	s := &Surface{
		renderer: r,
		sched:    sched,
		box:      box,
		onFrame:  onFrame,
		style:    DefaultStyle(),
		animate:  true,
		hovered:  -1,
	}

	s.mu.Lock()
	s.unobserve = box.OnResize(s.resized)
	s.scheduleLocked()
	s.mu.Unlock()
	return s
}

func (s *Surface) Kind() Kind {
	return s.renderer.Kind()
}

func (s *Surface) SetSeries(series chart.Series) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	s.series = series.Clone()
	s.animate = true
	s.scheduleLocked()
}

func (s *Surface) SetStyle(style Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || style.Equal(s.style) {
		return
	}
	s.style = style
	s.animate = true
	s.scheduleLocked()
}

func (s *Surface) resized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	s.scheduleLocked()
}

func (s *Surface) scheduleLocked() {
	if s.queued {
		s.sched.CancelFrame(s.frame)
	}
	s.frame = s.sched.RequestFrame(s.draw)
	s.queued = true
}

func (s *Surface) draw(now time.Time) {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return
	}
	s.queued = false

	in := Input{
		Series:  s.series,
		Style:   s.style,
		Size:    s.box.Size(),
		Prev:    s.scene,
		Animate: s.animate,
	}
	if s.scene != nil {
		in.Elapsed = now.Sub(s.renderedAt)
	}

	// A nil scene means no room to draw; the next resize retries.
	sc := s.renderer.Layout(in)
	if sc == nil {
		s.mu.Unlock()
		return
	}
	s.scene = sc
	s.renderedAt = now
	s.animate = false
	s.hovered = -1
	s.renders++
	f := Frame{Scene: sc, At: now, Seq: s.renders}
	s.mu.Unlock()

	if s.onFrame == nil {
		return
	}
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if !s.closed.Load() {
		s.onFrame(f)
	}
}

// Scene is the last rendered scene, nil before the first render.
func (s *Surface) Scene() *Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

func (s *Surface) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// PointerMove reports the hover response for a pointer at (x, y) in
// container pixels.
func (s *Surface) PointerMove(x, y float64) Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.scene == nil {
		return Interaction{Index: -1}
	}

	i, ok := s.scene.HitTest(x, y)
	if !ok {
		return s.leaveLocked()
	}

	var styles []ElementStyle
	if s.hovered >= 0 && s.hovered != i {
		styles = append(styles, s.scene.unhighlight(s.hovered))
	}
	if s.hovered != i {
		styles = append(styles, s.scene.highlight(i))
	}
	s.hovered = i

	name, value := s.scene.point(i)
	return Interaction{
		Index:   i,
		Key:     s.scene.key(i),
		Tooltip: hoverTooltip(s.scene.Kind, name, value, x, y),
		Styles:  styles,
	}
}

func (s *Surface) PointerLeave() Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.scene == nil {
		return Interaction{Index: -1}
	}
	return s.leaveLocked()
}

func (s *Surface) leaveLocked() Interaction {
	out := Interaction{Index: -1, Tooltip: Tooltip{Fade: tooltipFade}}
	if s.hovered >= 0 {
		out.Styles = []ElementStyle{s.scene.unhighlight(s.hovered)}
	}
	s.hovered = -1
	return out
}

// Close cancels the pending frame and the resize subscription and waits
// for a frame being delivered. It is safe to call more than once, but not
// from inside onFrame.
func (s *Surface) Close() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return
	}
	if s.queued {
		s.sched.CancelFrame(s.frame)
		s.queued = false
	}
	if s.unobserve != nil {
		s.unobserve()
		s.unobserve = nil
	}
}

func (s *Surface) Closed() bool {
	return s.closed.Load()
}
