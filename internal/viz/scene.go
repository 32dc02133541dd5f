package viz

import (
	"math"
	"strconv"
	"time"

	"job-tracker/internal/domain/chart"
)

type Kind string

const (
	KindBar   Kind = "bar"
	KindDonut Kind = "donut"
)

// Phase tells whether a mark is appearing, moving, or leaving.
type Phase string

const (
	PhaseEnter  Phase = "enter"
	PhaseUpdate Phase = "update"
	PhaseExit   Phase = "exit"
)

const NoDataMessage = "No Data"

type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) lerp(to Rect, t float64) Rect {
	return Rect{
		X: lerp(r.X, to.X, t),
		Y: lerp(r.Y, to.Y, t),
		W: lerp(r.W, to.W, t),
		H: lerp(r.H, to.H, t),
	}
}

func (r Rect) contains(x, y float64) bool {
	return r.W > 0 && r.H > 0 && x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Arc is an angular span in radians, clockwise from twelve o'clock.
type Arc struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (a Arc) lerp(to Arc, t float64) Arc {
	return Arc{Start: lerp(a.Start, to.Start, t), End: lerp(a.End, to.End, t)}
}

func (a Arc) Span() float64 {
	return a.End - a.Start
}

type BarMark struct {
	Key   string      `json:"key"`
	Index int         `json:"index"`
	Point chart.Point `json:"point"`
	Fill  string      `json:"fill"`
	Phase Phase       `json:"phase"`
	From  Rect        `json:"from"`
	To    Rect        `json:"to"`
	Transition
}

// At is the bar geometry at elapsed time since the scene was rendered.
func (m BarMark) At(elapsed time.Duration) Rect {
	return m.From.lerp(m.To, m.Progress(elapsed))
}

type SliceMark struct {
	Key   string      `json:"key"`
	Index int         `json:"index"`
	Point chart.Point `json:"point"`
	Fill  string      `json:"fill"`
	Phase Phase       `json:"phase"`
	From  Arc         `json:"from"`
	To    Arc         `json:"to"`
	Transition
}

func (m SliceMark) At(elapsed time.Duration) Arc {
	return m.From.lerp(m.To, m.Progress(elapsed))
}

type AxisTick struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

// Scene is one rendered frame of a chart plus the transitions that lead
// into it. Geometry is in container pixels.
type Scene struct {
	Kind    Kind   `json:"kind"`
	Size    Size   `json:"size"`
	Style   Style  `json:"style"`
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`

	Margin     Margin     `json:"margin"`
	PlotWidth  float64    `json:"plotWidth,omitempty"`
	PlotHeight float64    `json:"plotHeight,omitempty"`
	YTicks     []AxisTick `json:"yTicks,omitempty"`
	XTicks     []AxisTick `json:"xTicks,omitempty"`
	Bars       []BarMark  `json:"bars,omitempty"`

	CX        float64     `json:"cx,omitempty"`
	CY        float64     `json:"cy,omitempty"`
	Outer     float64     `json:"outer,omitempty"`
	Inner     float64     `json:"inner,omitempty"`
	HoverGrow float64     `json:"hoverGrow,omitempty"`
	Slices    []SliceMark `json:"slices,omitempty"`
}

// Duration is the time until every transition in the scene has settled.
func (s *Scene) Duration() time.Duration {
	var d time.Duration
	for _, b := range s.Bars {
		d = max(d, b.End())
	}
	for _, sl := range s.Slices {
		d = max(d, sl.End())
	}
	return d
}

func (s *Scene) Settled(elapsed time.Duration) bool {
	return elapsed >= s.Duration()
}

// HitTest returns the index of the live mark under (x, y).
func (s *Scene) HitTest(x, y float64) (int, bool) {
	if s == nil || s.Empty {
		return -1, false
	}
	switch s.Kind {
	case KindBar:
		px, py := x-s.Margin.Left, y-s.Margin.Top
		for i, b := range s.Bars {
			if b.Phase != PhaseExit && b.To.contains(px, py) {
				return i, true
			}
		}
	case KindDonut:
		dx, dy := x-s.CX, y-s.CY
		r := math.Hypot(dx, dy)
		if r < s.Inner || r > s.Outer {
			return -1, false
		}
		a := math.Atan2(dx, -dy)
		if a < 0 {
			a += 2 * math.Pi
		}
		for i, sl := range s.Slices {
			if sl.Phase != PhaseExit && sl.To.Span() > 0 && a >= sl.To.Start && a < sl.To.End {
				return i, true
			}
		}
	}
	return -1, false
}

// markKeys gives each point a join key. Repeated names get an occurrence suffix.
func markKeys(series chart.Series) []string {
	seen := make(map[string]int, len(series))
	keys := make([]string, len(series))
	for i, p := range series {
		n := seen[p.Name]
		seen[p.Name] = n + 1
		if n == 0 {
			keys[i] = p.Name
		} else {
			keys[i] = p.Name + "#" + strconv.Itoa(n)
		}
	}
	return keys
}
