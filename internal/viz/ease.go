package viz

import "time"

// CubicInOut eases t in [0, 1].
func CubicInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Transition is the timing of one element's animation, relative to the
// moment its scene was rendered.
type Transition struct {
	Delay    time.Duration `json:"delay"`
	Duration time.Duration `json:"duration"`
}

func (tr Transition) End() time.Duration {
	return tr.Delay + tr.Duration
}

// Progress is the eased completion at elapsed time since render.
func (tr Transition) Progress(elapsed time.Duration) float64 {
	if tr.Duration <= 0 {
		if elapsed >= tr.Delay {
			return 1
		}
		return 0
	}
	if elapsed <= tr.Delay {
		return 0
	}
	return CubicInOut(float64(elapsed-tr.Delay) / float64(tr.Duration))
}

func lerp(a, b, t float64) float64 {
	if t >= 1 {
		return b
	}
	return a + (b-a)*t
}
