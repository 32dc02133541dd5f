package viz

import (
	"time"

	"job-tracker/internal/domain/chart"
)

// Input is everything a layout needs for one render.
type Input struct {
	Series chart.Series
	Style  Style
	Size   Size

	// Prev is the scene currently on screen and Elapsed the time since it
	// was rendered; marks transition from Prev's geometry at that instant.
	Prev    *Scene
	Elapsed time.Duration

	// Animate is false for redraws caused only by a size change.
	Animate bool
}

// Renderer lays out a scene. It returns nil when there is no room to draw.
type Renderer interface {
	Kind() Kind
	Layout(in Input) *Scene
}

func (in Input) prevOf(kind Kind) *Scene {
	if in.Prev == nil || in.Prev.Kind != kind || in.Prev.Empty {
		return nil
	}
	return in.Prev
}
