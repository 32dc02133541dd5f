package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10, 12}, Ticks(0, 12, 5))
	assert.Equal(t, []float64{0, 20, 40, 60, 80, 100, 120}, Ticks(0, 120, 5))
	assert.Equal(t, []float64{3}, Ticks(3, 3, 5))
	assert.Nil(t, Ticks(0, 10, 0))
}

func TestBand_CenteredWithPadding(t *testing.T) {
	b := NewBand(1, 0, 100, 0.3)
	assert.InDelta(t, 50, b.Pos(0)+b.Bandwidth()/2, 1e-9)
	assert.InDelta(t, 53.846, b.Bandwidth(), 1e-3)

	b = NewBand(4, 0, 100, 0.3)
	left := b.Pos(0)
	right := 100 - (b.Pos(3) + b.Bandwidth())
	assert.InDelta(t, left, right, 1e-9)
	assert.Greater(t, b.Pos(1), b.Pos(0)+b.Bandwidth())
}

func TestCubicInOut(t *testing.T) {
	assert.Equal(t, 0.0, CubicInOut(-1))
	assert.Equal(t, 0.0, CubicInOut(0))
	assert.InDelta(t, 0.5, CubicInOut(0.5), 1e-12)
	assert.Equal(t, 1.0, CubicInOut(1))
	assert.Less(t, CubicInOut(0.25), 0.25)
	assert.Greater(t, CubicInOut(0.75), 0.75)
}

func TestTransition_Progress(t *testing.T) {
	tr := Transition{Delay: 100, Duration: 800}
	assert.Equal(t, 0.0, tr.Progress(0))
	assert.Equal(t, 0.0, tr.Progress(100))
	assert.Equal(t, 1.0, tr.Progress(900))
	assert.Equal(t, 1.0, Transition{}.Progress(0))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12", FormatValue(12))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "0", FormatValue(nan()))
}
