package viz

import (
	"math"
	"strconv"
)

// Band divides [start, stop] into n equal bands with the given inner and
// outer padding, centered in the range.
type Band struct {
	start     float64
	step      float64
	bandwidth float64
	n         int
}

func NewBand(n int, start, stop, padding float64) Band {
	if n <= 0 {
		return Band{start: start}
	}
	padding = math.Min(1, math.Max(0, padding))
	step := (stop - start) / math.Max(1, float64(n)-padding+padding*2)
	offset := (stop - start - step*(float64(n)-padding)) * 0.5
	return Band{
		start:     start + offset,
		step:      step,
		bandwidth: step * (1 - padding),
		n:         n,
	}
}

func (b Band) Pos(i int) float64 {
	return b.start + b.step*float64(i)
}

func (b Band) Bandwidth() float64 {
	return b.bandwidth
}

// Linear maps [d0, d1] onto [r0, r1].
type Linear struct {
	d0, d1, r0, r1 float64
}

func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

func (l Linear) Map(v float64) float64 {
	if l.d1 == l.d0 {
		return (l.r0 + l.r1) / 2
	}
	return l.r0 + (v-l.d0)/(l.d1-l.d0)*(l.r1-l.r0)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}

	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}

	if i2 < i1 && count >= 0.5 && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// Ticks returns about count round values spanning [start, stop], start <= stop.
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || !finite(start) || !finite(stop) || start > stop {
		return nil
	}
	if start == stop {
		return []float64{start}
	}

	i1, i2, inc := tickSpec(start, stop, float64(count))
	if !(i2 >= i1) {
		return nil
	}

	n := int(i2 - i1 + 1)
	out := make([]float64, n)
	for i := range out {
		if inc < 0 {
			out[i] = (i1 + float64(i)) / -inc
		} else {
			out[i] = (i1 + float64(i)) * inc
		}
	}
	return out
}

// FormatValue renders a value the way axis labels and tooltips show it.
func FormatValue(v float64) string {
	if !finite(v) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
