package chart

import "math"

// Point is one labeled value of a chart series.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Series is ordered for display; aggregates emit unique names.
type Series []Point

// SafeValue is the layout value of p: non-finite and negative values count as zero.
func (p Point) SafeValue() float64 {
	v := p.Value
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

func (s Series) Total() float64 {
	total := 0.0
	for _, p := range s {
		total += p.SafeValue()
	}
	return total
}

func (s Series) Max() float64 {
	max := 0.0
	for _, p := range s {
		if v := p.SafeValue(); v > max {
			max = v
		}
	}
	return max
}

func (s Series) Equal(other Series) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Name != other[i].Name || s[i].SafeValue() != other[i].SafeValue() {
			return false
		}
	}
	return true
}
