package viz

import (
	"math"
	"strings"
	"time"
)

const tau = 2 * math.Pi

// DonutChart lays out a ring of slices in series order.
type DonutChart struct {
	Inset       float64
	Duration    time.Duration
	HoverOffset float64
}

func NewDonutChart() DonutChart {
	return DonutChart{
		Inset:       10,
		Duration:    1000 * time.Millisecond,
		HoverOffset: 5,
	}
}

func (c DonutChart) Kind() Kind { return KindDonut }

func (c DonutChart) Layout(in Input) *Scene {
	if !in.Size.Drawable() {
		return nil
	}
	outer := math.Min(in.Size.Width, in.Size.Height)/2 - c.Inset
	if outer <= 0 {
		return nil
	}

	sc := &Scene{
		Kind:      KindDonut,
		Size:      in.Size,
		Style:     in.Style.WithDefaults(),
		CX:        in.Size.Width / 2,
		CY:        in.Size.Height / 2,
		Outer:     outer,
		HoverGrow: c.HoverOffset,
	}
	sc.Inner = outer * sc.Style.InnerRadiusRatio

	total := in.Series.Total()
	if len(in.Series) == 0 || total == 0 {
		sc.Empty = true
		sc.Message = NoDataMessage
		return sc
	}

	var prev map[string]SliceMark
	if p := in.prevOf(KindDonut); p != nil {
		prev = make(map[string]SliceMark, len(p.Slices))
		for _, s := range p.Slices {
			if s.Phase != PhaseExit {
				prev[s.Key] = s
			}
		}
	}

	keys := markKeys(in.Series)
	live := make(map[string]bool, len(keys))
	a := 0.0
	for i, p := range in.Series {
		span := p.SafeValue() / total * tau
		to := Arc{Start: a, End: a + span}
		if i == len(in.Series)-1 && span > 0 {
			to.End = tau
		}
		a = to.End

		m := SliceMark{
			Key:   keys[i],
			Index: i,
			Point: p,
			Fill:  sc.Style.Color(i),
			To:    to,
		}
		live[m.Key] = true

		old, seen := prev[m.Key]
		switch {
		case !in.Animate:
			m.Phase = PhaseUpdate
			if !seen {
				m.Phase = PhaseEnter
			}
			m.From = to
		case seen:
			m.Phase = PhaseUpdate
			m.From = old.At(in.Elapsed)
			m.Transition = Transition{Duration: c.Duration}
		default:
			m.Phase = PhaseEnter
			m.From = Arc{Start: to.Start, End: to.Start}
			m.Transition = Transition{Duration: c.Duration}
		}
		sc.Slices = append(sc.Slices, m)
	}

	if in.Animate && prev != nil {
		for _, s := range in.Prev.Slices {
			if s.Phase == PhaseExit || live[s.Key] {
				continue
			}
			from := s.At(in.Elapsed)
			sc.Slices = append(sc.Slices, SliceMark{
				Key:        s.Key,
				Index:      s.Index,
				Point:      s.Point,
				Fill:       s.Fill,
				Phase:      PhaseExit,
				From:       from,
				To:         Arc{Start: from.End, End: from.End},
				Transition: Transition{Duration: c.Duration},
			})
		}
	}
	return sc
}

// ArcPath is the SVG path of an annular sector between radii inner and outer.
// Angles are radians clockwise from twelve o'clock.
func ArcPath(inner, outer float64, arc Arc) string {
	if outer <= 0 || !finite(outer) {
		return "M0,0Z"
	}
	inner = math.Max(0, math.Min(inner, outer))
	a0, a1 := arc.Start, arc.End
	if a1 < a0 {
		a0, a1 = a1, a0
	}
	span := a1 - a0

	var b strings.Builder
	switch {
	case span >= tau-1e-6:
		b.WriteString("M" + pt(outer, a0))
		b.WriteString(arcTo(outer, true, true, pt(outer, a0+math.Pi)))
		b.WriteString(arcTo(outer, true, true, pt(outer, a0)))
		if inner > 0 {
			b.WriteString("M" + pt(inner, a0))
			b.WriteString(arcTo(inner, true, false, pt(inner, a0+math.Pi)))
			b.WriteString(arcTo(inner, true, false, pt(inner, a0)))
		}
	case span <= 1e-9:
		b.WriteString("M" + pt(outer, a0))
		b.WriteString("L" + pt(inner, a0))
	default:
		large := span > math.Pi
		b.WriteString("M" + pt(outer, a0))
		b.WriteString(arcTo(outer, large, true, pt(outer, a1)))
		if inner > 0 {
			b.WriteString("L" + pt(inner, a1))
			b.WriteString(arcTo(inner, large, false, pt(inner, a0)))
		} else {
			b.WriteString("L0,0")
		}
	}
	b.WriteString("Z")
	return b.String()
}

func pt(r, a float64) string {
	return num(r*math.Sin(a)) + "," + num(-r*math.Cos(a))
}

func arcTo(r float64, large, sweep bool, to string) string {
	flag := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	return "A" + num(r) + "," + num(r) + ",0," + flag(large) + "," + flag(sweep) + "," + to
}
