package viz

import "time"

// BarChart lays out a vertical bar chart with a dashed horizontal grid.
type BarChart struct {
	Margin   Margin
	Padding  float64
	Ticks    int
	Duration time.Duration
	Stagger  time.Duration
	Headroom float64
	EmptyTop float64
}

func NewBarChart() BarChart {
	return BarChart{
		Margin:   Margin{Top: 20, Right: 10, Bottom: 30, Left: 30},
		Padding:  0.3,
		Ticks:    5,
		Duration: 800 * time.Millisecond,
		Stagger:  100 * time.Millisecond,
		Headroom: 1.2,
		EmptyTop: 10,
	}
}

func (c BarChart) Kind() Kind { return KindBar }

func (c BarChart) Layout(in Input) *Scene {
	if !in.Size.Drawable() {
		return nil
	}
	pw := in.Size.Width - c.Margin.Left - c.Margin.Right
	ph := in.Size.Height - c.Margin.Top - c.Margin.Bottom
	if pw <= 0 || ph <= 0 {
		return nil
	}

	sc := &Scene{
		Kind:       KindBar,
		Size:       in.Size,
		Style:      in.Style.WithDefaults(),
		Margin:     c.Margin,
		PlotWidth:  pw,
		PlotHeight: ph,
	}
	if len(in.Series) == 0 {
		sc.Empty = true
		sc.Message = NoDataMessage
		return sc
	}

	top := in.Series.Max()
	if top == 0 {
		top = c.EmptyTop
	}
	top *= c.Headroom
	y := NewLinear(0, top, ph, 0)

	for _, v := range Ticks(0, top, c.Ticks) {
		sc.YTicks = append(sc.YTicks, AxisTick{Value: v, Pos: y.Map(v), Label: FormatValue(v)})
	}

	band := NewBand(len(in.Series), 0, pw, c.Padding)
	bw := band.Bandwidth()

	var prev map[string]BarMark
	if p := in.prevOf(KindBar); p != nil {
		prev = make(map[string]BarMark, len(p.Bars))
		for _, b := range p.Bars {
			if b.Phase != PhaseExit {
				prev[b.Key] = b
			}
		}
	}

	keys := markKeys(in.Series)
	live := make(map[string]bool, len(keys))
	for i, p := range in.Series {
		x := band.Pos(i)
		v := p.SafeValue()
		to := Rect{X: x, Y: y.Map(v), W: bw, H: ph - y.Map(v)}
		sc.XTicks = append(sc.XTicks, AxisTick{Value: v, Pos: x + bw/2, Label: p.Name})

		m := BarMark{
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
			m.From = Rect{X: x, Y: ph, W: bw, H: 0}
			m.Transition = Transition{Delay: time.Duration(i) * c.Stagger, Duration: c.Duration}
		}
		sc.Bars = append(sc.Bars, m)
	}

	if in.Animate && prev != nil {
		for _, b := range in.Prev.Bars {
			if b.Phase == PhaseExit || live[b.Key] {
				continue
			}
			from := b.At(in.Elapsed)
			sc.Bars = append(sc.Bars, BarMark{
				Key:        b.Key,
				Index:      b.Index,
				Point:      b.Point,
				Fill:       b.Fill,
				Phase:      PhaseExit,
				From:       from,
				To:         Rect{X: from.X, Y: ph, W: from.W, H: 0},
				Transition: Transition{Duration: c.Duration},
			})
		}
	}
	return sc
}
