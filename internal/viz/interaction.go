package viz

import (
	"html"
	"strconv"
	"time"
)

const tooltipFade = 200 * time.Millisecond

type Tooltip struct {
	Visible bool          `json:"visible"`
	Text    string        `json:"text"`
	HTML    string        `json:"html"`
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Opacity float64       `json:"opacity"`
	Fade    time.Duration `json:"fade"`
}

// ElementStyle sets attributes on one rendered mark, by element id.
type ElementStyle struct {
	ID       string            `json:"id"`
	Attrs    map[string]string `json:"attrs"`
	Duration time.Duration     `json:"duration"`
}

// Interaction is the visual response to a pointer event.
type Interaction struct {
	Index   int            `json:"index"`
	Key     string         `json:"key,omitempty"`
	Tooltip Tooltip        `json:"tooltip"`
	Styles  []ElementStyle `json:"styles,omitempty"`
}

func hoverTooltip(kind Kind, name string, value, x, y float64) Tooltip {
	v := FormatValue(value)
	t := Tooltip{
		Visible: true,
		Text:    name + ": " + v,
		HTML:    html.EscapeString(name) + ": <strong>" + v + "</strong>",
		Opacity: 0.9,
		Fade:    tooltipFade,
	}
	switch kind {
	case KindDonut:
		t.X, t.Y = x+10, y-10
	default:
		t.X, t.Y = x, y-30
	}
	return t
}

func (s *Scene) markID(i int) string {
	if s.Kind == KindDonut {
		return "slice-" + strconv.Itoa(i)
	}
	return "bar-" + strconv.Itoa(i)
}

func (s *Scene) highlight(i int) ElementStyle {
	if s.Kind == KindDonut {
		return ElementStyle{
			ID:       s.markID(i),
			Attrs:    map[string]string{"d": ArcPath(s.Inner, s.Outer+s.HoverGrow, s.Slices[i].To)},
			Duration: tooltipFade,
		}
	}
	return ElementStyle{ID: s.markID(i), Attrs: map[string]string{"opacity": "0.8"}}
}

func (s *Scene) unhighlight(i int) ElementStyle {
	if s.Kind == KindDonut {
		return ElementStyle{
			ID:       s.markID(i),
			Attrs:    map[string]string{"d": ArcPath(s.Inner, s.Outer, s.Slices[i].To)},
			Duration: tooltipFade,
		}
	}
	return ElementStyle{ID: s.markID(i), Attrs: map[string]string{"opacity": "1"}}
}

func (s *Scene) point(i int) (string, float64) {
	if s.Kind == KindDonut {
		return s.Slices[i].Point.Name, s.Slices[i].Point.SafeValue()
	}
	return s.Bars[i].Point.Name, s.Bars[i].Point.SafeValue()
}

func (s *Scene) key(i int) string {
	if s.Kind == KindDonut {
		return s.Slices[i].Key
	}
	return s.Bars[i].Key
}
