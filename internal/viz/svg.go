package viz

import (
	"html"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	keyframes   = 24
	fontSize    = "11"
	emptyFont   = "12"
	easeSplines = "0.645 0.045 0.355 1"
)

// SVG serializes the scene. Pending transitions are emitted as SMIL
// animations that start when the document is attached.
func (s *Scene) SVG() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	w, h := num(s.Size.Width), num(s.Size.Height)
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + w + `" height="` + h +
		`" viewBox="0 0 ` + w + ` ` + h + `" data-kind="` + string(s.Kind) + `">`)

	switch s.Kind {
	case KindBar:
		s.writeBars(&b)
	case KindDonut:
		s.writeDonut(&b)
	}
	b.WriteString("</svg>")
	return b.String()
}

func (s *Scene) writeBars(b *strings.Builder) {
	if s.Empty {
		writeMessage(b, s.Size.Width/2, s.Size.Height/2, s.Message, s.Style.TextColor)
		return
	}
	b.WriteString(`<g transform="translate(` + num(s.Margin.Left) + `,` + num(s.Margin.Top) + `)">`)

	b.WriteString(`<g class="grid">`)
	for _, t := range s.YTicks {
		b.WriteString(`<g class="tick" transform="translate(0,` + num(t.Pos) + `)">`)
		b.WriteString(`<line x2="` + num(s.PlotWidth) + `" stroke="` + attr(s.Style.GridColor) +
			`" stroke-dasharray="2,2" stroke-opacity="0.5"/>`)
		b.WriteString(`<text x="-3" dy="0.32em" text-anchor="end" font-size="` + fontSize +
			`" fill="` + attr(s.Style.TextColor) + `">` + html.EscapeString(t.Label) + `</text>`)
		b.WriteString(`</g>`)
	}
	b.WriteString(`</g>`)

	b.WriteString(`<g class="x-axis" transform="translate(0,` + num(s.PlotHeight) + `)">`)
	for _, t := range s.XTicks {
		b.WriteString(`<text x="` + num(t.Pos) + `" y="10" dy="0.71em" text-anchor="middle" font-size="` +
			fontSize + `" fill="` + attr(s.Style.TextColor) + `">` + html.EscapeString(t.Label) + `</text>`)
	}
	b.WriteString(`</g>`)

	b.WriteString(`<g class="bars">`)
	for i, m := range s.Bars {
		from := m.To
		animated := m.Duration > 0 && m.From != m.To
		if animated {
			from = m.From
		}
		b.WriteString(`<rect id="bar-` + strconv.Itoa(i) + `" data-key="` + attr(m.Key) +
			`" data-phase="` + string(m.Phase) + `" x="` + num(from.X) + `" y="` + num(from.Y) +
			`" width="` + num(from.W) + `" height="` + num(from.H) + `" rx="4" fill="` + attr(m.Fill) + `">`)
		if animated {
			writeTween(b, "x", m.From.X, m.To.X, m.Transition)
			writeTween(b, "y", m.From.Y, m.To.Y, m.Transition)
			writeTween(b, "width", m.From.W, m.To.W, m.Transition)
			writeTween(b, "height", m.From.H, m.To.H, m.Transition)
		}
		b.WriteString(`</rect>`)
	}
	b.WriteString(`</g></g>`)
}

func (s *Scene) writeDonut(b *strings.Builder) {
	b.WriteString(`<g transform="translate(` + num(s.CX) + `,` + num(s.CY) + `)">`)
	if s.Empty {
		b.WriteString(`<path d="` + ArcPath(s.Inner, s.Outer, Arc{End: tau}) + `" fill="` +
			attr(s.Style.PlaceholderFill) + `" opacity="0.3"/>`)
		writeMessage(b, 0, 0, s.Message, s.Style.TextColor)
		b.WriteString(`</g>`)
		return
	}
	for i, m := range s.Slices {
		animated := m.Duration > 0 && m.From != m.To
		d := ArcPath(s.Inner, s.Outer, m.To)
		if animated {
			d = ArcPath(s.Inner, s.Outer, m.From)
		}
		b.WriteString(`<path id="slice-` + strconv.Itoa(i) + `" data-key="` + attr(m.Key) +
			`" data-phase="` + string(m.Phase) + `" d="` + d + `" fill="` + attr(m.Fill) +
			`" stroke="` + attr(s.Style.Stroke) + `" stroke-width="2">`)
		if animated {
			frames := make([]string, keyframes+1)
			for k := range frames {
				t := CubicInOut(float64(k) / keyframes)
				frames[k] = ArcPath(s.Inner, s.Outer, m.From.lerp(m.To, t))
			}
			b.WriteString(`<animate attributeName="d" values="` + strings.Join(frames, ";") +
				`" begin="` + ms(m.Delay) + `" dur="` + ms(m.Duration) + `" fill="freeze"/>`)
		}
		b.WriteString(`</path>`)
	}
	b.WriteString(`</g>`)
}

func writeTween(b *strings.Builder, name string, from, to float64, tr Transition) {
	if num(from) == num(to) {
		return
	}
	b.WriteString(`<animate attributeName="` + name + `" from="` + num(from) + `" to="` + num(to) +
		`" begin="` + ms(tr.Delay) + `" dur="` + ms(tr.Duration) +
		`" calcMode="spline" keyTimes="0;1" keySplines="` + easeSplines + `" fill="freeze"/>`)
}

func writeMessage(b *strings.Builder, x, y float64, msg, color string) {
	b.WriteString(`<text x="` + num(x) + `" y="` + num(y) + `" dy="0.35em" text-anchor="middle" font-size="` +
		emptyFont + `" fill="` + attr(color) + `">` + html.EscapeString(msg) + `</text>`)
}

func num(v float64) string {
	if !finite(v) {
		return "0"
	}
	v = math.Round(v*100) / 100
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}

func attr(s string) string {
	return html.EscapeString(s)
}
