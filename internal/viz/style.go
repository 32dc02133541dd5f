package viz

import "slices"

const (
	DefaultStroke          = "#151A23"
	DefaultInnerRadiusRate = 0.6
)

// DefaultPalette is the slice palette used when a chart is given no colors.
var DefaultPalette = []string{"#6366f1", "#a855f7", "#ec4899", "#ef4444", "#f59e0b"}

// Style carries the visual options of a chart.
type Style struct {
	Palette          []string `json:"palette" yaml:"palette"`
	Stroke           string   `json:"stroke" yaml:"stroke"`
	GridColor        string   `json:"gridColor" yaml:"grid_color"`
	TextColor        string   `json:"textColor" yaml:"text_color"`
	PlaceholderFill  string   `json:"placeholderFill" yaml:"placeholder_fill"`
	InnerRadiusRatio float64  `json:"innerRadiusRatio" yaml:"inner_radius_ratio"`
}

func DefaultStyle() Style {
	return Style{
		Palette:          slices.Clone(DefaultPalette),
		Stroke:           DefaultStroke,
		GridColor:        "#374151",
		TextColor:        "#6b7280",
		PlaceholderFill:  "#1f2937",
		InnerRadiusRatio: DefaultInnerRadiusRate,
	}
}

// WithDefaults fills unset fields from DefaultStyle.
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	if len(s.Palette) == 0 {
		s.Palette = d.Palette
	}
	if s.Stroke == "" {
		s.Stroke = d.Stroke
	}
	if s.GridColor == "" {
		s.GridColor = d.GridColor
	}
	if s.TextColor == "" {
		s.TextColor = d.TextColor
	}
	if s.PlaceholderFill == "" {
		s.PlaceholderFill = d.PlaceholderFill
	}
	if s.InnerRadiusRatio <= 0 || s.InnerRadiusRatio >= 1 || !finite(s.InnerRadiusRatio) {
		s.InnerRadiusRatio = d.InnerRadiusRatio
	}
	return s
}

// Color cycles through the palette.
func (s Style) Color(i int) string {
	if len(s.Palette) == 0 {
		return DefaultPalette[i%len(DefaultPalette)]
	}
	return s.Palette[i%len(s.Palette)]
}

func (s Style) Equal(o Style) bool {
	return slices.Equal(s.Palette, o.Palette) &&
		s.Stroke == o.Stroke &&
		s.GridColor == o.GridColor &&
		s.TextColor == o.TextColor &&
		s.PlaceholderFill == o.PlaceholderFill &&
		s.InnerRadiusRatio == o.InnerRadiusRatio
}
