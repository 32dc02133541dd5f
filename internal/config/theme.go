package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"job-tracker/internal/viz"

	"gopkg.in/yaml.v3"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

var errUnknownDefaultTheme = errors.New("default theme is not defined")

// Themes are the named chart styles a client can pick from.
type Themes struct {
	Default string               `yaml:"default"`
	Themes  map[string]viz.Style `yaml:"themes"`
}

func DefaultThemes() Themes {
	dark := viz.DefaultStyle()

	light := viz.DefaultStyle()
	light.Stroke = "#ffffff"
	light.GridColor = "#e5e7eb"
	light.PlaceholderFill = "#e5e7eb"

	return Themes{
		Default: ThemeDark,
		Themes:  map[string]viz.Style{ThemeDark: dark, ThemeLight: light},
	}
}

// LoadThemes reads a YAML theme file over the built-in themes. An empty
// path yields the built-ins.
func LoadThemes(path string) (Themes, error) {
	themes := DefaultThemes()
	path = strings.TrimSpace(path)
	if path == "" {
		return themes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Themes{}, fmt.Errorf("read theme file: %w", err)
	}

	var file Themes
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Themes{}, fmt.Errorf("parse theme file %s: %w", path, err)
	}

	for name, style := range file.Themes {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		themes.Themes[name] = style.WithDefaults()
	}
	if d := strings.ToLower(strings.TrimSpace(file.Default)); d != "" {
		themes.Default = d
	}
	if _, ok := themes.Themes[themes.Default]; !ok {
		return Themes{}, fmt.Errorf("%w: %q", errUnknownDefaultTheme, themes.Default)
	}
	return themes, nil
}

// Style returns the named theme, falling back to the default.
func (t Themes) Style(name string) viz.Style {
	if s, ok := t.Themes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return t.Themes[t.Default]
}

func (t Themes) Names() []string {
	names := make([]string, 0, len(t.Themes))
	for n := range t.Themes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
