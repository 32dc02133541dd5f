package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"job-tracker/internal/domain/chart"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/reactive"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/views"
	"job-tracker/internal/viz"
)

type ChartName string

const (
	ChartStatus    ChartName = "status"
	ChartMonthly   ChartName = "monthly"
	ChartInterview ChartName = "interview"
)

var ChartNames = []ChartName{ChartStatus, ChartMonthly, ChartInterview}

var ErrUnknownChart = errors.New("controller: unknown chart")

func ParseChartName(raw string) (ChartName, error) {
	switch n := ChartName(strings.ToLower(strings.TrimSpace(raw))); n {
	case ChartStatus, ChartMonthly, ChartInterview:
		return n, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, raw)
	}
}

var (
	statusPalette    = []string{"#6366f1", "#10b981", "#f59e0b", "#ef4444", "#a855f7"}
	monthlyPalette   = []string{"#6366f1"}
	interviewPalette = []string{"#10b981", "#d1d5db"}
)

// Renderer returns the chart variant used for name.
func Renderer(name ChartName) viz.Renderer {
	if name == ChartMonthly {
		return viz.NewBarChart()
	}
	return viz.NewDonutChart()
}

type Rates struct {
	Interview int `json:"interviewRate"`
	Offer     int `json:"offerRate"`
}

type DashboardView struct {
	Stats          job.Stats    `json:"stats"`
	Rates          Rates        `json:"rates"`
	StatusChart    chart.Series `json:"statusChart"`
	MonthlyChart   chart.Series `json:"monthlyChart"`
	InterviewChart chart.Series `json:"interviewChart"`
}

// Dashboard presents the dashboard scope: stats, conversion rates and the
// three chart series, optionally drawn onto mounted chart surfaces.
type Dashboard struct {
	cache   *recordcache.Cache
	release func()
	closed  atomic.Bool

	data  *reactive.Memo[job.Dashboard]
	stats *reactive.Memo[job.Stats]
	rates *reactive.Memo[Rates]

	mu       sync.Mutex
	theme    viz.Style
	surfaces map[ChartName]*viz.Surface
	unsub    func()
}

func NewDashboard(cache *recordcache.Cache, theme viz.Style) *Dashboard {
	d := &Dashboard{
		cache:    cache,
		release:  cache.Acquire(recordcache.ScopeDashboard),
		theme:    theme.WithDefaults(),
		surfaces: make(map[ChartName]*viz.Surface),
	}

	src := cache.Dashboard()
	d.data = reactive.NewMemo(func() job.Dashboard {
		return views.NormalizeDashboard(src.Get())
	}, src)
	d.stats = reactive.NewMemo(func() job.Stats {
		return d.data.Get().Stats
	}, d.data)
	d.rates = reactive.NewMemo(func() Rates {
		i, o := views.Rates(d.stats.Get())
		return Rates{Interview: i, Offer: o}
	}, d.stats)

	d.unsub = src.Subscribe(d.redraw)
	return d
}

// Load loads the dashboard scope. If the controller was closed while the
// load was in flight the result is not presented and ErrClosed is returned.
func (d *Dashboard) Load(ctx context.Context, force bool) error {
	if d.closed.Load() {
		return ErrClosed
	}
	err := d.cache.Load(ctx, recordcache.ScopeDashboard, force)
	if d.closed.Load() {
		return ErrClosed
	}
	return err
}

func (d *Dashboard) Stats() job.Stats { return d.stats.Get() }

func (d *Dashboard) Rates() Rates { return d.rates.Get() }

func (d *Dashboard) View() DashboardView {
	data := d.data.Get()
	return DashboardView{
		Stats:          d.stats.Get(),
		Rates:          d.rates.Get(),
		StatusChart:    data.StatusChart.Clone(),
		MonthlyChart:   data.MonthlyChart.Clone(),
		InterviewChart: data.InterviewChart.Clone(),
	}
}

func (d *Dashboard) Series(name ChartName) chart.Series {
	data := d.data.Get()
	switch name {
	case ChartStatus:
		return data.StatusChart.Clone()
	case ChartMonthly:
		return data.MonthlyChart.Clone()
	case ChartInterview:
		return data.InterviewChart.Clone()
	}
	return nil
}

// Style is the theme with the palette of chart name.
func (d *Dashboard) Style(name ChartName) viz.Style {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.styleLocked(name)
}

func (d *Dashboard) styleLocked(name ChartName) viz.Style {
	return ChartStyle(name, d.theme)
}

// ChartStyle applies the palette of chart name to theme.
func ChartStyle(name ChartName, theme viz.Style) viz.Style {
	s := theme.WithDefaults()
	switch name {
	case ChartStatus:
		s.Palette = statusPalette
	case ChartMonthly:
		s.Palette = monthlyPalette
	case ChartInterview:
		s.Palette = interviewPalette
	}
	return s
}

// SetTheme restyles every mounted chart.
func (d *Dashboard) SetTheme(theme viz.Style) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.theme = theme.WithDefaults()
	for name, s := range d.surfaces {
		s.SetStyle(d.styleLocked(name))
	}
}

// Mount creates a surface for chart name in box, replacing any surface
// already mounted under that name.
func (d *Dashboard) Mount(name ChartName, sched viz.FrameScheduler, box viz.Container, onFrame func(viz.Frame)) (*viz.Surface, error) {
	if _, err := ParseChartName(string(name)); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if old, ok := d.surfaces[name]; ok {
		old.Close()
	}
	s := viz.NewSurface(Renderer(name), sched, box, onFrame)
	s.SetStyle(d.styleLocked(name))
	s.SetSeries(d.Series(name))
	d.surfaces[name] = s
	return s, nil
}

func (d *Dashboard) Surface(name ChartName) (*viz.Surface, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.surfaces[name]
	return s, ok
}

func (d *Dashboard) Unmount(name ChartName) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.surfaces[name]; ok {
		s.Close()
		delete(d.surfaces, name)
	}
}

// Detach closes s and drops it from the dashboard if it is still the surface
// mounted under name. A newer mount under the same name is left alone.
func (d *Dashboard) Detach(name ChartName, s *viz.Surface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.surfaces[name]; ok && cur == s {
		delete(d.surfaces, name)
	}
	s.Close()
}

func (d *Dashboard) redraw() {
	if d.closed.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, s := range d.surfaces {
		s.SetSeries(d.Series(name))
	}
}

// Close tears down mounted charts and releases the dashboard scope.
func (d *Dashboard) Close() {
	if d.closed.Swap(true) {
		return
	}
	d.unsub()
	d.release()

	d.mu.Lock()
	defer d.mu.Unlock()
	for name, s := range d.surfaces {
		s.Close()
		delete(d.surfaces, name)
	}
}

func (d *Dashboard) Closed() bool {
	return d.closed.Load()
}
