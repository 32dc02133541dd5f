package controller

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"job-tracker/internal/domain/chart"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/views"
	"job-tracker/internal/viz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	mu        sync.Mutex
	records   []job.Record
	dashboard job.Dashboard
	nextID    int
	dashGate  chan struct{}
}

func (m *memorySource) ListJobs(ctx context.Context) ([]job.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return job.CloneRecords(m.records), nil
}

func (m *memorySource) Dashboard(ctx context.Context) (job.Dashboard, error) {
	m.mu.Lock()
	gate := m.dashGate
	d := m.dashboard.Clone()
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return d, nil
}

func (m *memorySource) CreateJob(ctx context.Context, r job.Record) (job.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = fmt.Sprintf("job-%d", m.nextID)
	m.records = append(m.records, r)
	return r, nil
}

func (m *memorySource) UpdateJob(ctx context.Context, r job.Record) (job.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == r.ID {
			m.records[i] = r
		}
	}
	return r, nil
}

func (m *memorySource) DeleteJob(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.records[:0]
	for _, r := range m.records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	m.records = out
	return nil
}

func records(n int) []job.Record {
	out := make([]job.Record, n)
	for i := range out {
		out[i] = job.Record{
			ID:      fmt.Sprintf("job-%d", i+1),
			Company: fmt.Sprintf("Company %02d", i+1),
			Role:    "Engineer",
			Date:    job.NewDate(2024, time.January, i+1),
			Status:  job.StatusApplied,
		}
		out[i].ApplyStatus(job.StatusApplied)
	}
	return out
}

func TestDashboard_ViewIsNormalizedAndMemoized(t *testing.T) {
	src := &memorySource{dashboard: job.Dashboard{
		Stats:          job.Stats{TotalApplications: 10, Interviews: 4, Offers: 1, ActivePipeline: -2},
		StatusChart:    chart.Series{{Name: "Applied", Value: 6}, {Name: "Rejected", Value: 0}},
		MonthlyChart:   chart.Series{{Name: "Jan 24", Value: 10}},
		InterviewChart: chart.Series{{Name: "Interviewed", Value: 4}},
	}}
	cache := recordcache.New(src)
	d := NewDashboard(cache, viz.DefaultStyle())
	defer d.Close()

	require.NoError(t, d.Load(context.Background(), false))

	v := d.View()
	assert.Equal(t, 0, v.Stats.ActivePipeline)
	assert.Equal(t, Rates{Interview: 40, Offer: 25}, v.Rates)
	assert.Equal(t, chart.Series{{Name: "Applied", Value: 6}}, v.StatusChart)
	assert.Len(t, v.InterviewChart, 2)

	computes := d.stats.Computes()
	d.View()
	d.Rates()
	assert.Equal(t, computes, d.stats.Computes())
}

func TestDashboard_LoadAfterCloseIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	src := &memorySource{dashGate: gate, dashboard: job.Dashboard{Stats: job.Stats{TotalApplications: 3}}}
	cache := recordcache.New(src)
	d := NewDashboard(cache, viz.Style{})

	errc := make(chan error, 1)
	go func() { errc <- d.Load(context.Background(), false) }()

	d.Close()
	close(gate)
	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.ErrorIs(t, d.Load(context.Background(), false), ErrClosed)
}

func TestDashboard_MountedChartsFollowTheCache(t *testing.T) {
	src := &memorySource{dashboard: job.Dashboard{
		StatusChart: chart.Series{{Name: "Applied", Value: 2}, {Name: "OfferReceived", Value: 1}},
	}}
	cache := recordcache.New(src)
	d := NewDashboard(cache, viz.Style{})
	require.NoError(t, d.Load(context.Background(), false))

	sched := viz.NewManualScheduler()
	box := viz.NewBox(200, 200)
	s, err := d.Mount(ChartStatus, sched, box, nil)
	require.NoError(t, err)

	sched.Flush(time.Now())
	sc := s.Scene()
	require.NotNil(t, sc)
	assert.Equal(t, viz.KindDonut, sc.Kind)
	require.Len(t, sc.Slices, 2)
	assert.Equal(t, "#10b981", sc.Slices[1].Fill)

	// logout empties the cache and the chart falls back to its placeholder
	cache.Clear()
	sched.Flush(time.Now())
	assert.True(t, s.Scene().Empty)

	_, err = d.Mount("pipeline", sched, box, nil)
	assert.ErrorIs(t, err, ErrUnknownChart)

	d.Close()
	assert.True(t, s.Closed())
	assert.Zero(t, box.Observers())
	_, err = d.Mount(ChartMonthly, sched, box, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDashboard_DetachKeepsNewerMount(t *testing.T) {
	d := NewDashboard(recordcache.New(&memorySource{}), viz.Style{})
	sched := viz.NewManualScheduler()

	first, err := d.Mount(ChartStatus, sched, viz.NewBox(200, 200), nil)
	require.NoError(t, err)
	second, err := d.Mount(ChartStatus, sched, viz.NewBox(300, 200), nil)
	require.NoError(t, err)

	d.Detach(ChartStatus, first)
	cur, ok := d.Surface(ChartStatus)
	require.True(t, ok)
	assert.Same(t, second, cur)
	assert.False(t, second.Closed())

	d.Detach(ChartStatus, second)
	_, ok = d.Surface(ChartStatus)
	assert.False(t, ok)
	assert.True(t, second.Closed())
}

func TestDashboard_SetThemeRestylesCharts(t *testing.T) {
	cache := recordcache.New(&memorySource{})
	d := NewDashboard(cache, viz.Style{})
	defer d.Close()

	sched := viz.NewManualScheduler()
	s, err := d.Mount(ChartMonthly, sched, viz.NewBox(300, 200), nil)
	require.NoError(t, err)
	sched.Flush(time.Now())

	d.SetTheme(viz.Style{TextColor: "#111827"})
	assert.Equal(t, 1, sched.Pending())
	sched.Flush(time.Now())
	assert.Equal(t, "#111827", s.Scene().Style.TextColor)
	assert.Equal(t, []string{"#6366f1"}, s.Scene().Style.Palette)
}

func TestRenderer(t *testing.T) {
	assert.Equal(t, viz.KindBar, Renderer(ChartMonthly).Kind())
	assert.Equal(t, viz.KindDonut, Renderer(ChartStatus).Kind())
	assert.Equal(t, viz.KindDonut, Renderer(ChartInterview).Kind())
}

func TestList_DefaultsToNewestFirst(t *testing.T) {
	cache := recordcache.New(&memorySource{records: records(3)})
	l := NewList(cache)
	defer l.Close()
	require.NoError(t, l.Load(context.Background(), false))

	assert.Equal(t, views.DefaultViewState(), l.State())
	res := l.Result()
	require.Len(t, res.Items, 3)
	assert.Equal(t, "job-3", res.Items[0].ID)
	assert.Equal(t, "job-1", res.Items[2].ID)
}

func TestList_ClampsPageWhenDataShrinks(t *testing.T) {
	src := &memorySource{records: records(9)}
	cache := recordcache.New(src)
	l := NewList(cache)
	defer l.Close()
	require.NoError(t, l.Load(context.Background(), false))

	l.NextPage()
	require.Equal(t, 2, l.State().CurrentPage)
	assert.Len(t, l.Result().Items, 1)

	require.NoError(t, l.Delete(context.Background(), "job-1"))
	res := l.Result()
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 1, l.State().CurrentPage)
	assert.Len(t, res.Items, 8)

	l.NextPage()
	assert.Equal(t, 1, l.State().CurrentPage)
	l.PrevPage()
	assert.Equal(t, 1, l.State().CurrentPage)
}

func TestList_SearchAndFilterResetPage(t *testing.T) {
	cache := recordcache.New(&memorySource{records: records(20)})
	l := NewList(cache)
	defer l.Close()
	require.NoError(t, l.Load(context.Background(), false))

	l.SetPage(3)
	require.Equal(t, 3, l.State().CurrentPage)

	l.SetSearch("company 1")
	assert.Equal(t, 1, l.State().CurrentPage)
	assert.Equal(t, 10, l.Result().TotalFiltered)

	l.SetStatusFilter(string(job.StatusRejected))
	assert.Zero(t, l.Result().TotalFiltered)
	assert.Equal(t, 1, l.Result().TotalPages)
}

func TestList_ToggleSortAndReset(t *testing.T) {
	cache := recordcache.New(&memorySource{records: records(2)})
	l := NewList(cache)
	defer l.Close()

	l.ToggleSort(views.SortCompany)
	assert.Equal(t, views.SortCompany, l.State().SortField)
	assert.Equal(t, views.Asc, l.State().SortDirection)
	l.ToggleSort(views.SortCompany)
	assert.Equal(t, views.Desc, l.State().SortDirection)

	l.Reset()
	assert.Equal(t, views.DefaultViewState(), l.State())
}

func TestList_ShowClampsRequestedPage(t *testing.T) {
	cache := recordcache.New(&memorySource{records: records(3)})
	l := NewList(cache)
	defer l.Close()
	require.NoError(t, l.Load(context.Background(), false))

	st := views.DefaultViewState()
	st.CurrentPage = 7
	got, res := l.Show(st)
	assert.Equal(t, 1, got.CurrentPage)
	assert.Len(t, res.Items, 3)
}

func TestList_CreateMapsStage(t *testing.T) {
	cache := recordcache.New(&memorySource{})
	l := NewList(cache)
	require.NoError(t, l.Load(context.Background(), false))

	created, err := l.Create(context.Background(), job.Record{Company: "Acme", Status: job.StatusInterviewScheduled})
	require.NoError(t, err)
	assert.Equal(t, 3, created.Stage)
	assert.Len(t, l.Records(), 1)

	l.Close()
	_, err = l.Create(context.Background(), job.Record{Company: "Late"})
	assert.ErrorIs(t, err, ErrClosed)
}
