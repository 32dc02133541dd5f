package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/domain/chart"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/session"
	"job-tracker/internal/viz"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{}

func (staticSource) ListJobs(ctx context.Context) ([]job.Record, error) { return nil, nil }
func (staticSource) Dashboard(ctx context.Context) (job.Dashboard, error) {
	return job.Dashboard{
		StatusChart: chart.Series{{Name: "Applied", Value: 3}, {Name: "Rejected", Value: 1}},
	}, nil
}
func (staticSource) CreateJob(ctx context.Context, r job.Record) (job.Record, error) { return r, nil }
func (staticSource) UpdateJob(ctx context.Context, r job.Record) (job.Record, error) { return r, nil }
func (staticSource) DeleteJob(ctx context.Context, id string) error                  { return nil }

func newTestClient(t *testing.T) (*Client, *viz.ManualScheduler) {
	t.Helper()
	m := session.NewManager(func(uuid.UUID, string) recordcache.Source { return staticSource{} }, nil, nil, viz.DefaultStyle(), nil)
	t.Cleanup(m.Close)
	sched := viz.NewManualScheduler()
	sess := m.Get(uuid.New(), "token")
	return NewClient(NewHub(nil), nil, sess, sched, config.DefaultThemes(), nil), sched
}

// mount mounts a chart and waits for the dashboard load it starts, so the
// scheduler holds exactly one pending frame.
func mount(t *testing.T, c *Client, chart string, w, h float64) {
	t.Helper()
	c.handle(Inbound{Type: TypeMount, Chart: chart, Width: w, Height: h})
	require.Eventually(t, func() bool {
		return c.sess.Cache.Loaded(recordcache.ScopeDashboard)
	}, time.Second, 5*time.Millisecond)
}

func next(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case b := <-c.send:
		var out map[string]any
		require.NoError(t, json.Unmarshal(b, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func TestClient_MountDrawsFrame(t *testing.T) {
	c, sched := newTestClient(t)
	mount(t, c, "status", 400, 300)

	require.Equal(t, 1, sched.Flush(time.Now()))
	msg := next(t, c)
	assert.Equal(t, TypeFrame, msg["type"])
	assert.Equal(t, "status", msg["chart"])
	assert.Contains(t, msg["svg"], "<svg")
}

func TestClient_ResizeBeforeFrameCoalesces(t *testing.T) {
	c, sched := newTestClient(t)
	mount(t, c, "monthly", 400, 300)
	for i := 0; i < 5; i++ {
		c.handle(Inbound{Type: TypeResize, Chart: "monthly", Width: float64(300 + i), Height: 200})
	}

	assert.Equal(t, 1, sched.Flush(time.Now()))
	msg := next(t, c)
	assert.Equal(t, float64(304), msg["width"])
}

func TestClient_UnknownInput(t *testing.T) {
	c, _ := newTestClient(t)

	c.handle(Inbound{Type: "bogus"})
	assert.Equal(t, TypeError, next(t, c)["type"])

	c.handle(Inbound{Type: TypeMount, Chart: "pie"})
	assert.Equal(t, TypeError, next(t, c)["type"])

	c.handle(Inbound{Type: TypePointerMove, Chart: "status", X: 1, Y: 1})
	assert.Len(t, c.send, 0)
}

func TestClient_PointerLeaveAfterFrame(t *testing.T) {
	c, sched := newTestClient(t)
	mount(t, c, "interview", 200, 200)
	sched.Flush(time.Now())
	next(t, c)

	c.handle(Inbound{Type: TypePointerLeave, Chart: "interview"})
	msg := next(t, c)
	assert.Equal(t, TypeInteraction, msg["type"])
	inter := msg["interaction"].(map[string]any)
	assert.Equal(t, float64(-1), inter["index"])
}

func TestClient_CloseReleasesCharts(t *testing.T) {
	c, sched := newTestClient(t)
	mount(t, c, "status", 400, 300)
	m, ok := c.chart("status")
	require.True(t, ok)

	c.Close()
	c.Close()
	assert.True(t, m.surface.Closed())
	assert.Equal(t, 0, sched.Pending())
	assert.False(t, c.enqueue([]byte("x")))
	assert.Equal(t, 0, m.box.Observers())
}

func TestClient_UnmountLeavesNoSurfaceBehind(t *testing.T) {
	c, _ := newTestClient(t)
	mount(t, c, "status", 400, 300)
	_, ok := c.sess.Dashboard.Surface("status")
	require.True(t, ok)

	c.handle(Inbound{Type: TypeUnmount, Chart: "status"})
	_, ok = c.sess.Dashboard.Surface("status")
	assert.False(t, ok)
}

func TestClient_CloseKeepsAnotherClientsMount(t *testing.T) {
	m := session.NewManager(func(uuid.UUID, string) recordcache.Source { return staticSource{} }, nil, nil, viz.DefaultStyle(), nil)
	t.Cleanup(m.Close)
	sess := m.Get(uuid.New(), "token")
	hub := NewHub(nil)
	a := NewClient(hub, nil, sess, viz.NewManualScheduler(), config.DefaultThemes(), nil)
	b := NewClient(hub, nil, sess, viz.NewManualScheduler(), config.DefaultThemes(), nil)

	mount(t, a, "monthly", 400, 300)
	mount(t, b, "monthly", 300, 200)
	mb, ok := b.chart("monthly")
	require.True(t, ok)

	a.Close()
	cur, ok := sess.Dashboard.Surface("monthly")
	require.True(t, ok)
	assert.Same(t, mb.surface, cur)
	assert.False(t, mb.surface.Closed())

	b.Close()
	_, ok = sess.Dashboard.Surface("monthly")
	assert.False(t, ok)
}

func TestHub_SendToUser(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	h := c.hub
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	h.Register(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.SendToUser(uuid.New(), []byte(`{"type":"other"}`))
	h.NotifyRecordsChanged(c.userID.String())
	assert.Equal(t, TypeRecordsChanged, next(t, c)["type"])

	cancel()
	<-stopped
	assert.Equal(t, 0, h.ClientCount())
	_, open := <-c.send
	assert.False(t, open)
}
