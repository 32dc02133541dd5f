package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/controller"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/session"
	"job-tracker/internal/viz"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	loadTimeout    = 10 * time.Second
)

type mountedChart struct {
	box     *viz.Box
	surface *viz.Surface
}

// Client is one browser page drawing dashboard charts. Each mounted chart
// gets a Box sized by the page and a surface on the user's dashboard.
type Client struct {
	id     string
	userID uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	sess   *session.Session
	sched  viz.FrameScheduler
	themes config.Themes
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	mu     sync.Mutex
	charts map[controller.ChartName]*mountedChart
}

func NewClient(hub *Hub, conn *websocket.Conn, sess *session.Session, sched viz.FrameScheduler, themes config.Themes, log *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:     uuid.NewString(),
		userID: sess.UserID,
		hub:    hub,
		conn:   conn,
		sess:   sess,
		sched:  sched,
		themes: themes,
		ctx:    ctx,
		cancel: cancel,
		send:   make(chan []byte, sendBuffer),
		charts: make(map[controller.ChartName]*mountedChart),
	}
	c.logger = logger.OrNop(log).With(zap.String("conn_id", c.id), zap.String("user_id", c.userID.String()))
	return c
}

func (c *Client) ID() string { return c.id }

// enqueue never blocks. It reports false when the client is closed or
// too slow to keep up.
func (c *Client) enqueue(b []byte) bool {
	if b == nil {
		return true
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) sendError(chart, msg string) {
	c.enqueue(encode(ErrorMessage{Type: TypeError, Chart: chart, Message: msg}))
}

// Close unmounts the client's charts and stops its writer. Safe to call
// more than once.
func (c *Client) Close() {
	c.cancel()

	c.mu.Lock()
	charts := c.charts
	c.charts = make(map[controller.ChartName]*mountedChart)
	c.mu.Unlock()
	for name, m := range charts {
		c.sess.Dashboard.Detach(name, m.surface)
	}

	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()
}

func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", zap.Error(err))
			}
			return
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendError("", "malformed message")
			continue
		}
		c.handle(in)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(in Inbound) {
	switch in.Type {
	case TypeMount:
		c.mount(in)
	case TypeResize:
		if m, ok := c.chart(in.Chart); ok {
			m.box.SetSize(in.Width, in.Height)
		}
	case TypePointerMove:
		if m, ok := c.chart(in.Chart); ok {
			c.interaction(in.Chart, m.surface.PointerMove(in.X, in.Y))
		}
	case TypePointerLeave:
		if m, ok := c.chart(in.Chart); ok {
			c.interaction(in.Chart, m.surface.PointerLeave())
		}
	case TypeTheme:
		c.sess.Dashboard.SetTheme(c.themes.Style(in.Theme))
	case TypeUnmount:
		c.unmount(in.Chart)
	default:
		c.sendError(in.Chart, "unknown message type")
	}
}

func (c *Client) mount(in Inbound) {
	name, err := controller.ParseChartName(in.Chart)
	if err != nil {
		c.sendError(in.Chart, err.Error())
		return
	}

	c.mu.Lock()
	if old, ok := c.charts[name]; ok {
		old.surface.Close()
		delete(c.charts, name)
	}
	box := viz.NewBox(in.Width, in.Height)
	surface, err := c.sess.Dashboard.Mount(name, c.sched, box, c.frameSink(name))
	if err == nil {
		c.charts[name] = &mountedChart{box: box, surface: surface}
	}
	c.mu.Unlock()
	if err != nil {
		c.sendError(in.Chart, err.Error())
		return
	}

	go c.load()
}

func (c *Client) load() {
	ctx, cancel := context.WithTimeout(c.ctx, loadTimeout)
	defer cancel()
	if err := c.sess.LoadDashboard(ctx); err != nil {
		if errors.Is(err, controller.ErrClosed) || errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Warn("dashboard load failed", zap.Error(err))
		c.sendError("", "dashboard unavailable")
	}
}

func (c *Client) unmount(chart string) {
	name := controller.ChartName(chart)
	c.mu.Lock()
	m, ok := c.charts[name]
	delete(c.charts, name)
	c.mu.Unlock()
	if ok {
		c.sess.Dashboard.Detach(name, m.surface)
	}
}

func (c *Client) chart(chart string) (*mountedChart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.charts[controller.ChartName(chart)]
	if !ok || m.surface.Closed() {
		return nil, false
	}
	return m, true
}

func (c *Client) frameSink(name controller.ChartName) func(viz.Frame) {
	return func(f viz.Frame) {
		if !c.enqueue(encode(newFrameMessage(name, f))) {
			c.logger.Debug("frame dropped", zap.String("chart", string(name)), zap.Int("seq", f.Seq))
		}
	}
}

func (c *Client) interaction(chart string, in viz.Interaction) {
	c.enqueue(encode(InteractionMessage{
		Type:        TypeInteraction,
		Chart:       controller.ChartName(chart),
		Interaction: in,
	}))
}
