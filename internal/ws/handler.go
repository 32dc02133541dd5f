package ws

import (
	"net/http"

	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/session"
	"job-tracker/internal/viz"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	hub      *Hub
	sessions *session.Manager
	sched    viz.FrameScheduler
	themes   config.Themes
	logger   *zap.Logger
}

func NewHandler(hub *Hub, sessions *session.Manager, sched viz.FrameScheduler, themes config.Themes, log *zap.Logger) *Handler {
	return &Handler{hub: hub, sessions: sessions, sched: sched, themes: themes, logger: logger.OrNop(log)}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/charts", h.HandleChartsWS)
}

func (h *Handler) HandleChartsWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	sess := h.sessions.Get(userID, token)

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(h.hub, conn, sess, h.sched, h.themes, h.logger)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
