package routes

import (
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"
	v1 "job-tracker/internal/delivery/http/routes/v1"
	"job-tracker/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	auth   *middleware.AuthMiddleware
	v1     v1.Handlers
	ws     *ws.Handler
}

func NewRegistry(health *handler.HealthHandler, auth *middleware.AuthMiddleware, api v1.Handlers, wsHandler *ws.Handler) *Registry {
	return &Registry{health: health, auth: auth, v1: api, ws: wsHandler}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api", r.auth.Middleware())
	RegisterV1(api.Group("/v1"), r.v1)
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws == nil {
		return
	}
	r.ws.RegisterRoutes(app.Group("/ws", r.auth.Middleware()))
}
