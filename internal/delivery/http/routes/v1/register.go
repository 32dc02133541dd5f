package v1

import (
	"job-tracker/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Applications *handler.ApplicationHandler
	Dashboard    *handler.DashboardHandler
	Session      *handler.SessionHandler
}

// Register mounts the v1 API on r. Authentication is applied by the caller.
func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Applications != nil {
		h.Applications.RegisterRoutes(r)
	}
	if h.Dashboard != nil {
		h.Dashboard.RegisterRoutes(r)
	}
	if h.Session != nil {
		h.Session.RegisterRoutes(r)
	}
}
