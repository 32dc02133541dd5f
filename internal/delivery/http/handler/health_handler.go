package handler

import (
	"context"
	"time"

	"job-tracker/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// Check probes one dependency. Optional checks report but never fail the
// health endpoint.
type Check struct {
	Name     string
	Probe    func(ctx context.Context) error
	Optional bool
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	out := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Probe(ctx); err != nil {
			out[chk.Name] = err.Error()
			if !chk.Optional {
				status = fiber.StatusServiceUnavailable
			}
			continue
		}
		out[chk.Name] = response.MessageOK
	}
	return response.Success(c, status, "", out)
}
