package handler

import (
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type SessionHandler struct {
	sessions Sessions
}

func NewSessionHandler(sessions Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/session/logout", h.Logout)
}

// Logout drops the user's cached records before responding.
func (h *SessionHandler) Logout(c fiber.Ctx) error {
	userID, _, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.Context(), userID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
