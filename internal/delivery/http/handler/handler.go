package handler

import (
	"context"

	"job-tracker/internal/session"

	"github.com/google/uuid"
)

// Sessions is the part of the session manager the handlers use.
type Sessions interface {
	Get(userID uuid.UUID, token string) *session.Session
	Logout(ctx context.Context, userID uuid.UUID) error
}
