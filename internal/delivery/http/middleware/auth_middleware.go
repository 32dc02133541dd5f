package middleware

import (
	"errors"
	"strings"

	"job-tracker/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey = "user_id"
	CtxEmailKey  = "email"
	CtxTokenKey  = "access_token"
)

type AuthMiddleware struct {
	jwt jwt.Verifier
}

func NewAuthMiddleware(v jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: v}
}

// Middleware accepts a bearer Authorization header. Websocket upgrades may
// pass the token as the access_token query parameter instead, since
// browsers cannot set headers on them.
func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok && isWebsocketUpgrade(c) {
			token = strings.TrimSpace(c.Query("access_token"))
			ok = token != ""
		}
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.jwt.Verify(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxEmailKey, claims.Email)
		c.Locals(CtxTokenKey, token)

		return c.Next()
	}
}

// Identity returns the user and raw token stored by the auth middleware.
func Identity(c fiber.Ctx) (uuid.UUID, string, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, "", NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	token, _ := c.Locals(CtxTokenKey).(string)
	return userID, token, nil
}

func isWebsocketUpgrade(c fiber.Ctx) bool {
	return strings.EqualFold(c.Get("Upgrade"), "websocket")
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
