package middleware

import (
	"errors"

	"job-tracker/internal/controller"
	"job-tracker/internal/pkg/apperr"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/recordcache"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct {
	logger *zap.Logger
}

func NewErrorMiddleware(log *zap.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{logger: logger.OrNop(log)}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic recovered", zap.String("path", c.Path()), zap.Any("panic", r))
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := NormalizeError(err)
		if status >= 500 {
			m.logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		}
		return response.Error(c, status, msg, data)
	}
}

// NormalizeError maps an error to status, message and data of the
// response envelope. Details of 5xx errors are not exposed, except that
// an unavailable upstream reports 503.
func NormalizeError(err error) (int, string, any) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode <= 0 || appErr.StatusCode >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := appErr.Message
		if msg == "" {
			msg = response.DefaultMessage(appErr.StatusCode)
		}
		return appErr.StatusCode, msg, appErr.Data
	}

	switch {
	case errors.Is(err, recordcache.ErrInvalidMutation), errors.Is(err, recordcache.ErrUnknownScope):
		return fiber.StatusBadRequest, err.Error(), nil
	case errors.Is(err, controller.ErrUnknownChart):
		return fiber.StatusNotFound, err.Error(), nil
	case errors.Is(err, controller.ErrClosed):
		return fiber.StatusConflict, "session closed", nil
	}

	if t, ok := apperr.TypeOf(err); ok {
		var ae *apperr.Error
		errors.As(err, &ae)
		switch t {
		case apperr.TypeUnavailable:
			return fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, nil
		case apperr.TypeRejected:
			return fiber.StatusUnprocessableEntity, ae.Message, nil
		case apperr.TypeNotFound:
			return fiber.StatusNotFound, ae.Message, nil
		case apperr.TypeInvalidInput:
			return fiber.StatusBadRequest, ae.Message, nil
		case apperr.TypeUnauthorized:
			return fiber.StatusUnauthorized, ae.Message, nil
		default:
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, nil
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}
