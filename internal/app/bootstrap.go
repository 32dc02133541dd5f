package app

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// NewFiber builds the HTTP app: access log outermost, then the error
// envelope, then the routes.
func NewFiber(cfg config.Config, log *zap.Logger, registry *routes.Registry) *fiber.App {
	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	registerGlobalMiddleware(f, log)
	registry.Register(f)

	return f
}

func registerGlobalMiddleware(app *fiber.App, log *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}

func hostPort(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", baseURL)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	if u.Scheme == "https" {
		return net.JoinHostPort(u.Hostname(), "443"), nil
	}
	return net.JoinHostPort(u.Hostname(), "80"), nil
}
