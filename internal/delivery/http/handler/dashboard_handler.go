package handler

import (
	"errors"
	"strconv"
	"strings"

	"job-tracker/internal/config"
	"job-tracker/internal/controller"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/viz"

	"github.com/gofiber/fiber/v3"
)

const (
	defaultChartWidth  = 600
	defaultChartHeight = 300
)

type DashboardHandler struct {
	sessions Sessions
	themes   config.Themes
}

func NewDashboardHandler(sessions Sessions, themes config.Themes) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, themes: themes}
}

func (h *DashboardHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/dashboard")
	grp.Get("/", h.Get)
	grp.Get("/charts/:name", h.Chart)
}

func (h *DashboardHandler) Get(c fiber.Ctx) error {
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	sess := h.sessions.Get(userID, token)
	if err := sess.LoadDashboard(c.Context()); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, sess.Dashboard.View())
}

// Chart renders one chart as a static SVG: the final frame of its
// layout, without animation.
func (h *DashboardHandler) Chart(c fiber.Ctx) error {
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	name, err := controller.ParseChartName(strings.TrimSuffix(c.Params("name"), ".svg"))
	if err != nil {
		return err
	}
	w, err := parseDimension(c.Query("w"), defaultChartWidth)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "w: "+err.Error(), nil, err)
	}
	ht, err := parseDimension(c.Query("h"), defaultChartHeight)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "h: "+err.Error(), nil, err)
	}

	sess := h.sessions.Get(userID, token)
	if err := sess.LoadDashboard(c.Context()); err != nil {
		return err
	}

	style := sess.Dashboard.Style(name)
	if theme := c.Query("theme"); theme != "" {
		style = controller.ChartStyle(name, h.themes.Style(theme))
	}
	scene := controller.Renderer(name).Layout(viz.Input{
		Series: sess.Dashboard.Series(name),
		Style:  style,
		Size:   viz.Size{Width: w, Height: ht},
	})
	if scene == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "chart size is not drawable", nil, nil)
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.SendString(scene.SVG())
}

func parseDimension(raw string, def float64) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if v <= 0 || v > 4096 {
		return 0, errors.New("out of range")
	}
	return v, nil
}
