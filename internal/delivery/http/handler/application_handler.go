package handler

import (
	"errors"
	"strconv"
	"strings"

	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/response"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/views"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type ApplicationHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

func NewApplicationHandler(sessions Sessions, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{sessions: sessions, logger: logger}
}

func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/applications")
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
}

func (h *ApplicationHandler) List(c fiber.Ctx) error {
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	state, err := parseViewState(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	sess := h.sessions.Get(userID, token)
	if err := sess.LoadList(c.Context()); err != nil {
		return err
	}
	st, res := sess.List.Show(state)
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationListResponse(st, res))
}

func (h *ApplicationHandler) Create(c fiber.Ctx) error {
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	rec, err := bindApplication(c, "")
	if err != nil {
		return err
	}

	created, err := h.sessions.Get(userID, token).List.Create(c.Context(), rec)
	return h.written(c, fiber.StatusCreated, created, err)
}

func (h *ApplicationHandler) Update(c fiber.Ctx) error {
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Params("id"))
	rec, err := bindApplication(c, id)
	if err != nil {
		return err
	}

	updated, err := h.sessions.Get(userID, token).List.Update(c.Context(), rec)
	return h.written(c, fiber.StatusOK, updated, err)
}

func (h *ApplicationHandler) Delete(c fiber.Ctx) error {
	userID, token, err := middleware.Identity(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.Params("id"))

	err = h.sessions.Get(userID, token).List.Delete(c.Context(), id)
	return h.written(c, fiber.StatusOK, job.Record{ID: id}, err)
}

// written reports a mutation. A write the store confirmed is a success even
// when the refresh behind it failed; the cache refetches on the next read.
func (h *ApplicationHandler) written(c fiber.Ctx, status int, rec job.Record, err error) error {
	if err != nil && !errors.Is(err, recordcache.ErrRefresh) {
		return err
	}
	msg := ""
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("refresh after write failed", zap.String("id", rec.ID), zap.Error(err))
		}
		msg = response.MessageRefreshPending
	}
	return response.Success(c, status, msg, dto.NewApplicationResponse(rec))
}

func bindApplication(c fiber.Ctx, id string) (job.Record, error) {
	var req dto.ApplicationRequest
	if err := c.Bind().Body(&req); err != nil {
		return job.Record{}, middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	req.Company = strings.TrimSpace(req.Company)
	req.Role = strings.TrimSpace(req.Role)
	if req.Company == "" || req.Role == "" {
		return job.Record{}, middleware.NewAppError(fiber.StatusBadRequest, "company and role are required", nil, nil)
	}
	if !req.Status.Valid() {
		return job.Record{}, middleware.NewAppError(fiber.StatusBadRequest, "unknown status", fiber.Map{"status": req.Status}, nil)
	}
	return req.Record(id), nil
}

func parseViewState(c fiber.Ctx) (views.ViewState, error) {
	st := views.DefaultViewState()
	st.SearchQuery = c.Query("q")
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st.StatusFilter = s
	}
	if raw := c.Query("sort"); raw != "" {
		f, ok := views.ParseSortField(raw)
		if !ok {
			return st, errors.New("unknown sort field")
		}
		st.SortField = f
	}
	if raw := c.Query("dir"); raw != "" {
		d, ok := views.ParseSortDirection(raw)
		if !ok {
			return st, errors.New("unknown sort direction")
		}
		st.SortDirection = d
	}
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return st, errors.New("page must be an integer")
		}
		st.CurrentPage = p
	}
	return st, nil
}
