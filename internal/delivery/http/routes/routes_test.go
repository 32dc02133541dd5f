package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"
	v1 "job-tracker/internal/delivery/http/routes/v1"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/apperr"
	"job-tracker/internal/pkg/jwt"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/session"
	"job-tracker/internal/views"
	"job-tracker/internal/viz"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	mu      sync.Mutex
	records []job.Record
	down    bool
}

func (s *memorySource) ListJobs(ctx context.Context) ([]job.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, apperr.Unavailable("job api", errors.New("connection refused"))
	}
	return job.CloneRecords(s.records), nil
}

func (s *memorySource) Dashboard(ctx context.Context) (job.Dashboard, error) {
	recs, err := s.ListJobs(ctx)
	if err != nil {
		return job.Dashboard{}, err
	}
	return views.DashboardFromRecords(recs), nil
}

func (s *memorySource) CreateJob(ctx context.Context, r job.Record) (job.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	s.records = append(s.records, r)
	return r, nil
}

func (s *memorySource) UpdateJob(ctx context.Context, r job.Record) (job.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == r.ID {
			s.records[i] = r
			return r, nil
		}
	}
	return job.Record{}, apperr.NotFound("job application not found", nil)
}

func (s *memorySource) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("job application not found", nil)
}

type testServer struct {
	app      *fiber.App
	src      *memorySource
	sessions *session.Manager
	token    string
	userID   uuid.UUID
}

func newTestServer(t *testing.T, n int) *testServer {
	t.Helper()
	src := &memorySource{}
	for i := 0; i < n; i++ {
		r := job.Record{
			ID:      uuid.NewString(),
			Company: "Company " + string(rune('A'+i)),
			Role:    "Engineer",
			Date:    job.NewDate(2024, time.Month(1+i%12), 1),
		}
		r.ApplyStatus(job.StatusApplied)
		src.records = append(src.records, r)
	}

	sessions := session.NewManager(func(uuid.UUID, string) recordcache.Source { return src }, nil, nil, viz.DefaultStyle(), nil)
	t.Cleanup(sessions.Close)

	verifier := jwt.NewHMACService("test-secret")
	userID := uuid.New()
	token, err := verifier.Issue(userID, "me@example.com", time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	NewRegistry(
		handler.NewHealthHandler(),
		middleware.NewAuthMiddleware(verifier),
		v1.Handlers{
			Applications: handler.NewApplicationHandler(sessions, nil),
			Dashboard:    handler.NewDashboardHandler(sessions, config.DefaultThemes()),
			Session:      handler.NewSessionHandler(sessions),
		},
		nil,
	).Register(app)

	return &testServer{app: app, src: src, sessions: sessions, token: token, userID: userID}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	s.token = ""
	resp, env := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", env.Message)
}

func TestAPI_RequiresToken(t *testing.T) {
	s := newTestServer(t, 0)
	s.token = ""
	resp, env := s.do(t, http.MethodGet, "/api/v1/applications", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, env.Status)

	s.token = "not-a-jwt"
	resp, _ = s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplications_ListPagesAndClamps(t *testing.T) {
	s := newTestServer(t, 10)

	resp, env := s.do(t, http.MethodGet, "/api/v1/applications?page=2&sort=company&dir=asc", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Items         []map[string]any `json:"items"`
		TotalFiltered int              `json:"totalFiltered"`
		TotalPages    int              `json:"totalPages"`
		State         struct {
			Page int `json:"page"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 10, page.TotalFiltered)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "Company I", page.Items[0]["company"])

	_, env = s.do(t, http.MethodGet, "/api/v1/applications?page=9", "")
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.State.Page)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/applications?sort=salary", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplications_CreateDerivesStage(t *testing.T) {
	s := newTestServer(t, 0)

	resp, _ := s.do(t, http.MethodPost, "/api/v1/applications", `{"company":"Acme","role":"SRE","status":"Dreaming"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env := s.do(t, http.MethodPost, "/api/v1/applications",
		`{"company":"Acme","role":"SRE","date":"2024-03-01","status":"Interview Scheduled"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "InterviewScheduled", rec["status"])
	assert.Equal(t, float64(3), rec["stage"])
	assert.Equal(t, "Interview Scheduled", rec["statusLabel"])
	assert.NotEmpty(t, rec["id"])
}

func TestApplications_UpdateAndDeleteMissing(t *testing.T) {
	s := newTestServer(t, 1)

	resp, env := s.do(t, http.MethodPut, "/api/v1/applications/missing", `{"company":"Acme","role":"SRE","status":"Applied"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "job application not found", env.Message)

	id := s.src.records[0].ID
	resp, _ = s.do(t, http.MethodDelete, "/api/v1/applications/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, s.src.records)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, 4)

	resp, env := s.do(t, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Stats job.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 4, view.Stats.TotalApplications)
	assert.Equal(t, 4, view.Stats.ActivePipeline)
}

func TestDashboard_ChartSVG(t *testing.T) {
	s := newTestServer(t, 3)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/dashboard/charts/monthly.svg?w=400&h=200&theme=light", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "<svg"))

	resp, _ = s.do(t, http.MethodGet, "/api/v1/dashboard/charts/pie.svg", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/dashboard/charts/status?w=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnavailableSourceIs503(t *testing.T) {
	s := newTestServer(t, 1)
	s.src.down = true

	resp, env := s.do(t, http.MethodGet, "/api/v1/applications", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "service unavailable", env.Message)
}

func TestLogoutDropsSession(t *testing.T) {
	s := newTestServer(t, 1)

	_, _ = s.do(t, http.MethodGet, "/api/v1/applications", "")
	_, ok := s.sessions.Lookup(s.userID)
	require.True(t, ok)

	resp, _ := s.do(t, http.MethodPost, "/api/v1/session/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, ok = s.sessions.Lookup(s.userID)
	assert.False(t, ok)
}
