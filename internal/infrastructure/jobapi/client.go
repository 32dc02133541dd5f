// Package jobapi is the HTTP client of the remote job store.
package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/apperr"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/telemetry"
	"job-tracker/internal/views"

	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = telemetry.Tracer("job-tracker/jobapi")

const (
	jobsPath      = "/api/jobs"
	dashboardPath = "/api/jobs/dashboard"
)

// StatusError is a non-2xx answer from the job API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("job api: status=%d body=%s", e.Code, e.Body)
}

// Client talks to the remote job API on behalf of one bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.OrNop(log).Named("jobapi"),
	}
}

// WithToken returns a client sharing the transport that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

type listResponse struct {
	Jobs  []job.Record `json:"jobs"`
	Stats *job.Stats   `json:"stats"`
}

func (c *Client) ListJobs(ctx context.Context) ([]job.Record, error) {
	list, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	return list.Jobs, nil
}

func (c *Client) list(ctx context.Context) (listResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, jobsPath, nil, &raw); err != nil {
		return listResponse{}, err
	}

	var out listResponse
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &out.Jobs); err != nil {
			return listResponse{}, apperr.Unavailable("job api returned an unreadable job list", err)
		}
	default:
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return listResponse{}, apperr.Unavailable("job api returned an unreadable job list", err)
		}
	}
	if out.Jobs == nil {
		out.Jobs = []job.Record{}
	}
	return out, nil
}

// Dashboard fetches the pre-aggregated dashboard. Servers without the
// dashboard endpoint get it aggregated here from the job list.
func (c *Client) Dashboard(ctx context.Context) (job.Dashboard, error) {
	var d job.Dashboard
	err := c.do(ctx, http.MethodGet, dashboardPath, nil, &d)
	if err == nil {
		return d, nil
	}
	if !apperr.Is(err, apperr.TypeNotFound) {
		return job.Dashboard{}, err
	}

	c.logger.Debug("dashboard endpoint missing, aggregating from job list")
	list, err := c.list(ctx)
	if err != nil {
		return job.Dashboard{}, err
	}
	d = views.DashboardFromRecords(list.Jobs)
	if list.Stats != nil {
		d.Stats = *list.Stats
	}
	return d, nil
}

func (c *Client) CreateJob(ctx context.Context, r job.Record) (job.Record, error) {
	var out job.Record
	if err := c.do(ctx, http.MethodPost, jobsPath, r, &out); err != nil {
		return job.Record{}, err
	}
	return confirmed(r, out), nil
}

func (c *Client) UpdateJob(ctx context.Context, r job.Record) (job.Record, error) {
	var out job.Record
	if err := c.do(ctx, http.MethodPut, jobsPath+"/"+url.PathEscape(r.ID), r, &out); err != nil {
		return job.Record{}, err
	}
	return confirmed(r, out), nil
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, jobsPath+"/"+url.PathEscape(id), nil, nil)
}

// confirmed prefers the record echoed by the server over the one sent.
func confirmed(sent, echoed job.Record) job.Record {
	if echoed.ID == "" {
		return sent
	}
	return echoed
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := tracer.Start(ctx, "jobapi "+method+" "+path)
	defer span.End()
	span.SetAttributes(
		telemetry.String("http.method", method),
		telemetry.String("http.route", path),
	)

	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			telemetry.Fail(span, err)
			return apperr.Internal("encode job api request", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		telemetry.Fail(span, err)
		return apperr.Internal("build job api request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.Fail(span, err)
		c.logger.Warn("job api unreachable",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return apperr.Unavailable("job api unreachable", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(rb))}
		telemetry.Fail(span, serr)
		c.logger.Warn("job api error",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)))
		return classify(serr)
	}

	c.logger.Debug("job api call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if out == nil {
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.Fail(span, err)
		return apperr.Unavailable("read job api response", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		telemetry.Fail(span, err)
		return apperr.Unavailable("job api returned an unreadable response", err)
	}
	return nil
}

func classify(err *StatusError) error {
	switch {
	case err.Code == http.StatusUnauthorized || err.Code == http.StatusForbidden:
		return apperr.Unauthorized("job api refused the session", err)
	case err.Code == http.StatusNotFound:
		return apperr.NotFound("job api resource not found", err)
	case err.Code >= 500 || err.Code == http.StatusTooManyRequests || err.Code == http.StatusRequestTimeout:
		return apperr.Unavailable("job api unavailable", err)
	default:
		return apperr.Rejected("job api rejected the request", err)
	}
}

// AsStatusError extracts the HTTP status behind err, if any.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}

var _ recordcache.Source = (*Client)(nil)
