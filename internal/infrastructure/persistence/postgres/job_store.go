package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"job-tracker/internal/database"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/pkg/apperr"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/views"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const jobColumns = `id, company, role, location, applied_on, status, stage, stage_status, salary_min, salary_max, url, notes`

// JobStore keeps job applications in the job_applications table. Every
// query is scoped to one user.
type JobStore struct {
	db     database.DB
	userID uuid.UUID
	newID  func() uuid.UUID
}

func NewJobStore(db database.DB) *JobStore {
	return &JobStore{db: db, newID: uuid.New}
}

// ForUser returns a store scoped to userID.
func (s *JobStore) ForUser(userID uuid.UUID) *JobStore {
	cp := *s
	cp.userID = userID
	return &cp
}

func (s *JobStore) ListJobs(ctx context.Context) ([]job.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+jobColumns+` FROM job_applications WHERE user_id = $1 ORDER BY applied_on DESC NULLS LAST, created_at DESC`,
		s.userID)
	if err != nil {
		return nil, classify("list job applications", err)
	}
	defer rows.Close()

	out := []job.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, classify("scan job application", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list job applications", err)
	}
	return out, nil
}

// Dashboard aggregates the user's records with the same rules the list
// view uses.
func (s *JobStore) Dashboard(ctx context.Context) (job.Dashboard, error) {
	recs, err := s.ListJobs(ctx)
	if err != nil {
		return job.Dashboard{}, err
	}
	return views.DashboardFromRecords(recs), nil
}

func (s *JobStore) CreateJob(ctx context.Context, r job.Record) (job.Record, error) {
	r.ID = s.newID().String()
	_, err := s.db.Exec(ctx,
		`INSERT INTO job_applications (id, user_id, company, role, location, applied_on, status, stage, stage_status, salary_min, salary_max, url, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, s.userID, r.Company, r.Role, r.Location, dateArg(r.Date), string(r.Status), r.Stage, string(r.StageStatus),
		r.SalaryMin, r.SalaryMax, r.URL, r.Notes)
	if err != nil {
		return job.Record{}, classify("create job application", err)
	}
	return r, nil
}

func (s *JobStore) UpdateJob(ctx context.Context, r job.Record) (job.Record, error) {
	id, err := uuid.Parse(strings.TrimSpace(r.ID))
	if err != nil {
		return job.Record{}, apperr.NotFound("job application not found", err)
	}

	n, err := s.db.Exec(ctx,
		`UPDATE job_applications
		 SET company = $3, role = $4, location = $5, applied_on = $6, status = $7, stage = $8, stage_status = $9,
		     salary_min = $10, salary_max = $11, url = $12, notes = $13, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		id, s.userID, r.Company, r.Role, r.Location, dateArg(r.Date), string(r.Status), r.Stage, string(r.StageStatus),
		r.SalaryMin, r.SalaryMax, r.URL, r.Notes)
	if err != nil {
		return job.Record{}, classify("update job application", err)
	}
	if n == 0 {
		return job.Record{}, apperr.NotFound("job application not found", nil)
	}
	return r, nil
}

func (s *JobStore) DeleteJob(ctx context.Context, id string) error {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apperr.NotFound("job application not found", err)
	}
	n, err := s.db.Exec(ctx, `DELETE FROM job_applications WHERE id = $1 AND user_id = $2`, uid, s.userID)
	if err != nil {
		return classify("delete job application", err)
	}
	if n == 0 {
		return apperr.NotFound("job application not found", nil)
	}
	return nil
}

func scanRecord(row database.Row) (job.Record, error) {
	var (
		r           job.Record
		id          uuid.UUID
		applied     *time.Time
		status      string
		stageStatus string
	)
	if err := row.Scan(&id, &r.Company, &r.Role, &r.Location, &applied, &status, &r.Stage, &stageStatus,
		&r.SalaryMin, &r.SalaryMax, &r.URL, &r.Notes); err != nil {
		return job.Record{}, err
	}
	r.ID = id.String()
	if applied != nil {
		r.Date = job.NewDate(applied.Year(), applied.Month(), applied.Day())
	}
	if st, ok := job.ParseStatus(status); ok {
		r.Status = st
	} else {
		r.Status = job.Status(status)
	}
	r.StageStatus = job.StageStatus(stageStatus)
	return r, nil
}

func dateArg(d job.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

// classify maps driver errors onto the error types the cache reports.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(op+": not found", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 22 is data exceptions, class 23 integrity violations
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return apperr.Rejected(fmt.Sprintf("%s: %s", op, pgErr.Message), err)
		}
	}
	return apperr.Unavailable(op, err)
}

var _ recordcache.Source = (*JobStore)(nil)
