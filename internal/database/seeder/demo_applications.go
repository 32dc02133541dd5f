package seeder

import (
	"context"
	"fmt"
	"time"

	"job-tracker/internal/database"
	"job-tracker/internal/domain/job"

	"github.com/google/uuid"
)

// DemoApplications inserts Count applications for UserID, spread over the
// months before Now. Ids derive from the user and position, so running it
// again inserts nothing new.
type DemoApplications struct {
	UserID uuid.UUID
	Count  int
	Now    time.Time
}

var (
	demoCompanies = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries", "Wayne Enterprises", "Pied Piper", "Soylent", "Tyrell"}
	demoRoles     = []string{"Backend Engineer", "Frontend Engineer", "Site Reliability Engineer", "Data Engineer", "Engineering Manager"}
	demoLocations = []string{"Remote", "Berlin", "Jakarta", "London", "Singapore", "New York"}

	// weighted toward early stages
	demoStatuses = []job.Status{
		job.StatusApplied, job.StatusApplied, job.StatusApplied, job.StatusRejected,
		job.StatusShortlisted, job.StatusApplied, job.StatusInterviewScheduled, job.StatusRejected,
		job.StatusShortlisted, job.StatusOfferReceived,
	}
)

var demoNamespace = uuid.MustParse("6f1c0b7e-3c2a-4f59-9d1e-5b7a2c4e8f10")

func (DemoApplications) Name() string { return "demo_applications" }

func (s DemoApplications) Records() []job.Record {
	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	out := make([]job.Record, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		applied := now.AddDate(0, 0, -9*i)
		r := job.Record{
			ID:        uuid.NewSHA1(demoNamespace, []byte(fmt.Sprintf("%s/%d", s.UserID, i))).String(),
			Company:   demoCompanies[i%len(demoCompanies)],
			Role:      demoRoles[i%len(demoRoles)],
			Location:  demoLocations[i%len(demoLocations)],
			Date:      job.NewDate(applied.Year(), applied.Month(), applied.Day()),
			SalaryMin: float64(50+5*(i%8)) * 1000,
		}
		r.SalaryMax = r.SalaryMin + 20000
		if st := demoStatuses[i%len(demoStatuses)]; st == job.StatusRejected {
			// rejected after reaching the stage of the previous status
			r.ApplyStatus(demoStatuses[(i+len(demoStatuses)-1)%len(demoStatuses)])
			r.ApplyStatus(st)
		} else {
			r.ApplyStatus(st)
		}
		out = append(out, r)
	}
	return out
}

func (s DemoApplications) Run(ctx context.Context, db database.DB) error {
	if s.UserID == uuid.Nil {
		return fmt.Errorf("demo applications: user id required")
	}
	if err := EnsureTableColumns(ctx, db, "job_applications",
		"id", "user_id", "company", "role", "location", "applied_on", "status", "stage", "stage_status",
		"salary_min", "salary_max"); err != nil {
		return err
	}

	recs := s.Records()
	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, r := range recs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO job_applications (id, user_id, company, role, location, applied_on, status, stage, stage_status, salary_min, salary_max)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				 ON CONFLICT (id) DO NOTHING`,
				r.ID, s.UserID, r.Company, r.Role, r.Location, r.Date.Time, string(r.Status), r.Stage, string(r.StageStatus),
				r.SalaryMin, r.SalaryMax); err != nil {
				return err
			}
		}
		return nil
	})
}
