// Package seeder fills a database with demo job applications for local
// development.
package seeder

import (
	"context"

	"job-tracker/internal/database"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
