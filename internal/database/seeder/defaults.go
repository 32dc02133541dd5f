package seeder

import (
	"time"

	"github.com/google/uuid"
)

func Defaults(userID uuid.UUID, count int, now time.Time) []Seeder {
	return []Seeder{
		DemoApplications{UserID: userID, Count: count, Now: now},
	}
}
