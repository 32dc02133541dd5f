package seeder

import (
	"context"
	"testing"
	"time"

	"job-tracker/internal/database"
	"job-tracker/internal/domain/job"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	columns   []string
	inserts   int
	committed bool
}

func (f *fakeDB) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	f.inserts++
	return 1, nil
}

func (f *fakeDB) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	return &columnRows{cols: f.columns, i: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, q string, args ...any) database.Row { return nil }
func (f *fakeDB) Ping(ctx context.Context) error                                 { return nil }
func (f *fakeDB) Close() error                                                   { return nil }
func (f *fakeDB) Begin(ctx context.Context) (database.Tx, error)                 { return fakeTx{f}, nil }

type fakeTx struct{ db *fakeDB }

func (t fakeTx) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	return t.db.Exec(ctx, q, args...)
}
func (t fakeTx) Query(ctx context.Context, q string, args ...any) (database.Rows, error) {
	return t.db.Query(ctx, q, args...)
}
func (t fakeTx) QueryRow(ctx context.Context, q string, args ...any) database.Row { return nil }
func (t fakeTx) Commit(ctx context.Context) error {
	t.db.committed = true
	return nil
}
func (t fakeTx) Rollback(ctx context.Context) error { return nil }

type columnRows struct {
	cols []string
	i    int
}

func (r *columnRows) Close()     {}
func (r *columnRows) Err() error { return nil }
func (r *columnRows) Next() bool {
	r.i++
	return r.i < len(r.cols)
}
func (r *columnRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.cols[r.i]
	return nil
}

var allColumns = []string{"id", "user_id", "company", "role", "location", "applied_on", "status", "stage",
	"stage_status", "salary_min", "salary_max", "url", "notes"}

func TestDemoApplications_Records(t *testing.T) {
	user := uuid.New()
	s := DemoApplications{UserID: user, Count: 20, Now: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)}

	recs := s.Records()
	require.Len(t, recs, 20)
	assert.Equal(t, recs[0].ID, s.Records()[0].ID)
	assert.Equal(t, "2024-06-30", recs[0].Date.String())
	assert.Equal(t, "2024-06-21", recs[1].Date.String())

	rejectedLate := recs[7]
	assert.Equal(t, job.StatusRejected, rejectedLate.Status)
	assert.Equal(t, 3, rejectedLate.Stage)
	assert.Equal(t, job.StageFailed, rejectedLate.StageStatus)

	other := DemoApplications{UserID: uuid.New(), Count: 1, Now: s.Now}
	assert.NotEqual(t, recs[0].ID, other.Records()[0].ID)
}

func TestRunner_SeedsInOneTransaction(t *testing.T) {
	db := &fakeDB{columns: allColumns}
	r := Runner{Seeders: Defaults(uuid.New(), 5, time.Now())}

	require.NoError(t, r.Run(context.Background(), db))
	assert.Equal(t, 5, db.inserts)
	assert.True(t, db.committed)
}

func TestRunner_Errors(t *testing.T) {
	assert.ErrorIs(t, Runner{}.Run(context.Background(), nil), errNilDB)

	db := &fakeDB{columns: []string{"id"}}
	err := Runner{Seeders: Defaults(uuid.New(), 1, time.Now())}.Run(context.Background(), db)
	assert.ErrorIs(t, err, errSchemaMismatch)
	assert.Zero(t, db.inserts)

	err = DemoApplications{Count: 1}.Run(context.Background(), &fakeDB{columns: allColumns})
	assert.Error(t, err)
}
