package seeder

import (
	"context"
	"errors"
	"fmt"

	"job-tracker/internal/database"
)

var errSchemaMismatch = errors.New("seeder: schema mismatch")

// EnsureTableColumns fails unless table has every column, so a seeder
// never runs against an unmigrated database.
func EnsureTableColumns(ctx context.Context, db database.Querier, table string, columns ...string) error {
	if table == "" {
		return fmt.Errorf("%w: empty table", errSchemaMismatch)
	}

	rows, err := db.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema='public' AND table_name=$1`,
		table)
	if err != nil {
		return err
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return err
		}
		existing[c] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range columns {
		if _, ok := existing[col]; !ok {
			missing = append(missing, table+"."+col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", errSchemaMismatch, missing)
	}
	return nil
}
