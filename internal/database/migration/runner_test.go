package migration

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrdersByVersion(t *testing.T) {
	src := fstest.MapFS{
		"V2__add_index.sql":    {Data: []byte("CREATE INDEX x ON t (a);")},
		"V1__create_table.sql": {Data: []byte("  CREATE TABLE t (a INT);\n")},
		"README.md":            {Data: []byte("ignored")},
	}

	migs, err := Load(src)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "create_table", migs[0].Name)
	assert.Equal(t, "CREATE TABLE t (a INT);", migs[0].SQL)
	assert.Len(t, migs[0].Checksum, 64)
	assert.Equal(t, int64(2), migs[1].Version)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(fstest.MapFS{"V1__empty.sql": {Data: []byte("  ")}})
	assert.ErrorContains(t, err, "empty migration")

	_, err = Load(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1")},
		"V01__b.sql": {Data: []byte("SELECT 2")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")
}

func TestEmbeddedSchema(t *testing.T) {
	sub, err := fs.Sub(embedded, "sql")
	require.NoError(t, err)

	migs, err := Load(sub)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Contains(t, migs[0].SQL, "job_applications")
}
