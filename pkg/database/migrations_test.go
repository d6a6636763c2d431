package database

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMemoryDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_RunAppliesInOrder(t *testing.T) {
	db := newMemoryDB(t)

	fsys := fstest.MapFS{
		"002_add_column.sql":  {Data: []byte("ALTER TABLE things ADD COLUMN name TEXT;")},
		"001_create_base.sql": {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
	}

	require.NoError(t, NewMigrator(db, zap.NewNop()).Run(fsys))

	// Both applied; the ALTER only works if 001 ran first.
	_, err := db.Exec("INSERT INTO things (name) VALUES ('x')")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := newMemoryDB(t)

	fsys := fstest.MapFS{
		"001_create_base.sql": {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
	}

	m := NewMigrator(db, zap.NewNop())
	require.NoError(t, m.Run(fsys))
	require.NoError(t, m.Run(fsys))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := newMemoryDB(t)

	fsys := fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE oops (;")},
	}

	err := NewMigrator(db, zap.NewNop()).Run(fsys)
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestParseMigrationName(t *testing.T) {
	version, name, err := parseMigrationName("003_add_transfer_sequences.sql")
	require.NoError(t, err)
	assert.Equal(t, 3, version)
	assert.Equal(t, "add_transfer_sequences", name)

	_, _, err = parseMigrationName("nounderscore.sql")
	assert.Error(t, err)

	_, _, err = parseMigrationName("abc_name.sql")
	assert.Error(t, err)
}
