package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_MigratesJournalTables(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "advisor.db"))
	require.NoError(t, err)
	defer func() { assert.NoError(t, Close(db)) }()

	for _, table := range []string{"journal_fields", "journal_snapshots", "journal_alerts", "journal_recommendations"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenSQLite_BadPath(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "missing", "dir", "advisor.db"))
	assert.Error(t, err)
}
