// Package integration wires the full HTTP stack, real services over a
// real database, and exercises it through the router the way a client
// would.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens an in-memory SQLite database with the full schema.
// JSON document columns are stored as TEXT, matching what the
// repositories serialize on both postgres and sqlite.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			photo_url TEXT
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE projects (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			title TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			members TEXT NOT NULL DEFAULT '[]',
			lists TEXT NOT NULL DEFAULT '[]',
			tags TEXT NOT NULL DEFAULT '[]',
			dragging_lists TEXT NOT NULL DEFAULT '[]',
			dragging_cards TEXT NOT NULL DEFAULT '[]'
		)
	`).Error
	require.NoError(t, err)

	return db
}
