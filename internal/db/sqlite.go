package db

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	archive
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// One connection keeps the foreign key pragma in effect for every query.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling foreign keys")
	}

	store := &SQLiteStore{archive{db: db, bind: identity}}
	if err := store.migrate(schema("INTEGER PRIMARY KEY AUTOINCREMENT", "REAL")); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return store, nil
}
