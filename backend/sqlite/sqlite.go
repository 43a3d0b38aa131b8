// Package sqlite provides a sqlite store for the local orchestrator.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/internal/sqlstore"
)

//go:embed db/migrations/*.sql
var migrationsFS embed.FS

var dialect = sqlstore.Dialect{
	Name: "sqlite",
	IsDuplicateKey: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}

		return se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	},
}

// NewInMemoryBackend returns a local orchestrator keeping its state in a private in-memory
// database.
func NewInMemoryBackend(opts ...option) (*local.Orchestrator, error) {
	return newSqliteBackend(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), opts...)
}

// NewSqliteBackend returns a local orchestrator keeping its state in the database at path.
func NewSqliteBackend(path string, opts ...option) (*local.Orchestrator, error) {
	return newSqliteBackend(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate", path), opts...)
}

func newSqliteBackend(dsn string, opts ...option) (*local.Orchestrator, error) {
	options := &options{
		Options:         sqlstore.DefaultOptions,
		ApplyMigrations: true,
	}

	for _, opt := range opts {
		opt(options)
	}

	s, err := newStore(dsn, options)
	if err != nil {
		return nil, err
	}

	return local.New("sqlite", s, options.BackendOptions...), nil
}

// newStore opens the database at dsn and returns a store on top of it.
func newStore(dsn string, options *options) (local.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer, serialize all access instead of retrying busy errors
	db.SetMaxOpenConns(1)

	if options.ApplyMigrations {
		if err := Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return sqlstore.New(db, dialect, options.Options), nil
}

// Migrate applies any pending database migrations.
func Migrate(db *sql.DB) error {
	dbi, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	return sqlstore.Migrate(migrationsFS, "db/migrations", "sqlite", dbi)
}
