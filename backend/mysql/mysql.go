// Package mysql provides a MySQL store for the local orchestrator.
package mysql

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"

	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/internal/sqlstore"
)

//go:embed db/migrations/*.sql
var migrationsFS embed.FS

// erDupEntry is the server error number for duplicate keys
const erDupEntry = 1062

var dialect = sqlstore.Dialect{
	Name: "mysql",
	IsDuplicateKey: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == erDupEntry
	},
}

// NewMysqlBackend returns a local orchestrator keeping its state in the MySQL database given by
// dsn, for example "user:password@tcp(localhost:3306)/swf".
func NewMysqlBackend(dsn string, opts ...option) (*local.Orchestrator, error) {
	options := &options{
		Options:         sqlstore.DefaultOptions,
		ApplyMigrations: true,
	}

	for _, opt := range opts {
		opt(options)
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	cfg.ParseTime = true
	cfg.InterpolateParams = true

	if options.ApplyMigrations {
		if err := migrateDatabase(cfg.Clone()); err != nil {
			return nil, err
		}
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connector: %w", err)
	}

	s := sqlstore.New(sql.OpenDB(connector), dialect, options.Options)

	return local.New("mysql", s, options.BackendOptions...), nil
}

// migrateDatabase applies any pending migrations using a separate connection, migrations need
// multiple statements per query.
func migrateDatabase(cfg *mysql.Config) error {
	cfg.MultiStatements = true
	cfg.InterpolateParams = false

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return fmt.Errorf("creating schema connector: %w", err)
	}

	db := sql.OpenDB(connector)
	defer db.Close()

	return Migrate(db)
}

// Migrate applies any pending database migrations. The connection has to allow multiple
// statements per query.
func Migrate(db *sql.DB) error {
	dbi, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	return sqlstore.Migrate(migrationsFS, "db/migrations", "mysql", dbi)
}
