// Package sqlstore is the concrete database/sql-backed implementation of
// internal/store's Store and Tx interfaces. One implementation serves
// both SQLite (github.com/ncruces/go-sqlite3, CGO-free) and Postgres
// (jackc/pgx/v5's stdlib adapter) dialects: the schema and query shapes
// are identical, so the only per-dialect logic is placeholder rebinding,
// row locking, and migration source selection.
package sqlstore

import (
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rs/zerolog"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// Dialect selects the SQL variant and driver a Store talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store is the dialect-parameterized implementation of store.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  zerolog.Logger
}

// New opens db (dsn interpreted per dialect: a file path for SQLite, a
// connection string for Postgres), configures it, and brings the schema
// up to date via golang-migrate.
func New(dialect Dialect, dsn string, logger zerolog.Logger) (*Store, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite3"
	case DialectPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("sqlstore: unknown dialect %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if err := configureSQLite(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlstore: configure sqlite: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect, logger: logger}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: run migrations: %w", err)
	}

	return s, nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = memory",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("exec %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) runMigrations() error {
	var (
		src  embed.FS
		path string
	)
	switch s.dialect {
	case DialectSQLite:
		src, path = sqliteMigrations, "migrations/sqlite"
	case DialectPostgres:
		src, path = postgresMigrations, "migrations/postgres"
	}

	sourceDriver, err := iofs.New(src, path)
	if err != nil {
		return fmt.Errorf("create source driver: %w", err)
	}

	var dbDriver migrate.Driver
	switch s.dialect {
	case DialectSQLite:
		dbDriver, err = sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{})
	case DialectPostgres:
		dbDriver, err = pgmigrate.WithInstance(s.db, &pgmigrate.Config{})
	}
	if err != nil {
		return fmt.Errorf("create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(s.dialect), dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		s.logger.Warn().Uint("version", version).Msg("database is in dirty state, forcing version")
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force migration version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	} else if err == migrate.ErrNoChange {
		s.logger.Info().Msg("no new migrations to apply")
	} else {
		newVersion, _, _ := m.Version()
		s.logger.Info().Uint("from_version", version).Uint("to_version", newVersion).Msg("migrations applied")
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// q rebinds a query written with "?" placeholders to the active
// dialect's native placeholder syntax ("?" as-is for SQLite, "$1 $2 ..."
// for Postgres).
func (s *Store) q(query string) string { return rebindQuery(s.dialect, query) }

func rebindQuery(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinComps(comps []string) string { return strings.Join(comps, ",") }

func splitComps(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
