package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// New creates a new database connection pool for the given driver
// ("sqlite" or "postgres").
func New(driver, dataSourceName string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite":
		db, err := sqlx.Open("sqlite", dataSourceName)
		if err != nil {
			return nil, err
		}
		// A single connection keeps ":memory:" databases coherent and
		// serializes writers, which SQLite requires anyway.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := sqlx.Open("pgx", dataSourceName)
		if err != nil {
			return nil, err
		}
		if err = db.Ping(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "pgx" {
		schema = postgresSchema
	}
	_, err := db.Exec(schema)
	return err
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_listings (
		job_key TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		company_name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		post_date DATETIME NOT NULL,
		salary TEXT,
		job_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS applied_jobs (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		job_key TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '',
		job_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		applied_timestamp DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_applied_jobs_user_job ON applied_jobs(user_id, job_key);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id TEXT,
		created_at DATETIME NOT NULL
	);
	`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_listings (
		job_key TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		company_name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		post_date TIMESTAMPTZ NOT NULL,
		salary TEXT,
		job_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS applied_jobs (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		job_key TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '',
		job_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		applied_timestamp TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_applied_jobs_user_job ON applied_jobs(user_id, job_key);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id TEXT,
		created_at TIMESTAMPTZ NOT NULL
	);
	`
