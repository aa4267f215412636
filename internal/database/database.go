// Package database wraps the *sql.DB connection pool and connection
// configuration shared by the storage adapter and the cmd/initialise
// bootstrap steps.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// Config holds the connection parameters for the underlying Postgres /
// CockroachDB cluster. Values are expected to arrive via viper-bound cobra
// flags (see cmd/initialise).
type Config struct {
	Host     string
	Port     uint16
	User     string
	Pass     string
	Db       string
	SSLMode  string
	Driver   string // "pgx" or "postgres" (lib/pq)
	MaxConns uint32
}

func (c Config) Username() string { return c.User }
func (c Config) Password() string { return c.Pass }
func (c Config) Database() string { return c.Db }

// Type selects which of cmd/initialise's embedded SQL dialects to read:
// "postgres" when Driver is explicitly lib/pq's "postgres", "cockroach"
// otherwise (pgx's stdlib driver talks to CockroachDB's Postgres wire
// protocol by default).
func (c Config) Type() string {
	if c.Driver == "postgres" {
		return "postgres"
	}
	return "cockroach"
}

func (c Config) dsn(database string) string {
	if database == "" {
		database = c.Db
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Pass, database, orDefault(c.SSLMode, "disable"),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// DB wraps *sql.DB with the config it was opened from.
type DB struct {
	*sql.DB
	Config Config
}

// Connect opens a pooled connection. useSystemDB connects to the
// bootstrap "defaultdb"/"postgres" database instead of Config.Db, used by
// cmd/initialise before the target database exists.
func Connect(cfg Config, useSystemDB bool) (*sql.DB, error) {
	driver := orDefault(cfg.Driver, "pgx")
	target := cfg.Db
	if useSystemDB {
		target = "defaultdb"
		if cfg.Type() == "postgres" {
			target = "postgres"
		}
	}
	db, err := sql.Open(driver, cfg.dsn(target))
	if err != nil {
		return nil, zerrors.ThrowInternal(err, "DATAB-sFevi", "Errors.Database.Connection")
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	return db, nil
}
