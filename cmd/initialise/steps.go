package initialise

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/database"
)

// VerifyUser returns a step that creates the database role the event store
// connects as, tolerating "already exists" so initialisation stays
// idempotent across repeated runs.
func VerifyUser(username, password string) func(*sql.DB, database.Config) error {
	return func(db *sql.DB, config database.Config) error {
		if username == "" {
			return nil
		}
		logging.WithFields("user", username).Info("verify user")
		stmt := fmt.Sprintf(createUserStmt, username, password)
		return exec(db, stmt, roleAlreadyExistsCode)
	}
}

// VerifyDatabase returns a step that creates the target database.
func VerifyDatabase(databaseName string) func(*sql.DB, database.Config) error {
	return func(db *sql.DB, config database.Config) error {
		logging.WithFields("database", databaseName).Info("verify database")
		stmt := fmt.Sprintf(databaseStmt, databaseName)
		return exec(db, stmt, dbAlreadyExistsCode)
	}
}

// VerifyGrant returns a step that grants the connecting user full rights on
// the target database.
func VerifyGrant(databaseName, username string) func(*sql.DB, database.Config) error {
	return func(db *sql.DB, config database.Config) error {
		if username == "" {
			return nil
		}
		logging.WithFields("user", username, "database", databaseName).Info("verify grant")
		stmt := fmt.Sprintf(grantStmt, databaseName, username)
		return exec(db, stmt)
	}
}

// VerifyEventstore creates the eventstore schema: the events table and the
// unique_constraints table.
func VerifyEventstore(db *sql.DB, config database.Config) error {
	logging.Info("verify eventstore schema")
	if err := exec(db, createEventstoreStmt); err != nil {
		return err
	}
	if err := exec(db, createEventsStmt); err != nil {
		return err
	}
	return exec(db, createUniqueConstraints)
}

// VerifyProjections creates the projections schema and its shared
// projection_state checkpoint table.
func VerifyProjections(db *sql.DB, config database.Config) error {
	logging.Info("verify projections schema")
	if err := exec(db, createProjectionsStmt); err != nil {
		return err
	}
	return exec(db, createProjectionStateStmt)
}

func verifyZitadel(config database.Config) error {
	if err := readStmts(config.Type()); err != nil {
		return err
	}
	db, err := database.Connect(config, false)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, step := range []func(*sql.DB, database.Config) error{
		VerifyEventstore,
		VerifyProjections,
	} {
		if err := step(db, config); err != nil {
			return err
		}
	}
	return nil
}

// exec runs stmt, treating any of the given already-exists Postgres/CRDB
// SQLSTATE codes as success so repeated invocations of init stay idempotent.
func exec(db *sql.DB, stmt string, ignoreCodes ...string) error {
	_, err := db.Exec(stmt)
	if err == nil {
		return nil
	}
	code := sqlStateOf(err)
	for _, ignore := range ignoreCodes {
		if code == ignore {
			return nil
		}
	}
	return err
}

func sqlStateOf(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	return ""
}
