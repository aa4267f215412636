// Package initialise is the bootstrap CLI: it provisions the database role,
// target database, grants, and the event-store/projection schema, before
// any command handler or projection tick can run: cobra/viper-driven,
// embed.FS SQL steps, step-function composition.
package initialise

import (
	"database/sql"
	"embed"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/database"
	"github.com/zitadel/zitadel-eventstore-core/internal/id"
)

var (
	//go:embed sql/cockroach/*
	//go:embed sql/postgres/*
	stmts embed.FS

	createUserStmt            string
	grantStmt                 string
	databaseStmt              string
	createEventstoreStmt      string
	createProjectionsStmt     string
	createEventsStmt          string
	createUniqueConstraints   string
	createProjectionStateStmt string

	roleAlreadyExistsCode = "42710"
	dbAlreadyExistsCode   = "42P04"
)

// New builds the `init` cobra command: a parent command that runs the full
// sequence, plus one subcommand per step for operators who want to run (or
// re-run) a single step.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "initialize the event-store database",
		Long: `Sets up the minimum requirements to run the event store and
projection engine.

Prerequisites:
- CockroachDB (or Postgres, wire-compatible for this schema)

The user provided by flags needs privileges to:
- create the database if it does not exist
- see other users and create a new one if the user does not exist
- grant all rights on the target database to the user created, if not yet set
`,
		Run: func(cmd *cobra.Command, args []string) {
			config := MustNewConfig(viper.GetViper())
			InitAll(config)
		},
	}

	cmd.AddCommand(newDatabase(), newUser(), newGrant(), newEventstore())
	return cmd
}

func newDatabase() *cobra.Command {
	return &cobra.Command{
		Use:   "database",
		Short: "create the target database",
		Run: func(cmd *cobra.Command, args []string) {
			config := MustNewConfig(viper.GetViper())
			logging.OnError(initialise(config.Database, VerifyDatabase(config.Database.Database()))).Fatal("unable to create database")
		},
	}
}

func newUser() *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "create the connecting role",
		Run: func(cmd *cobra.Command, args []string) {
			config := MustNewConfig(viper.GetViper())
			logging.OnError(initialise(config.Database, VerifyUser(config.Database.Username(), config.Database.Password()))).Fatal("unable to create user")
		},
	}
}

func newGrant() *cobra.Command {
	return &cobra.Command{
		Use:   "grant",
		Short: "grant rights on the target database to the connecting role",
		Run: func(cmd *cobra.Command, args []string) {
			config := MustNewConfig(viper.GetViper())
			logging.OnError(initialise(config.Database, VerifyGrant(config.Database.Database(), config.Database.Username()))).Fatal("unable to grant rights")
		},
	}
}

func newEventstore() *cobra.Command {
	return &cobra.Command{
		Use:   "eventstore",
		Short: "create the events, unique_constraints and projection_state tables",
		Run: func(cmd *cobra.Command, args []string) {
			config := MustNewConfig(viper.GetViper())
			logging.OnError(verifyZitadel(config.Database)).Fatal("unable to initialize schema")
		},
	}
}

// InitAll runs every step in order: role, database, grant, then the
// eventstore/projections schema.
func InitAll(config *Config) {
	id.Configure(config.Machine)

	err := initialise(config.Database,
		VerifyUser(config.Database.Username(), config.Database.Password()),
		VerifyDatabase(config.Database.Database()),
		VerifyGrant(config.Database.Database(), config.Database.Username()),
	)
	logging.OnError(err).Fatal("unable to initialize the database")

	err = verifyZitadel(config.Database)
	logging.OnError(err).Fatal("unable to initialize the event store")
}

func initialise(config database.Config, steps ...func(*sql.DB, database.Config) error) error {
	logging.Info("initialization started")

	if err := readStmts(config.Type()); err != nil {
		return err
	}

	db, err := database.Connect(config, true)
	if err != nil {
		return err
	}
	defer db.Close()

	return Init(db, config, steps...)
}

// Init runs each step against db in order, stopping at the first error.
func Init(db *sql.DB, config database.Config, steps ...func(*sql.DB, database.Config) error) error {
	for _, step := range steps {
		if err := step(db, config); err != nil {
			return err
		}
	}
	return nil
}

func readStmts(typ string) (err error) {
	if createUserStmt, err = readStmt(typ, "01_user"); err != nil {
		return err
	}
	if databaseStmt, err = readStmt(typ, "02_database"); err != nil {
		return err
	}
	if grantStmt, err = readStmt(typ, "03_grant_user"); err != nil {
		return err
	}
	if createEventstoreStmt, err = readStmt(typ, "04_eventstore"); err != nil {
		return err
	}
	if createProjectionsStmt, err = readStmt(typ, "05_projections"); err != nil {
		return err
	}
	if createEventsStmt, err = readStmt(typ, "06_events_table"); err != nil {
		return err
	}
	if createUniqueConstraints, err = readStmt(typ, "07_unique_constraints_table"); err != nil {
		return err
	}
	if createProjectionStateStmt, err = readStmt(typ, "08_projection_state_table"); err != nil {
		return err
	}
	return nil
}

func readStmt(typ, step string) (string, error) {
	stmt, err := stmts.ReadFile("sql/" + typ + "/" + step + ".sql")
	return string(stmt), err
}
