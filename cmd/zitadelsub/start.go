package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zitadel/logging"

	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/command"
	"github.com/zitadel/zitadel-eventstore-core/internal/database"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
	storage "github.com/zitadel/zitadel-eventstore-core/internal/eventstore/repository/sql"
	"github.com/zitadel/zitadel-eventstore-core/internal/id"
	"github.com/zitadel/zitadel-eventstore-core/internal/query/projection"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/authrequest"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/instance"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/org"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/project"
	"github.com/zitadel/zitadel-eventstore-core/internal/repository/user"
)

// StartConfig bundles the connection and machine-id parameters the start
// command needs, unmarshaled the same way cmd/initialise.Config is.
type StartConfig struct {
	Database database.Config
	Machine  id.MachineIDConfig
}

func newStart() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "run the event store and projection engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := new(StartConfig)
			if err := viper.Unmarshal(config); err != nil {
				return err
			}
			return run(cmd.Context(), config)
		},
	}
}

// run wires every collaborator Commands and the projection registry need,
// then blocks until SIGINT/SIGTERM. init provisions schema; start drives
// the running process.
func run(ctx context.Context, config *StartConfig) error {
	id.Configure(config.Machine)

	conn, err := database.Connect(config.Database, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	repo := storage.NewCRDB(&database.DB{DB: conn, Config: config.Database})
	es := eventstore.New(repo, eventstore.WithBus())

	org.RegisterMappers(es)
	user.RegisterMappers(es)
	project.RegisterMappers(es)
	authrequest.RegisterMappers(es)
	instance.RegisterMappers(es)

	commands := command.New(es, id.Generator{}, authz.AllowAll{}, command.LengthHasher{})
	// The command pipeline is driven by external callers (transport lives
	// elsewhere); constructing it here proves the whole stack wires
	// together at process start.
	_ = commands

	registry := projection.NewRegistry(conn, es,
		projection.NewOrgProjection,
		projection.NewUserProjection,
		projection.NewProjectProjection,
		projection.NewAuthRequestProjection,
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("starting projection registry")
	registry.Start(runCtx)

	<-runCtx.Done()
	logging.Info("shutting down")
	return nil
}
