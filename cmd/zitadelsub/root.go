// Command zitadelsub is the cobra root: init provisions the schema, start
// runs the event store and projection engine. Config comes from a viper
// config file plus environment variables.
package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zitadel/zitadel-eventstore-core/cmd/initialise"
)

var configPath string

// New builds the root command: "zitadelsub [init|start]".
func New() *cobra.Command {
	root := &cobra.Command{
		Use:   "zitadelsub",
		Short: "event store and projection engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			viper.SetConfigFile(configPath)
			return viper.ReadInConfig()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	viper.AutomaticEnv()

	root.AddCommand(initialise.New(), newStart())
	return root
}
