package initialise

import (
	"github.com/spf13/viper"

	"github.com/zitadel/zitadel-eventstore-core/internal/database"
	"github.com/zitadel/zitadel-eventstore-core/internal/id"
)

// Config bundles everything InitAll needs: the connection parameters for
// the target CockroachDB/Postgres cluster and the machine id the process's
// id.Generator uses once initialisation hands off to the command pipeline.
type Config struct {
	Database database.Config
	Machine  id.MachineIDConfig
}

// MustNewConfig unmarshals Config from v, panicking on a malformed config
// file; a bad config is fatal before any command can run.
func MustNewConfig(v *viper.Viper) *Config {
	config := new(Config)
	if err := v.Unmarshal(config); err != nil {
		panic(err)
	}
	return config
}
