// Package id generates the opaque, monotone, collision-free identifiers
// used for every aggregate in the system. It wraps sonyflake, a
// Snowflake-style generator; cmd/initialise.InitAll calls
// id.Configure(config.Machine) before any command can run.
package id

import (
	"strconv"
	"sync"

	"github.com/sony/sonyflake"

	"github.com/zitadel/zitadel-eventstore-core/internal/zerrors"
)

// MachineIDConfig supplies the machine/node id a multi-node deployment uses
// to keep sonyflake's generators collision-free across processes.
type MachineIDConfig struct {
	// Identifier is resolved to a sonyflake machine id via MachineID.
	// Empty means "derive from the lower 16 bits of the process's private
	// IP", sonyflake's own default behaviour.
	Identifier uint16
}

var (
	mu        sync.Mutex
	generator *sonyflake.Sonyflake
)

// Configure installs the process-wide generator. Must be called once before
// any call to New; re-configuring replaces the generator (used by tests that
// want deterministic machine ids across instances).
func Configure(cfg MachineIDConfig) {
	mu.Lock()
	defer mu.Unlock()
	settings := sonyflake.Settings{}
	if cfg.Identifier != 0 {
		id := cfg.Identifier
		settings.MachineID = func() (uint16, error) { return id, nil }
	}
	generator = sonyflake.NewSonyflake(settings)
}

// Generator adapts the package-level New function to an interface, so
// callers (internal/command.Commands) depend on a collaborator rather than
// the package directly.
type Generator struct{}

func (Generator) New() string { return New() }

// New returns the next monotone id as a decimal string. IDs are never
// reused and sort consistently with creation order across a single machine
// id. Self-configures with defaults if Configure was never called.
func New() string {
	mu.Lock()
	gen := generator
	mu.Unlock()
	if gen == nil {
		Configure(MachineIDConfig{})
		mu.Lock()
		gen = generator
		mu.Unlock()
	}
	next, err := gen.NextID()
	if err != nil {
		panic(zerrors.ThrowInternal(err, "ID-poaj3", "unable to generate id"))
	}
	return strconv.FormatUint(next, 10)
}
