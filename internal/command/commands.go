package command

import (
	"github.com/zitadel/zitadel-eventstore-core/internal/authz"
	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
)

// IDGenerator is the interface seam over internal/id, so tests can supply
// deterministic ids without depending on sonyflake's process-wide
// generator.
type IDGenerator interface {
	New() string
}

// PasswordHasher checks a plaintext candidate. Commands depend on this
// interface, never a concrete hashing library, so real hashing can be
// integrated without changing the command contract.
type PasswordHasher interface {
	// Verify reports whether candidate satisfies the policy in force; it
	// never returns an error for a merely-wrong password, only for
	// infrastructure failures.
	Verify(candidate string) (ok bool, err error)
}

// Commands bundles every collaborator a command handler needs: the
// ctx-store-services parameter bundle. Method receivers are *Commands
// rather than free functions purely so call sites read commands.AddOrg(...).
type Commands struct {
	Eventstore *eventstore.Eventstore
	IDs        IDGenerator
	Permission authz.Checker
	Passwords  PasswordHasher
}

func New(store *eventstore.Eventstore, ids IDGenerator, permission authz.Checker, passwords PasswordHasher) *Commands {
	return &Commands{
		Eventstore: store,
		IDs:        ids,
		Permission: permission,
		Passwords:  passwords,
	}
}
