package apprun

import "github.com/google/uuid"

// newEmissionID and newExecutionID generate ids for ephemeral runtime
// objects (event emissions, execution-tree nodes) that the spec leaves the
// id scheme open for (spec.md §4.4/§9). Using google/uuid rather than a
// process-local counter, grounded in cuemby-warren and
// pithecene-io-quarry's go.mod, both of which use it for entity identity.
func newEmissionID() string {
	return uuid.NewString()
}

func newExecutionID() string {
	return uuid.NewString()
}
