package runtime

import (
	"github.com/fluxorio/relay/pkg/audit"
	"github.com/fluxorio/relay/pkg/core"
	"github.com/fluxorio/relay/pkg/process"
)

// Options configures a Runtime at Bootstrap time (spec §4.6: "A
// configurable default process flavor selects OS-backed or
// thread-backed processes at spawn time").
type Options struct {
	// DefaultFlavor is the flavor Bootstrap starts the root process with.
	// Spawn and Context.Spawn/SpawnLink always take an explicit flavor.
	DefaultFlavor process.Flavor
	// Logger receives dispatch-loop diagnostics (handler panics,
	// unhandled-message and uncaught-handler-failure terminations).
	// Defaults to core.NewLogger() if nil.
	Logger core.Logger
	// Audit records spawn/link/exit lifecycle events (pkg/audit).
	// Defaults to audit.NoopRecorder{} if nil — the core never requires
	// durable history, this is purely an operator-facing collaborator.
	Audit audit.Recorder
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = core.NewLogger()
	}
	if o.Audit == nil {
		o.Audit = audit.NoopRecorder{}
	}
	return o
}
