package process

import "errors"

// Exit is the sentinel a handler returns to end its process normally
// (spec §3, §4.2 step 4; design note: "model as a distinguished return
// variant from the handler invocation"). Raising it is not a failure.
var Exit = errors.New("process: exit")

// HandlerFunc is a receiver table binding's handler. args has length
// equal to the pattern's arity; ctx is the owning process's context, so
// a handler may spawn, send, link or install further receivers.
type HandlerFunc func(ctx *Context, args []interface{}) error

// Body installs a process's initial receivers; invoked once, in the new
// process's own context, before it transitions to running (spec §4.4).
type Body func(ctx *Context)

// outcome is the dispatch loop's classification of a handler's return
// value, mirroring the design note's HandlerOutcome{Continue,Stop,Failed}.
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeStop
	outcomeFailed
)

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeContinue
	case errors.Is(err, Exit):
		return outcomeStop
	default:
		return outcomeFailed
	}
}
