// Package core holds the ambient concerns shared across relay's packages:
// the error taxonomy, structured logging, fail-fast validation helpers and
// the wire codec used when an envelope crosses a process or network
// boundary.
package core

import "fmt"

// Error is the runtime's structured error type. Code is a short machine
// readable identifier; Message is the human readable detail.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Sentinel errors surfaced synchronously to callers (see spec §7).
var (
	// ErrNotMainProcess is returned when a non-root process attempts to
	// mutate the root process's receiver table.
	ErrNotMainProcess = &Error{Code: "NOT_MAIN_PROCESS", Message: "NotMainProcessError"}

	// ErrNoSuchProcess is returned when an operation targets an identity
	// the registry has never assigned or has already forgotten.
	ErrNoSuchProcess = &Error{Code: "NO_SUCH_PROCESS", Message: "no such process"}

	// ErrTimeout is returned by Runtime.Wait when its context's deadline
	// elapses before the target process terminates.
	ErrTimeout = &Error{Code: "TIMEOUT", Message: "timeout waiting for process"}

	// ErrInvalidPattern names a malformed pattern. No function in this
	// module returns it: receiver tables accept any pattern as given.
	ErrInvalidPattern = &Error{Code: "INVALID_PATTERN", Message: "invalid pattern"}

	// ErrMailboxClosed is returned by a blocking Receive once the mailbox
	// has been closed and fully drained.
	ErrMailboxClosed = &Error{Code: "MAILBOX_CLOSED", Message: "mailbox closed"}

	// ErrNotOwner is returned when a process attempts to install a
	// receiver on a process other than itself or the root.
	ErrNotOwner = &Error{Code: "NOT_OWNER", Message: "receiver table is single-writer; only the owning process may install handlers"}
)

// FailFast panics with a wrapped error when err is non-nil, for
// programmer misuse that should be caught in development rather than
// handled at runtime. The runtime itself does not call it: a spawn with
// an empty name is given a generated name, and a nil handler is accepted.
func FailFast(err error) {
	if err != nil {
		panic(fmt.Errorf("fail-fast: %w", err))
	}
}

// FailFastIf panics with message if condition holds.
func FailFastIf(condition bool, message string) {
	if condition {
		panic(fmt.Errorf("fail-fast: %s", message))
	}
}
