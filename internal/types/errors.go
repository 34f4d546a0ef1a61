package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrConstraint covers duplicate short names and references to missing
	// parents, anything the catalog's unique/foreign key indexes reject.
	ErrConstraint = errors.New("constraint violation")

	ErrValidation = errors.New("validation failed")

	// ErrRepositoryBusy means another operation currently holds the lock for
	// the same repository locator. Restic repositories are not safe for
	// concurrent writers.
	ErrRepositoryBusy = errors.New("an operation is already running for this repository")

	// ErrCredentialRejected means the stored password was refused by an
	// existing repository. This is fatal for the operation: the password must
	// never be regenerated and the repository never re-initialized in response.
	ErrCredentialRejected = errors.New("repository rejected the stored credential")

	// ErrCredentialUnacknowledged blocks backups until the operator has
	// confirmed they recorded the freshly generated password.
	ErrCredentialUnacknowledged = errors.New("repository credential has not been acknowledged")

	// ErrStateCorruption means local catalog and remote metadata disagree in a
	// way that cannot be resolved automatically.
	ErrStateCorruption = errors.New("local catalog and remote metadata diverged")
)

type (
	// ExternalToolError carries the exit code and diagnostic output of a failed
	// restic invocation so the operator sees the full picture.
	ExternalToolError struct {
		Tool     string
		ExitCode int
		Stderr   string
	}

	// TransientError marks a network failure worth retrying (connection
	// trouble, 5xx responses). Anything else is surfaced immediately.
	TransientError struct {
		Err error
	}
)

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
