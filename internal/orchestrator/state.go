package orchestrator

import (
	"github.com/google/uuid"
	"sync"
)

type (
	State string

	Kind string
)

const (
	StateIdle               State = "idle"
	StateSnapshotRequested  State = "snapshot_requested"
	StateSnapshotReady      State = "snapshot_ready"
	StateSnapshotFailed     State = "snapshot_failed"
	StateBackupRunning      State = "backup_running"
	StateBackupSucceeded    State = "backup_succeeded"
	StateBackupFailed       State = "backup_failed"
	StateMetadataPublishing State = "metadata_publishing"
	StateMetadataPending    State = "metadata_pending"
	StateComplete           State = "complete"
	StateRestoreRunning     State = "restore_running"
	StateRestoreDone        State = "restore_done"
	StateRestoreFailed      State = "restore_failed"
)

const (
	KindBackup  Kind = "backup"
	KindRestore Kind = "restore"
)

// terminal states end an operation; the repository lock is released when one
// is reached.
func (s State) Terminal() bool {
	switch s {
	case StateSnapshotFailed, StateBackupFailed, StateComplete,
		StateMetadataPending, StateRestoreDone, StateRestoreFailed:
		return true
	}
	return false
}

func (s State) Success() bool {
	switch s {
	case StateComplete, StateMetadataPending, StateRestoreDone:
		return true
	}
	return false
}

// Operation tracks one backup or restore invocation. State moves strictly
// forward; concurrent readers see it through the mutex.
type Operation struct {
	ID      string
	Kind    Kind
	ImageID uuid.UUID
	Locator string

	mu       sync.Mutex
	state    State
	warnings bool
	failure  string
	cancel   func()
	done     chan struct{}
}

func newOperation(id string, kind Kind, imageID uuid.UUID, locator string, cancel func()) *Operation {
	return &Operation{
		ID:      id,
		Kind:    kind,
		ImageID: imageID,
		Locator: locator,
		state:   StateIdle,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (o *Operation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Operation) Warnings() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.warnings
}

func (o *Operation) Failure() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failure
}

// Done closes when the operation reaches a terminal state and all cleanup has
// run.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

func (o *Operation) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Operation) setWarnings() {
	o.mu.Lock()
	o.warnings = true
	o.mu.Unlock()
}

func (o *Operation) fail(s State, reason string) {
	o.mu.Lock()
	o.state = s
	o.failure = reason
	o.mu.Unlock()
}
