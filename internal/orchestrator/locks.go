package orchestrator

import "sync"

// lockTable enforces at most one running operation per repository locator.
// Restic repositories must never see two concurrent writers from this process.
type lockTable struct {
	mu   sync.Mutex
	held map[string]bool
}

func newLockTable() *lockTable {
	return &lockTable{held: make(map[string]bool)}
}

// TryAcquire never blocks: a busy repository is an error the caller reports,
// not a queue to wait in.
func (l *lockTable) TryAcquire(locator string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[locator] {
		return false
	}
	l.held[locator] = true
	return true
}

func (l *lockTable) Release(locator string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, locator)
}
