package vss

import (
	"context"
	"runtime"
)

type (
	// Snapshot is a live shadow copy. DevicePath is the readable device the
	// backup tool walks instead of the volume itself.
	Snapshot struct {
		ID         string
		Volume     string
		DevicePath string
	}

	// Snapshotter creates and removes volume shadow copies. Windows is the
	// only platform with a real implementation; everywhere else a pass-through
	// stands in so the orchestration logic stays runnable and testable.
	Snapshotter interface {
		Create(ctx context.Context, volume string) (*Snapshot, error)
		Delete(ctx context.Context, snapshot *Snapshot) error
	}
)

type passthroughSnapshotter struct{}

func (p passthroughSnapshotter) Create(ctx context.Context, volume string) (*Snapshot, error) {
	return &Snapshot{Volume: volume, DevicePath: volume}, nil
}

func (p passthroughSnapshotter) Delete(ctx context.Context, snapshot *Snapshot) error {
	return nil
}

func newPassthroughSnapshotter() Snapshotter {
	return &passthroughSnapshotter{}
}

func NewSnapshotter() Snapshotter {
	if runtime.GOOS != "windows" {
		return newPassthroughSnapshotter()
	}
	return newShadowCopySnapshotter()
}
