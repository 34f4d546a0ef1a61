package orchestrator

import (
	"fmt"
	"github.com/shirou/gopsutil/v4/disk"
)

type (
	// FreeSpaceChecker refuses a backup before the snapshot is even requested
	// when the staging volume is too full to work with.
	FreeSpaceChecker interface {
		Check(path string, minFreeBytes uint64) error
	}
)

type diskChecker struct{}

func NewFreeSpaceChecker() FreeSpaceChecker {
	return &diskChecker{}
}

func (d *diskChecker) Check(path string, minFreeBytes uint64) error {
	if path == "" || minFreeBytes == 0 {
		return nil
	}

	usage, err := disk.Usage(path)
	if err != nil {
		// a volume we cannot stat is not a reason to refuse the backup
		return nil
	}

	if usage.Free < minFreeBytes {
		return fmt.Errorf("insufficient free space on %s: %d bytes free, %d required",
			path, usage.Free, minFreeBytes)
	}
	return nil
}
