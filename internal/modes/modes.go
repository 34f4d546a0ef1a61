package modes

import (
	"fmt"
	"imagevault/internal/config"
	"os"
	"path/filepath"
	"time"
)

type (
	// Target is where the catalog lives for the selected mode. Development
	// targets a throwaway path that nobody should expect to survive a restart;
	// production targets the durable data dir. The catalog API is identical
	// either way.
	Target struct {
		CatalogPath string
		Durable     bool
	}
)

func Select(mode config.Mode, dataDir string) (Target, error) {
	switch mode {
	case config.ModeDevelopment:
		dir, err := os.MkdirTemp("", "imagevault-dev-")
		if err != nil {
			return Target{}, err
		}
		return Target{
			CatalogPath: filepath.Join(dir, fmt.Sprintf("catalog-%d.db", time.Now().Unix())),
			Durable:     false,
		}, nil
	case config.ModeProduction:
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return Target{}, err
		}
		return Target{
			CatalogPath: filepath.Join(dataDir, "catalog.db"),
			Durable:     true,
		}, nil
	default:
		return Target{}, fmt.Errorf("unknown mode: %s", mode)
	}
}
