package modes

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/config"
	"path/filepath"
	"testing"
)

func TestSelect(t *testing.T) {
	t.Run("development targets a fresh throwaway path", func(t *testing.T) {
		first, err := Select(config.ModeDevelopment, "")
		require.NoError(t, err)
		second, err := Select(config.ModeDevelopment, "")
		require.NoError(t, err)

		assert.False(t, first.Durable)
		assert.NotEqual(t, first.CatalogPath, second.CatalogPath)
	})

	t.Run("production targets the durable data dir", func(t *testing.T) {
		dir := t.TempDir()
		target, err := Select(config.ModeProduction, dir)
		require.NoError(t, err)

		assert.True(t, target.Durable)
		assert.Equal(t, filepath.Join(dir, "catalog.db"), target.CatalogPath)
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		_, err := Select(config.Mode("staging"), "")
		assert.Error(t, err)
	})
}
