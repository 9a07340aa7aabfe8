//go:build unit

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whackadep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should parse a full configuration", func(t *testing.T) {
		// given
		path := writeConfig(t, `
registry:
  base_url: https://registry.internal
  retry_max: 2
advisories:
  base_url: https://advisories.internal
review:
  parallelism: 8
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://registry.internal", cfg.Registry.BaseURL)
		assert.Equal(t, 2, cfg.Registry.RetryMax)
		assert.Equal(t, "https://advisories.internal", cfg.Advisories.BaseURL)
		assert.Equal(t, 8, cfg.Review.Parallelism)
	})

	t.Run("should fill unset fields with defaults", func(t *testing.T) {
		// given
		path := writeConfig(t, `
registry:
  base_url: https://registry.internal
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Registry.RetryMax)
		assert.Equal(t, "https://api.osv.dev", cfg.Advisories.BaseURL)
		assert.Equal(t, "cargo", cfg.Cargo.Binary)
	})

	t.Run("should expand environment variables in base urls", func(t *testing.T) {
		// given
		t.Setenv("WHACKADEP_REGISTRY", "https://mirror.example.com")
		path := writeConfig(t, `
registry:
  base_url: ${WHACKADEP_REGISTRY}
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://mirror.example.com", cfg.Registry.BaseURL)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		// when
		cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

		// then
		require.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestDefault(t *testing.T) {
	t.Run("should point at the public registry and advisory hosts", func(t *testing.T) {
		// when
		cfg := config.Default()

		// then
		assert.Equal(t, "https://crates.io", cfg.Registry.BaseURL)
		assert.Equal(t, "https://api.osv.dev", cfg.Advisories.BaseURL)
		assert.Positive(t, cfg.Review.Parallelism)
	})
}
