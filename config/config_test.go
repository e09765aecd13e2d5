package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), *cfg)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "txnstore.yaml")
	contents := "page_size: 8192\nbuffer_pool_capacity: 100\ndata_dir: /var/lib/txnstore\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8192, cfg.PageSize)
	require.Equal(t, 100, cfg.BufferPoolCapacity)
	require.Equal(t, "/var/lib/txnstore", cfg.DataDir)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TXNSTORE_BUFFER_POOL_CAPACITY", "7")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.BufferPoolCapacity)
	require.Equal(t, Defaults().PageSize, cfg.PageSize)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), *cfg)
}
