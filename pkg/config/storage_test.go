package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/coldtree/pkg/config"
)

func TestOpenStorageMemory(t *testing.T) {
	store, err := config.OpenStorage(config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	require.NoError(t, store.Put("k", []byte("v")))

	data, ok, err := store.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), data)
}

func TestOpenStorageDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nodes")
	store, err := config.OpenStorage(config.StorageConfig{Backend: config.BackendDir, Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.Put("k", []byte("v")))

	data, ok, err := store.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), data)
}

func TestOpenStorageUnrecognizedBackend(t *testing.T) {
	_, err := config.OpenStorage(config.StorageConfig{Backend: "exotic"})
	require.Error(t, err)
}
