package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsSilent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movielist.log")

	logger, err := New(Options{Debug: false, File: path})
	require.NoError(t, err)
	logger.Info("should not be written")
	require.NoError(t, logger.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNew_DebugWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "movielist.log")

	logger, err := New(Options{Debug: true, File: path})
	require.NoError(t, err)
	logger.Named("api").Debug("request", "path", "/genre/movie/list", "status", 200)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "movielist.api: request")
	assert.Contains(t, string(data), "path=/genre/movie/list")
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movielist.log")

	logger, err := New(Options{Debug: true, File: path, Level: "warn"})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Warn("visible")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}
