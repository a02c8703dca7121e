package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.False(t, cfg.Follow)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: light\ndebounce_ms: 250\nfollow: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce())
	assert.True(t, cfg.Follow)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
