package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Load config without a config file present
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 10, cfg.Session.MaxSessions)
	assert.Equal(t, 6*time.Hour, cfg.Session.AutoExpire)
	assert.Empty(t, cfg.Session.Dir)

	assert.Equal(t, 30*time.Second, cfg.Device.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Device.BootTimeout)
	assert.Equal(t, 30*time.Second, cfg.Device.WaitTimeout)

	assert.Equal(t, 30*time.Second, cfg.Tool.Timeout)
}

func TestConfigDir(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	configDir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".iosctl"), configDir)
}

func TestEnsureConfigDir(t *testing.T) {
	// Just verify that EnsureConfigDir doesn't error
	// We can't easily test the actual directory creation without mocking
	// homedir, which uses a cached home directory value
	err := EnsureConfigDir()
	require.NoError(t, err)

	configDir, err := ConfigDir()
	require.NoError(t, err)

	stat, err := os.Stat(configDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}
