package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config represents the iosctl configuration, loaded from
// ~/.iosctl/config.yaml with built-in defaults.
type Config struct {
	Session SessionConfig `mapstructure:"session"`
	Device  DeviceConfig  `mapstructure:"device"`
	Tool    ToolConfig    `mapstructure:"tool"`
}

// SessionConfig controls the session store.
type SessionConfig struct {
	Dir         string        `mapstructure:"dir"`
	MaxSessions int           `mapstructure:"max_sessions"`
	AutoExpire  time.Duration `mapstructure:"auto_expire"`
}

// DeviceConfig controls device discovery and lifecycle.
type DeviceConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	BootTimeout time.Duration `mapstructure:"boot_timeout"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

// ToolConfig controls external command execution.
type ToolConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads the configuration from ~/.iosctl/config.yaml or returns defaults
// when no config file exists.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(home, ".iosctl")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("session.dir", "")
	viper.SetDefault("session.max_sessions", 10)
	viper.SetDefault("session.auto_expire", "6h")

	viper.SetDefault("device.cache_ttl", "30s")
	viper.SetDefault("device.boot_timeout", "30s")
	viper.SetDefault("device.wait_timeout", "30s")

	viper.SetDefault("tool.timeout", "30s")
}

// ConfigDir returns the iosctl configuration directory path.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".iosctl"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0755)
}
