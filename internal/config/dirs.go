package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// UserConfigDir returns the per-user application directory, e.g.
// ~/.config/streamline-control on Linux or
// ~/Library/Application Support/streamline-control on macOS.
func UserConfigDir() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// ResolveDataDir returns cfg.DataDir when set, otherwise UserConfigDir.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return UserConfigDir()
}
