package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. STREAMLINE_HOST.
const EnvPrefix = "STREAMLINE"

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"host":        "host",
	"ports":       "ports",
	"data-dir":    "data_dir",
	"surface":     "surface",
	"log-level":   "logging.level",
	"log-to-file": "logging.enable_file",
	"log-dir":     "logging.log_dir",
}

// Load loads configuration from defaults, the config file, STREAMLINE_*
// environment variables and any changed flags, in increasing precedence.
// An explicit configPath must exist; the default location is optional.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setupViper(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if dir, err := UserConfigDir(); err == nil {
		v.SetConfigFile(filepath.Join(dir, ConfigFileName))
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := DefaultConfig()
	cfg.Ports = nil // decoded from the viper default so overrides replace rather than merge
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("json")

	defaults := DefaultConfig()
	v.SetDefault("host", defaults.Host)
	v.SetDefault("ports", defaults.Ports)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("drain_timeout", defaults.DrainTimeout)
	v.SetDefault("surface", defaults.Surface)

	v.SetDefault("update.repo", defaults.Update.Repo)
	v.SetDefault("update.api_base_url", defaults.Update.APIBaseURL)
	v.SetDefault("update.allow_prerelease", false)
	v.SetDefault("update.check_on_startup", false)
	v.SetDefault("update.disabled", false)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.enable_file", defaults.Logging.EnableFile)
	v.SetDefault("logging.enable_console", defaults.Logging.EnableConsole)
	v.SetDefault("logging.filename", defaults.Logging.Filename)
	v.SetDefault("logging.log_dir", "")
	v.SetDefault("logging.max_size", defaults.Logging.MaxSize)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.max_age", defaults.Logging.MaxAge)
	v.SetDefault("logging.compress", defaults.Logging.Compress)
	v.SetDefault("logging.json_format", defaults.Logging.JSONFormat)
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
