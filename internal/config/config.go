package config

import (
	"encoding/json"
	"time"
)

const (
	// AppName is used for per-user directories and the config file name.
	AppName = "streamline-control"

	// DatabaseFileName is the bbolt file kept in the data directory.
	DatabaseFileName = "streamline.db"

	// ConfigFileName is looked up in the data directory when no --config is given.
	ConfigFileName = AppName + ".json"

	defaultHost         = "127.0.0.1"
	defaultDrainTimeout = 10 * time.Second
	defaultRepo         = "theorangealliance/streamline-control"
	defaultAPIBaseURL   = "https://api.github.com"
)

// Surface modes
const (
	SurfaceAuto = "auto"
	SurfaceTray = "tray"
	SurfaceTUI  = "tui"
	SurfaceNone = "none"
)

// DefaultPorts is the ordered port candidate list. The last free entry wins.
var DefaultPorts = []int{3030, 8888, 8080, 80}

// Config represents the main configuration structure
type Config struct {
	Host         string        `json:"host" mapstructure:"host"`
	Ports        []int         `json:"ports" mapstructure:"ports"`
	DataDir      string        `json:"data_dir,omitempty" mapstructure:"data_dir"`
	DrainTimeout time.Duration `json:"drain_timeout" mapstructure:"drain_timeout"`
	Surface      string        `json:"surface" mapstructure:"surface"`

	Update  *UpdateConfig `json:"update,omitempty" mapstructure:"update"`
	Logging *LogConfig    `json:"logging,omitempty" mapstructure:"logging"`
}

// UpdateConfig controls the self-update pipeline
type UpdateConfig struct {
	Repo            string `json:"repo" mapstructure:"repo"`
	APIBaseURL      string `json:"api_base_url" mapstructure:"api_base_url"`
	AllowPrerelease bool   `json:"allow_prerelease" mapstructure:"allow_prerelease"`
	CheckOnStartup  bool   `json:"check_on_startup" mapstructure:"check_on_startup"`
	Disabled        bool   `json:"disabled" mapstructure:"disabled"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable_file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable_console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log_dir"` // Custom log directory
	MaxSize       int    `json:"max_size" mapstructure:"max_size"`         // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max_backups"`   // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max_age"`           // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json_format"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	ports := make([]int, len(DefaultPorts))
	copy(ports, DefaultPorts)

	return &Config{
		Host:         defaultHost,
		Ports:        ports,
		DataDir:      "", // Resolved to the per-user config dir by the server manager
		DrainTimeout: defaultDrainTimeout,
		Surface:      SurfaceAuto,
		Update: &UpdateConfig{
			Repo:       defaultRepo,
			APIBaseURL: defaultAPIBaseURL,
		},
		Logging: DefaultLogConfig(),
	}
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:         "info",
		EnableFile:    false,
		EnableConsole: true,
		Filename:      "main.log",
		MaxSize:       10, // 10MB
		MaxBackups:    5,  // 5 backup files
		MaxAge:        30, // 30 days
		Compress:      true,
		JSONFormat:    false,
	}
}

// MarshalJSON renders DrainTimeout as a Go duration string so the file stays
// hand-editable.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		DrainTimeout string `json:"drain_timeout"`
	}{
		Alias:        (*Alias)(c),
		DrainTimeout: c.DrainTimeout.String(),
	})
}
