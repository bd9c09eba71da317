// Package config loads the dashboard configuration from a YAML file or a
// SQLite settings database, then applies environment overrides.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. PM10DASH_SERVER_LISTEN_ADDR.
const EnvPrefix = "PM10DASH"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults for anything unset
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server    ServerData    `json:"server" yaml:"server" envconfig:"SERVER"`
	Dashboard DashboardData `json:"dashboard" yaml:"dashboard" envconfig:"DASHBOARD"`
	Session   SessionData   `json:"session" yaml:"session" envconfig:"SESSION"`
}

// ServerData holds the HTTP listener settings
type ServerData struct {
	ListenAddr      string        `json:"listen_addr" yaml:"listen_addr" envconfig:"LISTEN_ADDR" validate:"required,hostname_port"`
	Cert            string        `json:"cert,omitempty" yaml:"cert,omitempty" envconfig:"CERT" validate:"required_with=Key"`
	Key             string        `json:"key,omitempty" yaml:"key,omitempty" envconfig:"KEY" validate:"required_with=Cert"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	// AssetsDir serves templates and CSS from disk instead of the embedded copy
	AssetsDir string `json:"assets_dir,omitempty" yaml:"assets_dir,omitempty" envconfig:"ASSETS_DIR"`
}

// DashboardData holds the dataset location and page settings
type DashboardData struct {
	// DataDir is searched for DataFile. Empty means the executable's directory.
	DataDir       string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" envconfig:"DATA_DIR"`
	DataFile      string `json:"data_file" yaml:"data_file" envconfig:"DATA_FILE" validate:"required"`
	Station       string `json:"station" yaml:"station" envconfig:"STATION" validate:"required"`
	Period        string `json:"period" yaml:"period" envconfig:"PERIOD"`
	PreferredYear int    `json:"preferred_year" yaml:"preferred_year" envconfig:"PREFERRED_YEAR" validate:"gte=0"`
	PreviewRows   int    `json:"preview_rows" yaml:"preview_rows" envconfig:"PREVIEW_ROWS" validate:"min=1,max=10000"`
}

// SessionData holds the visitor session settings
type SessionData struct {
	CookieName string        `json:"cookie_name" yaml:"cookie_name" envconfig:"COOKIE_NAME" validate:"required"`
	TTL        time.Duration `json:"ttl" yaml:"ttl" envconfig:"TTL" validate:"gte=0"`
}

// Defaults returns the configuration used for anything a source leaves unset
func Defaults() *ConfigData {
	return &ConfigData{
		Server: ServerData{
			ListenAddr:      "0.0.0.0:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Dashboard: DashboardData{
			DataFile:      "main_data.csv",
			Station:       "Shunyi",
			Period:        "2013-2017",
			PreferredYear: 2015,
			PreviewRows:   100,
		},
		Session: SessionData{
			CookieName: "pm10dash_session",
			TTL:        24 * time.Hour,
		},
	}
}

// ApplyEnv overrides cfg with any PM10DASH_* environment variables that are set
func ApplyEnv(cfg *ConfigData) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("error reading environment overrides: %w", err)
	}
	return nil
}

// Validate checks cfg for values the server cannot run with
func Validate(cfg *ConfigData) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads the provider, applies environment overrides and validates the
// result.
func Load(provider ConfigProvider) (*ConfigData, error) {
	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
