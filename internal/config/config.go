// Package config holds virtinst tool settings.
//
// Settings come from, in increasing priority: built-in defaults, an
// optional config.yaml in the working directory or ~/.config/virtinst,
// VIRTINST_* environment variables and command line flags bound by the
// caller.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, so "scratch-dir"
// is read from VIRTINST_SCRATCH_DIR.
const EnvPrefix = "VIRTINST"

// Setting keys, shared with the CLI flag names.
const (
	KeyConnect        = "connect"
	KeyConnectTimeout = "connect-timeout"
	KeyDebug          = "debug"
	KeyOutput         = "output"
	KeyNoHeaders      = "no-headers"
	KeyScratchDir     = "scratch-dir"
)

// Config holds all tool settings.
type Config struct {
	// Connect is the libvirt URI used when an installation does not name one.
	Connect        string        `mapstructure:"connect"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`

	Debug     bool   `mapstructure:"debug"`
	Output    string `mapstructure:"output"`
	NoHeaders bool   `mapstructure:"no-headers"`

	// ScratchDir overrides where fetched boot files are kept. May start with "~".
	ScratchDir string `mapstructure:"scratch-dir"`
}

// New returns a viper instance with defaults, environment binding and the
// config file search path set up. Flags may be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyConnect, "qemu:///system")
	v.SetDefault(KeyConnectTimeout, 10*time.Second)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyOutput, "table")
	v.SetDefault(KeyNoHeaders, false)
	v.SetDefault(KeyScratchDir, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/virtinst")

	return v
}

// Load reads the config file, if any, and unmarshals every setting.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.Connect == "" {
		return fmt.Errorf("connect cannot be empty")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect-timeout must be positive")
	}
	switch c.Output {
	case "table", "yaml", "json":
	default:
		return fmt.Errorf("output must be one of table, yaml, json: got %q", c.Output)
	}
	return nil
}
