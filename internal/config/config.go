// Package config loads keg settings from defaults, an optional config file,
// KEG_* environment variables and command-line flags, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "keg"
	// EnvPrefix prefixes every environment variable keg reads.
	EnvPrefix = "KEG"
	// FileName is the config file name inside Dir.
	FileName = "config.yaml"
)

// Config is the resolved keg configuration.
type Config struct {
	// Prefix is the install prefix handed to build systems as the host default.
	Prefix string `mapstructure:"prefix"`
	// Jobs overrides recipe parallelism when positive.
	Jobs     int    `mapstructure:"jobs"`
	KeepTmp  bool   `mapstructure:"keep_tmp"`
	LogLevel string `mapstructure:"log_level"`
	Host     Host   `mapstructure:"host"`
}

// Host names the commands used to resolve dependencies.
type Host struct {
	// Install installs a dependency by name, e.g. "brew install". Empty
	// means dependencies are only checked.
	Install string `mapstructure:"install"`
	// FeatureInstall maps a dependency to the command that installs its
	// features, e.g. python: "pip install".
	FeatureInstall map[string]string `mapstructure:"feature_install"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prefix:   "/usr/local",
		LogLevel: "info",
		Host: Host{
			FeatureInstall: map[string]string{"python": "pip install"},
		},
	}
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate checks value ranges viper cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Prefix == "" {
		errs = append(errs, errors.New("prefix must not be empty"))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Dir returns the keg configuration directory under the user config dir.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// File is an explicit config file; it must exist when set.
	File string
	// Dir replaces Dir() when looking for FileName.
	Dir string
	// Flags are bound to the keys of the same name with '-' for '_'.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"prefix":    "prefix",
	"jobs":      "jobs",
	"keep-tmp":  "keep_tmp",
	"log-level": "log_level",
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("prefix", def.Prefix)
	v.SetDefault("jobs", def.Jobs)
	v.SetDefault("keep_tmp", def.KeepTmp)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("host.install", def.Host.Install)
	v.SetDefault("host.feature_install", def.Host.FeatureInstall)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := opts.File
	if file == "" {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = Dir(); err != nil {
				return nil, err
			}
		}
		if p := filepath.Join(dir, FileName); fileExists(p) {
			file = p
		}
	} else if !fileExists(file) {
		return nil, fmt.Errorf("config file not found: %s", file)
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
