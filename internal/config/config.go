package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Config holds all configuration for flowcalc.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	Watch  WatchConfig  `mapstructure:"watch"`
	// Sheet is the HCL sheet file or directory loaded at startup.
	Sheet string `mapstructure:"sheet"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string            `mapstructure:"level"`  // debug, info, warn, error
	Format   string            `mapstructure:"format"` // text or json
	File     string            `mapstructure:"file"`   // empty logs to stderr
	Rotation LogRotationConfig `mapstructure:"rotation"`
}

// LogRotationConfig holds settings for log file rotation.
type LogRotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// ServerConfig holds the HTTP and socket.io listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WatchConfig holds settings of the watch client.
type WatchConfig struct {
	URL                string `mapstructure:"url"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Rotation: LogRotationConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   false,
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Watch: WatchConfig{
			URL: "http://localhost:8080",
		},
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log.level %q: must be one of %v", c.Log.Level, logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("invalid log.format %q: must be one of %v", c.Log.Format, logFormats))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("invalid server.shutdown_timeout %s: must not be negative", c.Server.ShutdownTimeout))
	}
	if c.Log.Rotation.MaxSizeMB < 0 || c.Log.Rotation.MaxBackups < 0 || c.Log.Rotation.MaxAgeDays < 0 {
		errs = append(errs, errors.New("invalid log.rotation: limits must not be negative"))
	}
	return errors.Join(errs...)
}
