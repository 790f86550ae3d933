package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envSlotDB = "IFIFF_SLOT_DB"

// Config represents the ififf configuration file (~/.config/ififf/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Scaling defaults
	WindowWidth  *int64 `yaml:"window_width"`
	WindowHeight *int64 `yaml:"window_height"`

	// Server
	ServerAddress  string `yaml:"server_address"`
	SlotDB         string `yaml:"slot_db"`
	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ififf", "config.yaml")
}

// LoadConfig reads the config file at path, or at the default location when
// path is empty. A missing default file yields a zero Config; a missing
// explicit file is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// applyLoggingConfig applies config file defaults to the logging flags
// when they were not set explicitly.
func applyLoggingConfig(c *cli.Command, cfg Config, level, format *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		*level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		*format = cfg.LogFormat
	}
}

func applyScaleConfig(c *cli.Command, cfg Config, width, height *int64) {
	if cfg.WindowWidth != nil && !c.IsSet("width") {
		*width = *cfg.WindowWidth
	}
	if cfg.WindowHeight != nil && !c.IsSet("height") {
		*height = *cfg.WindowHeight
	}
}

// applyServeConfig fills the serve flags from the environment and then the
// config file. Flags win over both.
func applyServeConfig(c *cli.Command, cfg Config, addr, slotDB *string, maxUpload *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if !c.IsSet("slot-db") {
		if env := strings.TrimSpace(os.Getenv(envSlotDB)); env != "" {
			*slotDB = env
		} else if cfg.SlotDB != "" {
			*slotDB = cfg.SlotDB
		}
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload") {
		*maxUpload = *cfg.MaxUploadBytes
	}
}
