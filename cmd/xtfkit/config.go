package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/xtfkit/internal/convert"
)

// Config represents the xtfkit configuration file (~/.config/xtfkit/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Conversion defaults
	SampleFormat string `yaml:"sample_format"`
	PadPolicy    string `yaml:"pad_policy"`
	TextEncoding string `yaml:"text_encoding"`
	Overwrite    *bool  `yaml:"overwrite"`

	// Server
	ServerAddress    string `yaml:"server_address"`
	ServerRoot       string `yaml:"server_root"`
	ServerAmplitudes *bool  `yaml:"server_amplitudes"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "xtfkit", "config.yaml")
}

// LoadConfig reads the config file at path, or at the default location
// when path is empty. A missing default file yields a zero Config; a
// missing file that was asked for explicitly is an error.
func LoadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyConvertConfig applies config file defaults to conversion options
// when the corresponding CLI flag was not explicitly set.
func applyConvertConfig(c *cli.Command, cfg Config, opts *convert.Options) {
	if cfg.SampleFormat != "" && !c.IsSet("format") {
		opts.SampleFormat = cfg.SampleFormat
	}
	if cfg.PadPolicy != "" && !c.IsSet("pad") {
		opts.PadPolicy = convert.PadPolicy(cfg.PadPolicy)
	}
	if cfg.TextEncoding != "" && !c.IsSet("text-encoding") {
		opts.TextEncoding = cfg.TextEncoding
	}
	if cfg.Overwrite != nil && !c.IsSet("overwrite") {
		opts.Overwrite = *cfg.Overwrite
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr, root *string, amplitudes *bool) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.ServerRoot != "" && !c.IsSet("root") {
		*root = cfg.ServerRoot
	}
	if cfg.ServerAmplitudes != nil && !c.IsSet("amplitudes") {
		*amplitudes = *cfg.ServerAmplitudes
	}
}
