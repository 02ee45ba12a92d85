package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultConfigFile is read from the working directory when -config is not given
const defaultConfigFile = "wadtool.yaml"

// Config holds the wadtool settings
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Convert ConvertConfig `yaml:"convert"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// ConvertConfig holds map conversion settings
type ConvertConfig struct {
	Format string `yaml:"format"` // doom, hexen or udmf
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Convert: ConvertConfig{
			Format: "udmf",
		},
	}
}

// options are the global command-line flags
type options struct {
	config  string
	debug   bool
	logFile string
	format  string
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.config, "config", "", "Path to config file")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.logFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&o.format, "format", "", "Output map format for convert (doom, hexen, udmf)")
}

// loadConfig resolves settings with priority: defaults < file < flags
func loadConfig(o options) (*Config, error) {
	cfg := Default()

	path := o.config
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if o.debug {
		cfg.Logging.Level = "debug"
	}
	if o.logFile != "" {
		cfg.Logging.LogFile = o.logFile
	}
	if o.format != "" {
		cfg.Convert.Format = o.format
	}
	return cfg, nil
}
