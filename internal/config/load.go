package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied to values left empty by the config file and flags.
const (
	DefaultRegion       = "us-east-1"
	DefaultInstanceType = "m5.large"
	DefaultUser         = "ec2-user"
	DefaultNumWorkers   = 1
)

// DefaultPath returns $XDG_CONFIG_HOME/sparkfleet/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sparkfleet", "config.yaml")
}

// Load reads the configuration file at path. An empty path means the default
// location, which may be absent; an explicit path must exist. Defaults are
// applied but the result is not validated, since flags may still override it.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := &Config{}
	if path != "" {
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills empty fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.Provider.EC2.Region == "" {
		c.Provider.EC2.Region = DefaultRegion
	}
	if c.Provider.EC2.InstanceType == "" {
		c.Provider.EC2.InstanceType = DefaultInstanceType
	}
	if c.Provider.EC2.User == "" {
		c.Provider.EC2.User = DefaultUser
	}
	if c.Launch.NumWorkers == 0 {
		c.Launch.NumWorkers = DefaultNumWorkers
	}
}
