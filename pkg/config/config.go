// Package config loads the optional mimicd config file. Everything in it can
// also be given as a flag; flags win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// selection defaults
	Window uint32 `yaml:"window"`
	Class  string `yaml:"class"`
	Pid    uint32 `yaml:"pid"`
	Name   string `yaml:"name"`
	All    bool   `yaml:"all"`

	// Layout is the target group index; nil means not set.
	Layout *int `yaml:"layout"`

	EvdevXMLPath string `yaml:"evdev_xml_path"`
	Debug        bool   `yaml:"debug"`
}

// DefaultPath is where the config file lives unless overridden:
// $XDG_CONFIG_HOME/mimicd/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "mimicd", "config.yaml")
}

// Load reads the config file at path. A missing file is not an error, it just
// yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
