// Package config loads the output names, resolution allow-list and backend settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendXrandr = "xrandr"
	BackendRandr  = "randr"

	defaultTool      = "xrandr"
	defaultExternal  = "HDMI-1"
	defaultInternal  = "eDP-1"
	defaultTimeoutMs = 5000
)

type Config struct {
	Backend string `yaml:"backend"`
	Tool    string `yaml:"tool"`    // xrandr backend only
	Display string `yaml:"display"` // randr backend only, empty = $DISPLAY

	External    string   `yaml:"external"`
	Internal    string   `yaml:"internal"`
	Resolutions []string `yaml:"resolutions"`

	TimeoutMs int `yaml:"timeout_ms"`
}

// Default returns the configuration matching a laptop with a single HDMI port.
func Default() Config {
	return Config{
		Backend:     BackendXrandr,
		Tool:        defaultTool,
		External:    defaultExternal,
		Internal:    defaultInternal,
		Resolutions: []string{"2560x1080", "1920x1080"},
		TimeoutMs:   defaultTimeoutMs,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/autoscreen/config.yaml, or "" when
// no user config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "autoscreen", "config.yaml")
}

// Load reads a YAML file over the defaults.
// A missing file is not an error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Timeout is the upper bound for a single backend call.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Supported reports whether res is in the allow-list.
func (c Config) Supported(res string) bool {
	for _, r := range c.Resolutions {
		if r == res {
			return true
		}
	}
	return false
}
