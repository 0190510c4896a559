package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	switch cfg.Backend {
	case BackendXrandr:
		if strings.TrimSpace(cfg.Tool) == "" {
			return fmt.Errorf("tool is required for backend %q", cfg.Backend)
		}
	case BackendRandr:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendXrandr, BackendRandr)
	}

	if err := validateOutputName("external", cfg.External); err != nil {
		return err
	}
	if err := validateOutputName("internal", cfg.Internal); err != nil {
		return err
	}
	if cfg.External == cfg.Internal {
		return fmt.Errorf("external and internal output are both %q", cfg.External)
	}

	if len(cfg.Resolutions) == 0 {
		return fmt.Errorf("resolutions: at least one resolution is required")
	}
	for i, r := range cfg.Resolutions {
		if _, _, err := ParseResolution(r); err != nil {
			return fmt.Errorf("resolutions[%d]: %w", i, err)
		}
	}

	if cfg.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be > 0")
	}

	return nil
}

// ParseResolution splits "WIDTHxHEIGHT" into its dimensions.
func ParseResolution(s string) (uint16, uint16, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("resolution %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseUint(w, 10, 16)
	if err != nil || width == 0 {
		return 0, 0, fmt.Errorf("resolution %q: bad width", s)
	}
	height, err := strconv.ParseUint(h, 10, 16)
	if err != nil || height == 0 {
		return 0, 0, fmt.Errorf("resolution %q: bad height", s)
	}
	return uint16(width), uint16(height), nil
}

func validateOutputName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s: output name is required", field)
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%s: output name %q must not contain whitespace", field, name)
	}
	return nil
}
