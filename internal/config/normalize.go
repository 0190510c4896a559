package config

import "strings"

// Normalize applies post-validation cleanup.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Tool = strings.TrimSpace(cfg.Tool)
	cfg.Display = strings.TrimSpace(cfg.Display)

	// Drop duplicate resolutions, keeping the first occurrence.
	seen := make(map[string]bool, len(cfg.Resolutions))
	out := cfg.Resolutions[:0]
	for _, r := range cfg.Resolutions {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	cfg.Resolutions = out
}
