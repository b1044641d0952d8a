package config

import (
	"fmt"
	"time"
)

// HotReloadConfig configures hot reload of the recipe knowledge base
type HotReloadConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// DefaultHotReloadConfig returns the default hot reload configuration
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:  true,
		Debounce: 500 * time.Millisecond,
	}
}

// Validate validates the hot reload configuration
func (h *HotReloadConfig) Validate() error {
	if h.Enabled && h.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive when hot reload is enabled")
	}
	return nil
}
