package config

import (
	"fmt"
	"time"
)

// SecurityConfig contains the inbound request protections
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig configures per-client rate limiting
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	RequestsPerSecond int           `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxCacheSize      int           `json:"max_cache_size" yaml:"max_cache_size"`
}

// DefaultSecurityConfig returns the default security configuration
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 100,
			BurstSize:         200,
			CleanupInterval:   5 * time.Minute,
			MaxCacheSize:      10000,
		},
	}
}

// Validate validates the security configuration
func (s *SecurityConfig) Validate() error {
	if !s.RateLimit.Enabled {
		return nil
	}
	if s.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if s.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("burst_size must be positive")
	}
	return nil
}
