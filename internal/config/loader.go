package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alchemix/bar-server/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration with precedence:
// 1. Explicit CLI flags (highest priority)
// 2. Environment variables
// 3. Configuration file values
// 4. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	// Start with default configuration
	config := DefaultConfig()

	// Load from configuration file if provided
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		mergeConfig(config, fileConfig)
	}

	// Load from environment variables
	loadFromEnv(config)

	// Override with explicitly set CLI flags
	if cliFlags != nil {
		overrideWithCLI(config, cliFlags)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// CLIFlags contains CLI flag values that can override configuration.
// Pointers come straight from pflag definitions in main; only flags the
// user actually changed take effect.
type CLIFlags struct {
	Host              *string
	Port              *string
	MetricsPort       *string
	RecipeFile        *string
	CacheTTL          *time.Duration
	ReadTimeout       *time.Duration
	WriteTimeout      *time.Duration
	IdleTimeout       *time.Duration
	MaxRequestSize    *int64
	ShutdownTimeout   *time.Duration
	RateLimitEnabled  *bool
	RateLimitRPS      *int
	HotReload         *bool
	HotReloadDebounce *time.Duration
	LogLevel          *string
	TracingEnabled    *bool
}

// loadFromFile loads configuration from a YAML or JSON file
func loadFromFile(filePath string) (*Config, error) {
	// Normalize path to absolute for consistency
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}

	if err := validateFilePath(filePath); err != nil {
		return nil, fmt.Errorf("invalid config file path %s: %w", filePath, err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - file path validated by validateFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	config := &Config{}
	ext := filepath.Ext(filePath)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	if val := os.Getenv(constants.EnvHost); val != "" {
		config.Server.Host = val
	}
	// PORT is taken verbatim; a non-numeric value fails validation before
	// any listener is started.
	if val := os.Getenv(constants.EnvPort); val != "" {
		config.Server.Port = val
	}
	if val := os.Getenv(constants.EnvMetricsPort); val != "" {
		config.Server.MetricsPort = val
	}
	if val := os.Getenv(constants.EnvReadTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.ReadTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvWriteTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.WriteTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvIdleTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.IdleTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvMaxRequestSize); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Server.MaxRequestSize = size
		}
	}
	if val := os.Getenv(constants.EnvShutdownTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.ShutdownTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvRecipeFile); val != "" {
		config.Query.RecipeFile = val
	}
	if val := os.Getenv(constants.EnvCacheTTL); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Query.CacheTTL = duration
		}
	}
	if val := os.Getenv(constants.EnvHotReload); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.HotReload.Enabled = enabled
		}
	}
	if val := os.Getenv(constants.EnvHotReloadDebounce); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HotReload.Debounce = duration
		}
	}
	if val := os.Getenv(constants.EnvRateLimitEnabled); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.Security.RateLimit.Enabled = enabled
		}
	}
	if val := os.Getenv(constants.EnvRateLimitRPS); val != "" {
		if rps, err := strconv.Atoi(val); err == nil {
			config.Security.RateLimit.RequestsPerSecond = rps
		}
	}
}

// overrideWithCLI overrides configuration with CLI flag values.
// Only explicitly set CLI flags override other configuration sources.
func overrideWithCLI(config *Config, flags *CLIFlags) {
	if flags == nil {
		return
	}

	if flags.Host != nil && flagChanged("host") {
		config.Server.Host = *flags.Host
	}
	if flags.Port != nil && flagChanged("port") {
		config.Server.Port = *flags.Port
	}
	if flags.MetricsPort != nil && flagChanged("metrics-port") {
		config.Server.MetricsPort = *flags.MetricsPort
	}
	if flags.RecipeFile != nil && flagChanged("recipes") {
		config.Query.RecipeFile = *flags.RecipeFile
	}
	if flags.CacheTTL != nil && flagChanged("cache-ttl") {
		config.Query.CacheTTL = *flags.CacheTTL
	}
	if flags.ReadTimeout != nil && flagChanged("read-timeout") {
		config.Server.ReadTimeout = *flags.ReadTimeout
	}
	if flags.WriteTimeout != nil && flagChanged("write-timeout") {
		config.Server.WriteTimeout = *flags.WriteTimeout
	}
	if flags.IdleTimeout != nil && flagChanged("idle-timeout") {
		config.Server.IdleTimeout = *flags.IdleTimeout
	}
	if flags.MaxRequestSize != nil && flagChanged("max-request-size") {
		config.Server.MaxRequestSize = *flags.MaxRequestSize
	}
	if flags.ShutdownTimeout != nil && flagChanged("shutdown-timeout") {
		config.Server.ShutdownTimeout = *flags.ShutdownTimeout
	}
	if flags.RateLimitEnabled != nil && flagChanged("rate-limit-enabled") {
		config.Security.RateLimit.Enabled = *flags.RateLimitEnabled
	}
	if flags.RateLimitRPS != nil && flagChanged("rate-limit-rps") {
		config.Security.RateLimit.RequestsPerSecond = *flags.RateLimitRPS
	}
	if flags.HotReload != nil && flagChanged("hot-reload") {
		config.HotReload.Enabled = *flags.HotReload
	}
	if flags.HotReloadDebounce != nil && flagChanged("hot-reload-debounce") {
		config.HotReload.Debounce = *flags.HotReloadDebounce
	}
	if flags.LogLevel != nil && flagChanged("log-level") {
		config.Observability.Logging.Level = *flags.LogLevel
	}
	if flags.TracingEnabled != nil && flagChanged("tracing-enabled") {
		config.Observability.Tracing.Enabled = *flags.TracingEnabled
	}
}

func flagChanged(name string) bool {
	f := pflag.Lookup(name)
	return f != nil && f.Changed
}

// mergeConfig merges file configuration into the base configuration
func mergeConfig(base *Config, file *Config) {
	if file.Server.Host != "" {
		base.Server.Host = file.Server.Host
	}
	if file.Server.Port != "" {
		base.Server.Port = file.Server.Port
	}
	if file.Server.MetricsPort != "" {
		base.Server.MetricsPort = file.Server.MetricsPort
	}
	if file.Server.ReadTimeout > 0 {
		base.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if file.Server.WriteTimeout > 0 {
		base.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if file.Server.IdleTimeout > 0 {
		base.Server.IdleTimeout = file.Server.IdleTimeout
	}
	if file.Server.MaxRequestSize > 0 {
		base.Server.MaxRequestSize = file.Server.MaxRequestSize
	}
	if file.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}

	if file.Query.RecipeFile != "" {
		base.Query.RecipeFile = file.Query.RecipeFile
	}
	if file.Query.CacheTTL > 0 {
		base.Query.CacheTTL = file.Query.CacheTTL
	}
	if file.Query.MaxResults > 0 {
		base.Query.MaxResults = file.Query.MaxResults
	}

	if file.Security.RateLimit.Enabled != base.Security.RateLimit.Enabled {
		base.Security.RateLimit = file.Security.RateLimit
	}

	if file.Observability.Logging.Level != "" {
		base.Observability.Logging.Level = file.Observability.Logging.Level
	}
	if file.Observability.Logging.Format != "" {
		base.Observability.Logging.Format = file.Observability.Logging.Format
	}
	if file.Observability.Metrics.Path != "" {
		base.Observability.Metrics.Path = file.Observability.Metrics.Path
	}
	if file.Observability.Tracing.Enabled != base.Observability.Tracing.Enabled {
		base.Observability.Tracing = file.Observability.Tracing
	}

	if file.HotReload.Enabled != base.HotReload.Enabled {
		base.HotReload.Enabled = file.HotReload.Enabled
	}
	if file.HotReload.Debounce > 0 {
		base.HotReload.Debounce = file.HotReload.Debounce
	}
}

// validateFilePath checks if the file path is safe to read.
// Prevents directory traversal in operator-supplied paths.
func validateFilePath(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	cleanPath := filepath.Clean(absPath)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal attempts")
	}

	return nil
}
