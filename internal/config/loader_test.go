package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alchemix/bar-server/internal/constants"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8001" {
		t.Errorf("default port got %s, want 8001", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default host got %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Query.RecipeFile != "data/recipes.yaml" {
		t.Errorf("default recipe file got %s", cfg.Query.RecipeFile)
	}
	if !cfg.HotReload.Enabled {
		t.Error("hot reload should be enabled by default")
	}
	if cfg.Security.RateLimit.Enabled {
		t.Error("rate limiting should be disabled by default")
	}
}

func TestLoadConfig_PortFromEnv(t *testing.T) {
	t.Setenv(constants.EnvPort, "9090")
	t.Setenv(constants.EnvMetricsPort, "9091")

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port got %s, want 9090", cfg.Server.Port)
	}
}

func TestLoadConfig_NonNumericPortFails(t *testing.T) {
	t.Setenv(constants.EnvPort, "abc")

	_, err := LoadConfig("", nil)
	if err == nil {
		t.Fatal("LoadConfig() should fail for non-numeric PORT")
	}
	if !strings.Contains(err.Error(), "port") {
		t.Errorf("error should mention port, got: %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(constants.EnvHost, "127.0.0.1")
	t.Setenv(constants.EnvRecipeFile, "/etc/bar/recipes.yaml")
	t.Setenv(constants.EnvCacheTTL, "90s")
	t.Setenv(constants.EnvHotReload, "false")
	t.Setenv(constants.EnvRateLimitEnabled, "true")
	t.Setenv(constants.EnvRateLimitRPS, "42")

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host got %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Query.RecipeFile != "/etc/bar/recipes.yaml" {
		t.Errorf("recipe file got %s", cfg.Query.RecipeFile)
	}
	if cfg.Query.CacheTTL != 90*time.Second {
		t.Errorf("cache ttl got %v, want 90s", cfg.Query.CacheTTL)
	}
	if cfg.HotReload.Enabled {
		t.Error("hot reload should be disabled")
	}
	if !cfg.Security.RateLimit.Enabled {
		t.Error("rate limiting should be enabled")
	}
	if cfg.Security.RateLimit.RequestsPerSecond != 42 {
		t.Errorf("rps got %d, want 42", cfg.Security.RateLimit.RequestsPerSecond)
	}
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	content := `
server:
  host: 10.0.0.1
  port: "8100"
query:
  recipe_file: /srv/recipes.yaml
  max_results: 3
observability:
  logging:
    level: debug
`
	path := filepath.Join(t.TempDir(), "bar-server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Host != "10.0.0.1" {
		t.Errorf("host got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != "8100" {
		t.Errorf("port got %s", cfg.Server.Port)
	}
	if cfg.Query.MaxResults != 3 {
		t.Errorf("max results got %d, want 3", cfg.Query.MaxResults)
	}
	if cfg.Observability.Logging.Level != "debug" {
		t.Errorf("log level got %s, want debug", cfg.Observability.Logging.Level)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.MetricsPort != "9090" {
		t.Errorf("metrics port got %s, want default 9090", cfg.Server.MetricsPort)
	}
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	content := "server:\n  port: \"8100\"\n"
	path := filepath.Join(t.TempDir(), "bar-server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(constants.EnvPort, "8200")

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8200" {
		t.Errorf("port got %s, want env value 8200", cfg.Server.Port)
	}
}

func TestLoadConfig_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = 8100"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path, nil); err == nil {
		t.Error("LoadConfig() should reject unsupported config formats")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/bar-server.yaml", nil); err == nil {
		t.Error("LoadConfig() should fail for a missing config file")
	}
}
