package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/alchemix/bar-server/internal/config"
	"github.com/alchemix/bar-server/internal/hotreload"
	"github.com/alchemix/bar-server/internal/query"
	"github.com/alchemix/bar-server/internal/server"
)

func main() {
	// Load environment variables from a .env file when present (API
	// keys and deployment overrides). A missing file is not an error.
	_ = godotenv.Load()

	// Parse CLI flags
	configFile := pflag.String("config", "", "Path to configuration file (YAML or JSON)")
	host := pflag.String("host", "0.0.0.0", "Host to bind the server on")
	port := pflag.String("port", "8001", "Port to run the server on")
	metricsPort := pflag.String("metrics-port", "9090", "Port to run the metrics server on")
	recipes := pflag.String("recipes", "data/recipes.yaml", "Path to the recipe knowledge base")
	cacheTTL := pflag.Duration("cache-ttl", 5*time.Minute, "TTL for cached query answers")

	// Server configuration
	readTimeout := pflag.Duration("read-timeout", 15*time.Second, "HTTP server read timeout")
	writeTimeout := pflag.Duration("write-timeout", 15*time.Second, "HTTP server write timeout")
	idleTimeout := pflag.Duration("idle-timeout", 60*time.Second, "HTTP server idle timeout")
	maxRequestSize := pflag.Int64("max-request-size", 10*1024*1024, "Maximum request size in bytes")
	shutdownTimeout := pflag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	// Security flags
	rateLimitEnabled := pflag.Bool("rate-limit-enabled", false, "Enable per-IP rate limiting")
	rateLimitRPS := pflag.Int("rate-limit-rps", 100, "Rate limit requests per second")

	// Hot reload flags
	hotReload := pflag.Bool("hot-reload", true, "Enable hot reload of the recipe knowledge base")
	hotReloadDebounce := pflag.Duration("hot-reload-debounce", 500*time.Millisecond, "Debounce time for hot reload events")

	// Observability flags
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	tracingEnabled := pflag.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")

	pflag.Usage = printUsage
	pflag.Parse()

	cliFlags := &config.CLIFlags{
		Host:              host,
		Port:              port,
		MetricsPort:       metricsPort,
		RecipeFile:        recipes,
		CacheTTL:          cacheTTL,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxRequestSize:    maxRequestSize,
		ShutdownTimeout:   shutdownTimeout,
		RateLimitEnabled:  rateLimitEnabled,
		RateLimitRPS:      rateLimitRPS,
		HotReload:         hotReload,
		HotReloadDebounce: hotReloadDebounce,
		LogLevel:          logLevel,
		TracingEnabled:    tracingEnabled,
	}

	// Load configuration with precedence (CLI > Env > File > Defaults).
	// An invalid port, PORT=abc included, fails here before any
	// listener is started.
	cfg, err := config.LoadConfig(*configFile, cliFlags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Build the bar query constructor. A missing or unparseable recipe
	// file aborts startup.
	constructor, err := query.NewBarConstructor(cfg.Query)
	if err != nil {
		log.Fatalf("Failed to build query constructor: %v", err)
	}

	// Build the application with the constructor injected.
	app, err := server.New(cfg, constructor)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Hot reload of the recipe knowledge base
	var hotReloadManager *hotreload.Manager
	if cfg.HotReload.Enabled {
		hotReloadManager, err = hotreload.NewManager()
		if err != nil {
			log.Fatalf("Failed to create hot reload manager: %v", err)
		}

		hotReloadManager.SetDebounceTime(cfg.HotReload.Debounce)

		if err := hotReloadManager.AddWatch(cfg.Query.RecipeFile); err != nil {
			log.Fatalf("Failed to watch recipe file: %v", err)
		}
		if err := hotReloadManager.Register(constructor); err != nil {
			log.Fatalf("Failed to register constructor for hot reload: %v", err)
		}
		if err := hotReloadManager.Start(); err != nil {
			log.Fatalf("Failed to start hot reload: %v", err)
		}

		log.Printf("Hot reload enabled for %s", cfg.Query.RecipeFile)
	}

	log.Printf("Starting bar-server with %d recipes on %s:%s",
		constructor.RecipeCount(), cfg.Server.Host, cfg.Server.Port)

	if err := app.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	if hotReloadManager != nil {
		if err := hotReloadManager.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown hot reload manager: %v", err)
		}
	}
}

// printUsage prints the usage information
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nConfiguration options:\n")
	fmt.Fprintf(os.Stderr, "  --config\t\tPath to configuration file (YAML or JSON)\n")
	fmt.Fprintf(os.Stderr, "  --recipes\t\tPath to the recipe knowledge base (default: data/recipes.yaml)\n")
	fmt.Fprintf(os.Stderr, "\nServer configuration:\n")
	fmt.Fprintf(os.Stderr, "  --host\t\tHost to bind the server on (default: 0.0.0.0)\n")
	fmt.Fprintf(os.Stderr, "  --port\t\tPort to run the server on (default: 8001)\n")
	fmt.Fprintf(os.Stderr, "  --metrics-port\tPort to run the metrics server on (default: 9090)\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
	fmt.Fprintf(os.Stderr, "  PORT, BAR_SERVER_HOST, BAR_SERVER_METRICS_PORT, BAR_SERVER_RECIPES\n")
	fmt.Fprintf(os.Stderr, "  BAR_SERVER_CACHE_TTL, BAR_SERVER_HOT_RELOAD, BAR_SERVER_RATE_LIMIT_ENABLED\n")
	fmt.Fprintf(os.Stderr, "\nExample usage:\n")
	fmt.Fprintf(os.Stderr, "  %s --recipes ./data/recipes.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  PORT=9090 %s\n", os.Args[0])
}
