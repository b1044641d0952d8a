package constants

import "time"

// Environment variable constants.
// PORT keeps its bare name so platform schedulers and compose files can
// inject it without knowing the service prefix.
const (
	EnvPort              = "PORT"
	EnvHost              = "BAR_SERVER_HOST"
	EnvMetricsPort       = "BAR_SERVER_METRICS_PORT"
	EnvReadTimeout       = "BAR_SERVER_READ_TIMEOUT"
	EnvWriteTimeout      = "BAR_SERVER_WRITE_TIMEOUT"
	EnvIdleTimeout       = "BAR_SERVER_IDLE_TIMEOUT"
	EnvMaxRequestSize    = "BAR_SERVER_MAX_REQUEST_SIZE"
	EnvShutdownTimeout   = "BAR_SERVER_SHUTDOWN_TIMEOUT"
	EnvRecipeFile        = "BAR_SERVER_RECIPES"
	EnvCacheTTL          = "BAR_SERVER_CACHE_TTL"
	EnvHotReload         = "BAR_SERVER_HOT_RELOAD"
	EnvHotReloadDebounce = "BAR_SERVER_HOT_RELOAD_DEBOUNCE"
	EnvRateLimitEnabled  = "BAR_SERVER_RATE_LIMIT_ENABLED"
	EnvRateLimitRPS      = "BAR_SERVER_RATE_LIMIT_RPS"
)

// ServiceName is the identity reported by the health endpoint.
const ServiceName = "bar-server"

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
)

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter          = "Retry-After"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up the rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxCacheSize is the maximum number of tracked client identifiers
	RateLimitMaxCacheSize = 10000
)

// Well-known paths
const (
	PathHealth    = "/health"
	PathReady     = "/ready"
	PathMetrics   = "/metrics"
	PathDocs      = "/docs"
	PathQuery     = "/query"
	PathQueryPlan = "/query/plan"
)

// Error code constants
const (
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)
