package observability

import "time"

// HealthStatus is the payload of the readiness endpoint. The liveness
// endpoint serves a fixed two-field document and does not use this type.
type HealthStatus struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Timestamp time.Time       `json:"timestamp"`
	Uptime    string          `json:"uptime"`
	Checks    map[string]bool `json:"checks"`
}
