package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	if err := m.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if m.Handler() == nil {
		t.Fatal("Handler() returned nil after Register()")
	}
}

func TestMetrics_RecordAndServe(t *testing.T) {
	m := NewMetrics()
	if err := m.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m.RecordRequest("GET", "/health", 200, 5*time.Millisecond, 48)
	m.RecordQuery("ok")
	m.RecordCacheHit()
	m.SetHealthStatus(true)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics endpoint status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		"bar_queries_total",
		"bar_query_cache_hits_total",
		"app_health_status",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}

func TestMetrics_SetHealthStatus(t *testing.T) {
	m := NewMetrics()
	if err := m.Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m.SetHealthStatus(false)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "app_health_status 0") {
		t.Error("expected app_health_status 0 after SetHealthStatus(false)")
	}
}
