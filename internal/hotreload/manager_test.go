package hotreload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloadable struct {
	name  string
	count atomic.Int32
	fail  bool
}

func (c *countingReloadable) Name() string { return c.name }

func (c *countingReloadable) Reload(context.Context) error {
	c.count.Add(1)
	if c.fail {
		return os.ErrInvalid
	}
	return nil
}

func TestManager_RegisterDuplicate(t *testing.T) {
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	r := &countingReloadable{name: "kb"}
	if err := m.Register(r); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := m.Register(r); err == nil {
		t.Error("Register() should reject duplicate names")
	}
}

func TestManager_ReloadOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	if err := os.WriteFile(path, []byte("recipes: []"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	m.SetDebounceTime(50 * time.Millisecond)

	r := &countingReloadable{name: "kb"}
	if err := m.Register(r); err != nil {
		t.Fatal(err)
	}
	if err := m.AddWatch(path); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("recipes: [{name: x}]"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for r.count.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestManager_DebounceCollapsesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	if err := os.WriteFile(path, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	m.SetDebounceTime(200 * time.Millisecond)

	r := &countingReloadable{name: "kb"}
	if err := m.Register(r); err != nil {
		t.Fatal(err)
	}
	if err := m.AddWatch(path); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	// A burst of writes inside the debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("burst"), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)

	if got := r.count.Load(); got != 1 {
		t.Errorf("reload count = %d, want 1 (burst should collapse)", got)
	}
}

func TestShouldSkipEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/recipes.yaml", false},
		{"/tmp/recipes.yaml.tmp", true},
		{"/tmp/.recipes.yaml.swp", true},
		{"/tmp/.hidden", true},
		{"/tmp/~backup", true},
	}

	for _, tt := range tests {
		if got := shouldSkipEvent(tt.path); got != tt.want {
			t.Errorf("shouldSkipEvent(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
