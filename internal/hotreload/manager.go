package hotreload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Reloadable represents a component that can be reloaded
type Reloadable interface {
	Reload(ctx context.Context) error
	Name() string
}

// Manager watches files and triggers debounced reloads of the
// registered components. Bursts of file system events (editors often
// write several) collapse into a single reload.
type Manager struct {
	watcher      *Watcher
	reloadables  map[string]Reloadable
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.Mutex
	wg           sync.WaitGroup
	debounceTime time.Duration
	started      bool
}

// NewManager creates a new hot reload manager
func NewManager() (*Manager, error) {
	watcher, err := NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		watcher:      watcher,
		reloadables:  make(map[string]Reloadable),
		ctx:          ctx,
		cancel:       cancel,
		debounceTime: 500 * time.Millisecond,
	}, nil
}

// SetDebounceTime sets the debounce time for reload events
func (m *Manager) SetDebounceTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.debounceTime = d
	}
}

// AddWatch adds a file or directory to watch
func (m *Manager) AddWatch(path string) error {
	return m.watcher.Add(path)
}

// Register adds a reloadable component
func (m *Manager) Register(reloadable Reloadable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := reloadable.Name()
	if _, exists := m.reloadables[name]; exists {
		return fmt.Errorf("reloadable %s already registered", name)
	}

	m.reloadables[name] = reloadable
	slog.Info("Registered reloadable component", "name", name)
	return nil
}

// Start starts the hot reload system
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	m.watcher.Start()

	m.wg.Add(1)
	go m.run()

	slog.Info("Hot reload system started")
	return nil
}

// run debounces watcher events and fans reloads out to all components
func (m *Manager) run() {
	defer m.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-m.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-m.watcher.Events():
			if !ok {
				return
			}
			slog.Debug("Reload candidate event", "path", event.Path, "op", event.Op.String())

			m.mu.Lock()
			debounce := m.debounceTime
			m.mu.Unlock()

			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			m.reloadAll()
		}
	}
}

// reloadAll calls Reload on every registered component
func (m *Manager) reloadAll() {
	m.mu.Lock()
	components := make([]Reloadable, 0, len(m.reloadables))
	for _, r := range m.reloadables {
		components = append(components, r)
	}
	m.mu.Unlock()

	for _, r := range components {
		start := time.Now()
		if err := r.Reload(m.ctx); err != nil {
			slog.Error("Reload failed", "name", r.Name(), "error", err)
			continue
		}
		slog.Info("Reload completed", "name", r.Name(), "duration", time.Since(start))
	}
}

// Shutdown gracefully stops the hot reload system
func (m *Manager) Shutdown(_ context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.mu.Unlock()

	m.cancel()
	m.watcher.Stop()
	m.wg.Wait()

	slog.Info("Hot reload system stopped")
	return nil
}
