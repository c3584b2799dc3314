package watchdog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-logrelay/internal/logging"
)

const defaultCheckInterval = 30 * time.Second

// PulseFunc returns when a component last showed signs of life. A zero
// time means it has not started yet.
type PulseFunc func() time.Time

// Watchdog marks components unhealthy when they go quiet for longer than
// their threshold. Components either report through Heartbeat or expose a
// PulseFunc that is sampled on every check.
type Watchdog struct {
	mu            sync.Mutex
	components    map[string]*ComponentHealth
	checkInterval time.Duration
	now           func() time.Time
}

type ComponentHealth struct {
	Name          string
	LastHeartbeat time.Time
	Healthy       bool
	Threshold     time.Duration

	pulse PulseFunc
}

func NewWatchdog(checkInterval time.Duration) *Watchdog {
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	return &Watchdog{
		components:    make(map[string]*ComponentHealth),
		checkInterval: checkInterval,
		now:           time.Now,
	}
}

// RegisterComponent adds a component fed by Heartbeat calls.
func (w *Watchdog) RegisterComponent(name string, threshold time.Duration) {
	w.register(name, threshold, nil)
}

// RegisterPulse adds a component whose liveness is read from pulse.
func (w *Watchdog) RegisterPulse(name string, threshold time.Duration, pulse PulseFunc) {
	w.register(name, threshold, pulse)
}

func (w *Watchdog) register(name string, threshold time.Duration, pulse PulseFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.components[name] = &ComponentHealth{
		Name:      name,
		Healthy:   true,
		Threshold: threshold,
		pulse:     pulse,
	}
}

func (w *Watchdog) Heartbeat(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if comp, exists := w.components[name]; exists {
		comp.LastHeartbeat = w.now()
		if !comp.Healthy {
			logging.Info("Watchdog: %s recovered", name)
		}
		comp.Healthy = true
	}
}

// Run checks every component on each tick until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check refreshes every component and returns the names that are unhealthy.
func (w *Watchdog) Check() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var unhealthy []string
	for name, comp := range w.components {
		if comp.pulse != nil {
			comp.LastHeartbeat = comp.pulse()
		}
		if comp.LastHeartbeat.IsZero() {
			continue
		}

		elapsed := now.Sub(comp.LastHeartbeat)
		healthy := elapsed <= comp.Threshold
		switch {
		case !healthy && comp.Healthy:
			logging.Error("Watchdog: %s unhealthy (no heartbeat for %v)", name, elapsed.Round(time.Second))
		case healthy && !comp.Healthy:
			logging.Info("Watchdog: %s recovered", name)
		}
		comp.Healthy = healthy
		if !healthy {
			unhealthy = append(unhealthy, name)
		}
	}
	sort.Strings(unhealthy)
	return unhealthy
}

func (w *Watchdog) IsHealthy(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if comp, exists := w.components[name]; exists {
		return comp.Healthy
	}
	return false
}

func (w *Watchdog) GetStatus() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	status := make(map[string]bool, len(w.components))
	for name, comp := range w.components {
		status[name] = comp.Healthy
	}
	return status
}

// Healthy returns an error naming the components that failed their last
// check.
func (w *Watchdog) Healthy() error {
	var down []string
	for name, ok := range w.GetStatus() {
		if !ok {
			down = append(down, name)
		}
	}
	if len(down) == 0 {
		return nil
	}
	sort.Strings(down)
	return fmt.Errorf("unhealthy: %s", strings.Join(down, ", "))
}
