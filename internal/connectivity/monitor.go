// Package connectivity tracks network reachability as a process-wide boolean.
//
// The reading is best-effort: components consult it before attempting network
// I/O, but a stale read is acceptable and only the actual I/O attempt is
// authoritative.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/drift/internal/bus"
	"go.uber.org/zap"
)

// Prober answers whether the backend is currently reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Monitor holds the current reachability state. It is updated by the probe
// loop (or Set, in tests and tooling) and read synchronously by everyone else.
type Monitor struct {
	online atomic.Bool
	bus    *bus.Bus
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewMonitor creates a monitor that starts offline until a probe succeeds.
func NewMonitor(b *bus.Bus, logger *zap.Logger) *Monitor {
	return &Monitor{bus: b, logger: logger}
}

// Online returns the current reachability state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Set records a reachability change and publishes connectivity.changed when
// the value actually flips.
func (m *Monitor) Set(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	if m.logger != nil {
		m.logger.Info("connectivity changed", zap.Bool("online", online))
	}
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    "connectivity.changed",
			Payload: online,
		})
	}
}

// Start runs the reachability probe on the given interval until Stop or
// context cancellation. The first probe runs immediately so the daemon gets a
// reading before the sync engine samples it.
func (m *Monitor) Start(ctx context.Context, p Prober, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	m.Set(p.Probe(ctx))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Set(p.Probe(ctx))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the probe loop. Idempotent; safe on a monitor that never started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}
