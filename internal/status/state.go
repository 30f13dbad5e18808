package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/drift/internal/bus"
)

// State represents a daemon runtime state.
type State string

const (
	Booting        State = "BOOTING"
	SubscribedLive State = "SUBSCRIBED_LIVE"
	ServingCached  State = "SERVING_CACHED"
	Degraded       State = "DEGRADED"
	Error          State = "ERROR"
	Stopped        State = "STOPPED"
)

// validTransitions defines allowed state transitions. There is no transition
// from ServingCached to SubscribedLive: a cached session stays cached until
// the daemon restarts the sync engine.
var validTransitions = map[State][]State{
	Booting:        {SubscribedLive, ServingCached, Error},
	SubscribedLive: {Degraded, Stopped, Error},
	ServingCached:  {Stopped, Error},
	Degraded:       {SubscribedLive, Stopped, Error},
	Error:          {Booting, Stopped},
	Stopped:        {},
}

// Machine tracks and enforces daemon runtime state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind: "session.status_changed",
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
