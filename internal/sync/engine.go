// Package sync owns the authoritative in-memory message list for a room.
//
// Online, the engine subscribes to the remote live feed and mirrors every
// emission into the durable snapshot cache; offline, it serves the last
// cached snapshot. Every update is a whole-list replace: the freshly decoded
// emission discards prior state entirely, so there are no merge or
// interleaving semantics to go wrong.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/matheus3301/drift/internal/bus"
	"github.com/matheus3301/drift/internal/cache"
	"github.com/matheus3301/drift/internal/connectivity"
	"github.com/matheus3301/drift/internal/feed"
	"github.com/matheus3301/drift/internal/message"
	"go.uber.org/zap"
)

// ErrOffline rejects a send attempted without connectivity. The send has no
// side effect: nothing is written remotely and nothing is inserted locally.
var ErrOffline = errors.New("offline: cannot send message")

// ErrAlreadyStarted rejects a second Start on a running engine.
var ErrAlreadyStarted = errors.New("sync engine already started")

// State is the engine lifecycle state.
type State string

const (
	StateUninitialized  State = "UNINITIALIZED"
	StateSubscribedLive State = "SUBSCRIBED_LIVE"
	StateServingCache   State = "SERVING_CACHE"
	StateTerminated     State = "TERMINATED"
)

// Engine synchronizes one room between the remote feed and the local cache.
type Engine struct {
	feed    feed.Provider
	cache   *cache.DB
	monitor *connectivity.Monitor
	bus     *bus.Bus
	logger  *zap.Logger

	mu       gosync.RWMutex
	state    State
	room     string
	messages []message.Message
	cancel   context.CancelFunc
}

// NewEngine creates an engine. All collaborators are injected; the engine
// holds no process-wide state.
func NewEngine(f feed.Provider, c *cache.DB, m *connectivity.Monitor, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		feed:    f,
		cache:   c,
		monitor: m,
		bus:     b,
		logger:  logger,
		state:   StateUninitialized,
	}
}

// Start binds the engine to a room. Connectivity is sampled once, here: an
// online start opens a live subscription, an offline start loads the cached
// snapshot. A mid-session connectivity change does not switch modes; the
// daemon stops and restarts the engine to do that.
func (e *Engine) Start(ctx context.Context, room string) error {
	e.mu.Lock()
	if e.state != StateUninitialized {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.room = room
	e.mu.Unlock()

	if !e.monitor.Online() {
		return e.loadFromCache(room)
	}

	ctx, cancel := context.WithCancel(ctx)
	ch, err := e.feed.Subscribe(ctx, room)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to feed: %w", err)
	}

	e.mu.Lock()
	e.cancel = cancel
	e.state = StateSubscribedLive
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("live subscription started", zap.String("room", room))
	}

	go func() {
		for snap := range ch {
			e.apply(room, snap)
		}
	}()

	return nil
}

// loadFromCache performs the one-shot offline load. Absent or corrupt
// snapshots degrade to an empty list and are never surfaced.
func (e *Engine) loadFromCache(room string) error {
	msgs, err := e.cache.ReadSnapshot(room)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("cached snapshot unreadable, starting empty",
				zap.String("room", room), zap.Error(err))
		}
		msgs = nil
	}

	e.mu.Lock()
	e.messages = msgs
	e.state = StateServingCache
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("serving cached snapshot",
			zap.String("room", room), zap.Int("messages", len(msgs)))
	}
	return nil
}

// apply replaces the in-memory list with a freshly decoded emission, then
// overwrites the cache. The memory update is atomic from the reader's point
// of view; the cache write is best-effort and only logged on failure.
func (e *Engine) apply(room string, snap feed.Snapshot) {
	msgs := message.DecodeSnapshot(snap.Docs)

	e.mu.Lock()
	e.messages = msgs
	e.mu.Unlock()

	e.bus.Publish(bus.Event{
		Kind:    "feed.snapshot",
		Payload: map[string]any{"room": room, "messages": len(msgs)},
	})

	if err := e.cache.WriteSnapshot(room, msgs); err != nil {
		if e.logger != nil {
			e.logger.Warn("cache write failed", zap.String("room", room), zap.Error(err))
		}
	}
}

// Messages returns a copy of the current in-memory list, newest first.
func (e *Engine) Messages() []message.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]message.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Room returns the room the engine was started for.
func (e *Engine) Room() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.room
}

// Send appends a message to the remote feed, gated on connectivity. The send
// is fire-and-forget: the authoritative list converges through the next live
// emission, not through a synchronous local insert.
func (e *Engine) Send(ctx context.Context, msg message.Message) error {
	if !e.monitor.Online() {
		return ErrOffline
	}

	if msg.ID == "" {
		msg.ID = message.NewLocalID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	e.mu.RLock()
	room := e.room
	e.mu.RUnlock()

	if err := e.feed.Append(ctx, room, message.EncodeDocument(msg)); err != nil {
		e.bus.Publish(bus.Event{
			Kind:    "message.send_failed",
			Payload: map[string]string{"room": room, "id": msg.ID, "error": err.Error()},
		})
		return fmt.Errorf("append to feed: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:    "message.sent",
		Payload: map[string]string{"room": room, "id": msg.ID},
	})
	return nil
}

// Stop cancels the live subscription if one is active. Idempotent; safe on an
// engine that never started.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state = StateTerminated
}
