package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/drift/internal/bus"
)

func TestMonitorSetAndRead(t *testing.T) {
	m := NewMonitor(nil, nil)
	if m.Online() {
		t.Error("Online() = true, want false before any probe")
	}

	m.Set(true)
	if !m.Online() {
		t.Error("Online() = false after Set(true)")
	}
	m.Set(false)
	if m.Online() {
		t.Error("Online() = true after Set(false)")
	}
}

func TestMonitorPublishesOnFlip(t *testing.T) {
	b := bus.New()
	m := NewMonitor(b, nil)

	ch, unsub := b.Subscribe("connectivity.", 10)
	defer unsub()

	m.Set(true)
	// Same value again must not publish.
	m.Set(true)

	select {
	case evt := <-ch:
		if evt.Kind != "connectivity.changed" {
			t.Errorf("kind = %q, want connectivity.changed", evt.Kind)
		}
		if online, _ := evt.Payload.(bool); !online {
			t.Error("payload = false, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for connectivity.changed")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event for unchanged state: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

type staticProber bool

func (p staticProber) Probe(context.Context) bool { return bool(p) }

func TestMonitorStopLifecycle(t *testing.T) {
	m := NewMonitor(nil, nil)

	// Stop before Start is a no-op.
	m.Stop()

	m.Start(context.Background(), staticProber(true), time.Hour)
	if !m.Online() {
		t.Error("Online() = false, want the immediate first probe applied")
	}

	// Concurrent Stops must not race over the probe loop handle.
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Stop()
		}()
	}
	wg.Wait()
	m.Stop()
}

func TestHTTPProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.URL)
	if !p.Probe(context.Background()) {
		t.Error("Probe() = false against healthy server")
	}

	srv.Close()
	if p.Probe(context.Background()) {
		t.Error("Probe() = true against closed server")
	}
}

func TestHTTPProberNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.URL)
	if p.Probe(context.Background()) {
		t.Error("Probe() = true for 503, want false")
	}
}
