package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/drift/internal/api"
	"github.com/matheus3301/drift/internal/bus"
	"github.com/matheus3301/drift/internal/cache"
	"github.com/matheus3301/drift/internal/connectivity"
	"github.com/matheus3301/drift/internal/ctl"
	"github.com/matheus3301/drift/internal/feed"
	"github.com/matheus3301/drift/internal/identity"
	"github.com/matheus3301/drift/internal/location"
	"github.com/matheus3301/drift/internal/message"
	"github.com/matheus3301/drift/internal/objectstore"
	"github.com/matheus3301/drift/internal/status"
	intsync "github.com/matheus3301/drift/internal/sync"
	"github.com/matheus3301/drift/internal/upload"
	"go.uber.org/zap"
)

type fakeFeed struct {
	mu      sync.Mutex
	ch      chan feed.Snapshot
	appends []map[string]any
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{ch: make(chan feed.Snapshot, 4)}
}

func (f *fakeFeed) Subscribe(context.Context, string) (<-chan feed.Snapshot, error) {
	return f.ch, nil
}

func (f *fakeFeed) Append(_ context.Context, _ string, doc map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, doc)
	return nil
}

func (f *fakeFeed) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appends)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestDaemonLifecycle(t *testing.T) {
	// Use a short path to avoid macOS 104-char Unix socket limit.
	tmpDir, err := os.MkdirTemp("/tmp", "drift-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	socketPath := filepath.Join(tmpDir, "d.sock")

	db, err := cache.Open(filepath.Join(tmpDir, "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	b := bus.New()
	machine := status.NewMachine(b)
	monitor := connectivity.NewMonitor(b, nil)
	monitor.Set(true)

	f := newFakeFeed()
	engine := intsync.NewEngine(f, db, monitor, b, nil)
	if err := engine.Start(context.Background(), "lobby"); err != nil {
		t.Fatal(err)
	}
	defer engine.Stop()
	_ = machine.Transition(status.SubscribedLive)

	store := objectstore.NewHTTPStore("http://127.0.0.1:1", "test", identity.StaticToken(""))
	uploader := upload.New(store, nil)
	capturer := location.NewCapturer(&location.FileSource{Path: filepath.Join(tmpDir, "absent.json")}, nil)

	handler := api.NewHandler(engine, uploader, capturer, monitor, machine,
		message.Author{ID: "u1", DisplayName: "Ann"}, "test", nil)

	srv, err := NewServer(Params{SessionName: "test", SocketPath: socketPath}, zap.NewNop(), handler)
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()
	defer srv.Stop(context.Background())

	c := ctl.New(socketPath)
	ctx := context.Background()

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Session != "test" || st.Room != "lobby" {
		t.Errorf("status = %+v, want session=test room=lobby", st)
	}
	if !st.Online || st.State != string(status.SubscribedLive) {
		t.Errorf("status = %+v, want online SUBSCRIBED_LIVE", st)
	}

	// A feed emission becomes visible through the control API.
	f.ch <- feed.Snapshot{Docs: []map[string]any{{"id": "m1", "text": "hi"}}}
	waitFor(t, func() bool {
		msgs, err := c.Messages(ctx)
		return err == nil && len(msgs) == 1
	})

	// A send goes out through the feed.
	if err := c.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if f.appendCount() != 1 {
		t.Errorf("appends = %d, want 1", f.appendCount())
	}

	// Location capture degrades to a service error with remediation text.
	if _, err := c.Locate(ctx); err == nil || !strings.Contains(err.Error(), "location services disabled") {
		t.Errorf("Locate() error = %v, want services-disabled guidance", err)
	}

	// Offline sends are rejected with the daemon's message, not an HTTP code.
	monitor.Set(false)
	if err := c.Send(ctx, "nope"); err == nil || !strings.Contains(err.Error(), "offline") {
		t.Errorf("Send() offline error = %v, want offline rejection", err)
	}
	if f.appendCount() != 1 {
		t.Error("offline send must not reach the feed")
	}
}

func TestServerCleansStaleSocket(t *testing.T) {
	tmpDir, err := os.MkdirTemp("/tmp", "drift-sock-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	socketPath := filepath.Join(tmpDir, "d.sock")
	if err := os.WriteFile(socketPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	monitor := connectivity.NewMonitor(nil, nil)
	engine := intsync.NewEngine(nil, nil, monitor, bus.New(), nil)
	handler := api.NewHandler(engine, nil, nil, monitor, status.NewMachine(nil),
		message.AnonymousAuthor, "test", nil)

	srv, err := NewServer(Params{SessionName: "test", SocketPath: socketPath}, zap.NewNop(), handler)
	if err != nil {
		t.Fatalf("NewServer() with stale socket failed: %v", err)
	}
	defer srv.Stop(context.Background())

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Error("socket path is not a socket after NewServer")
	}
}
