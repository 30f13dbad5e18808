package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/drift/internal/api"
	"github.com/matheus3301/drift/internal/bus"
	"github.com/matheus3301/drift/internal/cache"
	"github.com/matheus3301/drift/internal/config"
	"github.com/matheus3301/drift/internal/connectivity"
	"github.com/matheus3301/drift/internal/feed"
	"github.com/matheus3301/drift/internal/identity"
	"github.com/matheus3301/drift/internal/location"
	"github.com/matheus3301/drift/internal/lock"
	"github.com/matheus3301/drift/internal/logging"
	"github.com/matheus3301/drift/internal/message"
	"github.com/matheus3301/drift/internal/objectstore"
	"github.com/matheus3301/drift/internal/session"
	"github.com/matheus3301/drift/internal/status"
	intsync "github.com/matheus3301/drift/internal/sync"
	"github.com/matheus3301/drift/internal/upload"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultProbeInterval = 15 * time.Second

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideSessionConfig,
			provideCache,
			provideMonitor,
			provideTokenSource,
			provideFeed,
			provideObjectStore,
			provideUploader,
			provideCapturer,
			provideEngine,
			provideHandler,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideSessionConfig(p Params, logger *zap.Logger) (*config.Session, error) {
	path := session.SessionConfigPath(p.SessionName)
	cfg, err := config.LoadSession(path)
	if err != nil {
		return nil, fmt.Errorf("load session config %s: %w", path, err)
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("session config missing base_url")
	}
	if cfg.Room == "" {
		cfg.Room = "general"
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = deriveFeedURL(cfg.BaseURL)
	}
	logger.Info("session config loaded",
		zap.String("base_url", cfg.BaseURL), zap.String("room", cfg.Room))
	return cfg, nil
}

// deriveFeedURL maps the REST endpoint to its websocket feed counterpart
// (http -> ws, https -> wss). Only the scheme prefix is rewritten so hosts
// that happen to contain "http" stay intact.
func deriveFeedURL(baseURL string) string {
	if rest, ok := strings.CutPrefix(baseURL, "https://"); ok {
		return "wss://" + rest + "/v1/feed"
	}
	if rest, ok := strings.CutPrefix(baseURL, "http://"); ok {
		return "ws://" + rest + "/v1/feed"
	}
	return baseURL + "/v1/feed"
}

func provideCache(p Params, logger *zap.Logger) (*cache.DB, error) {
	dbPath := session.CacheDBPath(p.SessionName)
	db, err := cache.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMonitor(b *bus.Bus, logger *zap.Logger) *connectivity.Monitor {
	return connectivity.NewMonitor(b, logger)
}

func provideTokenSource(p Params) identity.TokenSource {
	return &identity.FileTokenSource{Path: session.TokenPath(p.SessionName)}
}

func provideFeed(cfg *config.Session, tokens identity.TokenSource, logger *zap.Logger) feed.Provider {
	return feed.NewWSProvider(cfg.FeedURL, cfg.BaseURL, tokens, logger)
}

func provideObjectStore(cfg *config.Session, tokens identity.TokenSource) *objectstore.HTTPStore {
	return objectstore.NewHTTPStore(cfg.BaseURL, cfg.Bucket, tokens)
}

func provideUploader(store *objectstore.HTTPStore, logger *zap.Logger) *upload.Uploader {
	return upload.New(store, logger)
}

func provideCapturer(p Params, logger *zap.Logger) *location.Capturer {
	src := &location.FileSource{Path: session.PositionPath(p.SessionName)}
	return location.NewCapturer(src, logger)
}

func provideEngine(f feed.Provider, c *cache.DB, m *connectivity.Monitor, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(f, c, m, b, logger)
}

func provideHandler(p Params, cfg *config.Session, engine *intsync.Engine, uploader *upload.Uploader, capturer *location.Capturer, monitor *connectivity.Monitor, machine *status.Machine, logger *zap.Logger) *api.Handler {
	author := message.Author{ID: cfg.AuthorID, DisplayName: cfg.AuthorName}
	if author.ID == "" {
		author = message.AnonymousAuthor
	}
	return api.NewHandler(engine, uploader, capturer, monitor, machine, author, p.SessionName, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, cfg *config.Session, monitor *connectivity.Monitor, engine *intsync.Engine, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Probe once before the engine samples connectivity, then on a ticker.
			interval := time.Duration(cfg.ProbeIntervalSeconds) * time.Second
			if interval <= 0 {
				interval = defaultProbeInterval
			}
			monitor.Start(context.Background(), connectivity.NewHTTPProber(cfg.BaseURL+"/healthz"), interval)

			if err := engine.Start(context.Background(), cfg.Room); err != nil {
				_ = machine.Transition(status.Error)
				return err
			}

			next := status.ServingCached
			if engine.State() == intsync.StateSubscribedLive {
				next = status.SubscribedLive
			}
			_ = machine.Transition(next)

			// Serve the control API in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("control server error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			engine.Stop()
			monitor.Stop()
			srv.Stop(ctx)
			_ = machine.Transition(status.Stopped)
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
