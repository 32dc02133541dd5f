package app

import (
	"context"
	"errors"
	"net"
	"time"

	"job-tracker/internal/config"
	dbpostgres "job-tracker/internal/database/postgres"
	"job-tracker/internal/database/migration"
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/delivery/http/middleware"
	"job-tracker/internal/delivery/http/routes"
	v1 "job-tracker/internal/delivery/http/routes/v1"
	"job-tracker/internal/infrastructure/cache"
	"job-tracker/internal/infrastructure/changefeed"
	"job-tracker/internal/infrastructure/jobapi"
	"job-tracker/internal/infrastructure/persistence/postgres"
	"job-tracker/internal/pkg/jwt"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/recordcache"
	"job-tracker/internal/session"
	"job-tracker/internal/telemetry"
	"job-tracker/internal/viz"
	"job-tracker/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	sessionIdle    = 30 * time.Minute
)

// Module provides every component of the server process.
var Module = fx.Options(
	fx.Provide(
		config.Load,
		newLogger,
		newThemes,
		newSource,
		newSnapshots,
		newChangeFeed,
		newSessions,
		newScheduler,
		func(s *viz.TickerScheduler) viz.FrameScheduler { return s },
		newHub,
		newVerifier,
		newRegistry,
		NewFiber,
	),
	fx.Invoke(
		startTelemetry,
		subscribeChangeFeed,
		sweepSessions,
		serveHTTP,
	),
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(cfg.App.AppName, cfg.App.Environment)
}

func newThemes(cfg config.Config) (config.Themes, error) {
	return config.LoadThemes(cfg.Chart.ThemeFile)
}

func startTelemetry(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	shutdown, err := telemetry.Init(ctx, cfg.App.AppName, cfg.Telemetry.CollectorURL, log)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}

type sourceOut struct {
	fx.Out

	Factory session.SourceFactory
	Check   handler.Check `group:"health"`
}

// newSource selects the job store: the remote job API, forwarding each
// user's bearer token, or a Postgres table scoped by user id.
func newSource(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (sourceOut, error) {
	if cfg.JobAPI.Source != config.SourcePostgres {
		client := jobapi.New(cfg.JobAPI.BaseURL, cfg.JobAPI.Timeout, log)
		return sourceOut{
			Factory: func(_ uuid.UUID, token string) recordcache.Source {
				return client.WithToken(token)
			},
			Check: handler.Check{Name: "job_api", Probe: dialProbe(cfg.JobAPI.BaseURL), Optional: true},
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	pool, err := dbpostgres.Connect(ctx, cfg.Database, log)
	if err != nil {
		return sourceOut{}, err
	}
	if err := (migration.Runner{Logger: log}).Run(ctx, pool); err != nil {
		_ = pool.Close()
		return sourceOut{}, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return pool.Close() }})

	store := postgres.NewJobStore(pool)
	return sourceOut{
		Factory: func(userID uuid.UUID, _ string) recordcache.Source {
			return store.ForUser(userID)
		},
		Check: handler.Check{Name: "postgres", Probe: pool.Ping},
	}, nil
}

type snapshotsOut struct {
	fx.Out

	Redis *cache.Redis
	Check handler.Check `group:"health"`
}

func newSnapshots(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) snapshotsOut {
	r := cache.NewRedis(cfg.Redis, log)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return r.Close() }})
	return snapshotsOut{
		Redis: r,
		Check: handler.Check{Name: "redis", Probe: r.Ping, Optional: true},
	}
}

func newChangeFeed(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*changefeed.Feed, error) {
	f, err := changefeed.Connect(cfg.NATS, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		f.Close()
		return nil
	}})
	return f, nil
}

func newSessions(lc fx.Lifecycle, factory session.SourceFactory, snaps *cache.Redis, feed *changefeed.Feed, themes config.Themes, log *zap.Logger) *session.Manager {
	m := session.NewManager(factory, snaps, feed, themes.Style(themes.Default), log)
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		m.Close()
		return nil
	}})
	return m
}

func newScheduler(lc fx.Lifecycle, cfg config.Config) *viz.TickerScheduler {
	s := viz.NewTickerScheduler(cfg.Chart.FrameInterval)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
	return s
}

func newHub(lc fx.Lifecycle, log *zap.Logger) *ws.Hub {
	h := ws.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				h.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stop context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stop.Done():
				return stop.Err()
			}
		},
	})
	return h
}

func newVerifier(cfg config.Config) jwt.Verifier {
	return jwt.NewHMACService(cfg.Auth.AccessSecret)
}

type registryIn struct {
	fx.In

	Sessions *session.Manager
	Themes   config.Themes
	Verifier jwt.Verifier
	Hub      *ws.Hub
	Sched    viz.FrameScheduler
	Logger   *zap.Logger
	Checks   []handler.Check `group:"health"`
}

func newRegistry(in registryIn) *routes.Registry {
	return routes.NewRegistry(
		handler.NewHealthHandler(in.Checks...),
		middleware.NewAuthMiddleware(in.Verifier),
		v1.Handlers{
			Applications: handler.NewApplicationHandler(in.Sessions, in.Logger),
			Dashboard:    handler.NewDashboardHandler(in.Sessions, in.Themes),
			Session:      handler.NewSessionHandler(in.Sessions),
		},
		ws.NewHandler(in.Hub, in.Sessions, in.Sched, in.Themes, in.Logger),
	)
}

// subscribeChangeFeed drops a user's cached records when another instance
// reports a write, and tells that user's open pages.
func subscribeChangeFeed(feed *changefeed.Feed, sessions *session.Manager, hub *ws.Hub) error {
	return feed.Subscribe(func(userID string) {
		sessions.Invalidate(userID)
		hub.NotifyRecordsChanged(userID)
	})
}

func sweepSessions(lc fx.Lifecycle, sessions *session.Manager, log *zap.Logger) {
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				t := time.NewTicker(sessionIdle / 2)
				defer t.Stop()
				for {
					select {
					case <-stop:
						return
					case <-t.C:
						if n := sessions.Sweep(sessionIdle); n > 0 {
							log.Debug("idle sessions dropped", zap.Int("count", n))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
}

func serveHTTP(lc fx.Lifecycle, cfg config.Config, f *fiber.App, log *zap.Logger, shutdown fx.Shutdowner) error {
	addr, err := ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() {
				if err := f.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil && !errors.Is(err, net.ErrClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdown.Shutdown()
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return f.ShutdownWithContext(ctx)
		},
	})
	return nil
}

// dialProbe checks that the job API host accepts TCP connections.
func dialProbe(baseURL string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		host, err := hostPort(baseURL)
		if err != nil {
			return err
		}
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
