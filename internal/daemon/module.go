// Package daemon assembles marketd, the development marketplace chat
// backend, as an fx application.
package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/bookchat/internal/api"
	"github.com/matheus3301/bookchat/internal/bus"
	"github.com/matheus3301/bookchat/internal/lock"
	"github.com/matheus3301/bookchat/internal/logging"
	"github.com/matheus3301/bookchat/internal/session"
	"github.com/matheus3301/bookchat/internal/store"
)

// Params holds the resolved backend configuration passed to the fx module.
type Params struct {
	DataDir string
	Addr    string
	Console bool // also log to stderr
}

// Module returns the fx module for marketd, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("marketd",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideChatHandler,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.MarketLogPath(p.DataDir), "marketd", p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("dir", p.DataDir))
	l, err := lock.Acquire(p.DataDir, "marketd")
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

// provideStore depends on the lock so the database is never opened by two
// backends at once.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.MarketDBPath(p.DataDir)
	db, err := store.Open(dbPath)
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
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideChatHandler(db *store.DB, b *bus.Bus, logger *zap.Logger) *api.ChatHandler {
	return api.NewChatHandler(db, b, logger.Named("api"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, db *store.DB, lk *lock.Lock, b *bus.Bus, logger *zap.Logger) {
	var stopStats func()
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			stopStats = watchStored(b, db, logger)
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
			if stopStats != nil {
				stopStats()
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("marketd stopped", zap.Int64("bus_dropped", b.Dropped()))
			_ = logger.Sync()
			return nil
		},
	})
}

// watchStored logs the running message total after every stored message.
// The returned func stops the watcher and waits for it to exit.
func watchStored(b *bus.Bus, db *store.DB, logger *zap.Logger) func() {
	ch, unsub := b.Subscribe("market.", 64)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case evt := <-ch:
				if evt.Kind != api.EventMessageStored {
					continue
				}
				n, err := db.MessageCount()
				if err != nil {
					logger.Warn("count messages", zap.Error(err))
					continue
				}
				logger.Debug("messages stored", zap.Int64("total", n))
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		<-exited
		unsub()
	}
}
