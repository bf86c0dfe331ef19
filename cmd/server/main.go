package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bencevas/orderboard/internal/config"
	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/handler"
	"github.com/bencevas/orderboard/internal/logger"
	"github.com/bencevas/orderboard/internal/router"
	"github.com/bencevas/orderboard/internal/store"
	"github.com/bencevas/orderboard/internal/ws"
)

// notifiableStore is what the server needs from a backend: the HTTP surface
// plus the change feed hook.
type notifiableStore interface {
	router.Store
	SetNotifier(store.Notifier)
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		logger.L().Fatal("open store", zap.Error(err))
	}
	defer cleanup()

	hub := ws.NewHub()
	go hub.Run()

	// Every store change fans out to connected dashboards.
	st.SetNotifier(func(ev domain.Event) {
		msg, err := handler.OrderEventMessage(ev)
		if err != nil {
			logger.L().Error("encode order event", zap.Error(err))
			return
		}
		hub.Broadcast(msg)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(cfg, st, hub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.L().Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("shutdown", zap.Error(err))
	}
}

// openStore selects the backend: Postgres when DATABASE_URL is set, the
// seeded in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (notifiableStore, func(), error) {
	if cfg.UseMemoryStore() {
		mem := store.NewMemory()
		n := mem.SeedDemoData(time.Now())
		logger.L().Info("using in-memory store", zap.Int("demo_orders", n))
		return mem, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.L().Info("connected to postgres")
	return store.NewPostgres(pool), pool.Close, nil
}
