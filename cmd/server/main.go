package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/debate-room-backend/internal/config"
	"github.com/DoyleJ11/debate-room-backend/internal/engine"
	"github.com/DoyleJ11/debate-room-backend/internal/httpapi"
	"github.com/DoyleJ11/debate-room-backend/internal/hub"
	"github.com/DoyleJ11/debate-room-backend/internal/lobby"
	"github.com/DoyleJ11/debate-room-backend/internal/logging"
	"github.com/DoyleJ11/debate-room-backend/internal/store"
	"github.com/DoyleJ11/debate-room-backend/internal/ws"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Lobbies stop only after the HTTP server has drained.
	format := engine.DebateFormat()
	h := hub.NewHub(context.Background(), lobby.Options{
		Store:     st,
		Format:    format,
		Log:       logger,
		InboxSize: cfg.Lobby.InboxSize,
		Linger:    cfg.Lobby.Linger,
	})

	api := httpapi.NewAPI(h, format, ws.Options{
		WriteTimeout: cfg.WS.WriteTimeout,
		PingInterval: cfg.WS.PingInterval,
		Buffer:       cfg.Lobby.WatcherBuffer,
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: httpapi.SetupRoutes(api),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.Inbox() <- hub.ShutdownHub{}
		return err
	})
	return g.Wait()
}

func openStore(cfg config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, rooms live in memory only")
		return store.NewMemory(), nil
	}
	return store.OpenPostgres(cfg.Database.URL, cfg.Database.AutoMigrate, logger.Named("store"))
}
