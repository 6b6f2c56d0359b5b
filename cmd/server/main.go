package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonhowl/werewolf-go/internal/api"
	"github.com/moonhowl/werewolf-go/internal/factory"
	redisstorage "github.com/moonhowl/werewolf-go/internal/storage/redis"
	"github.com/moonhowl/werewolf-go/internal/ws"
)

func main() {
	cfg := &config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func serve(ctx context.Context, cfg *config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.storageType,
	}
	if cfg.storageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		if ttl := cfg.roomMaxAge + time.Hour; ttl > redisCfg.RoomTTL {
			redisCfg.RoomTTL = ttl
		}
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		RoomController: app.RoomController,
		PublicURL:      cfg.publicURL,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/ws", ws.ServeWS(app.Hub, app.Dispatcher, logger))

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.bind
	serverConfig.Port = cfg.port
	server := api.NewServer(mux, serverConfig, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Periodic sweep of rooms past their maximum age
	go func() {
		ticker := time.NewTicker(cfg.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := app.RoomController.SweepExpired(ctx, cfg.roomMaxAge)
				if err != nil {
					logger.Error("room sweep failed", slog.String("error", err.Error()))
					continue
				}
				if removed > 0 {
					logger.Info("swept expired rooms", slog.Int("removed", removed))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
