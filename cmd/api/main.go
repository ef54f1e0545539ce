package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/creatorhub/creatorhub/internal/appstate"
	"github.com/creatorhub/creatorhub/internal/config"
	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/infra"
	"github.com/creatorhub/creatorhub/internal/logging"
	"github.com/creatorhub/creatorhub/internal/media"
	"github.com/creatorhub/creatorhub/internal/server"
)

const startupTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, slog.String("app", cfg.AppName), slog.String("env", cfg.AppEnv))

	ctx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	store, closeStore, err := infra.OpenStore(ctx, cfg, cache, logger)
	if err != nil {
		logger.Error("open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	state := appstate.Hydrate(ctx, store, logger)

	if cfg.SeedFile != "" {
		users, err := identity.LoadSeed(cfg.SeedFile)
		if err != nil {
			logger.Error("load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		added, err := state.Directory.Import(ctx, users)
		if err != nil {
			logger.Error("import seed users", "error", err)
			os.Exit(1)
		}
		logger.Info("seed users imported", "path", cfg.SeedFile, "added", added, "total", len(users))
	}

	var uploader media.Uploader
	if cfg.Cloudinary.Enabled() {
		c, err := media.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			logger.Error("configure cloudinary", "error", err)
			os.Exit(1)
		}
		uploader = c
	}

	srv, err := server.New(cfg, store, state, server.Options{Cache: cache, Uploader: uploader}, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
