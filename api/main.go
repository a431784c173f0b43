package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jimiolaniyan/identity/app"
	"github.com/jimiolaniyan/identity/auth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg, os.Stdout)

	accounts, closeStore, err := app.OpenRepository(ctx, cfg)
	if err != nil {
		logger.Error("open store", slog.String("driver", cfg.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	locks, closeLocks, err := app.OpenLocker(ctx, cfg)
	if err != nil {
		logger.Error("open locker", slog.String("driver", cfg.LockDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeLocks()

	tokens, err := auth.NewJWTTokenIssuer(cfg.SigningKey)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	svc := auth.NewService(accounts, tokens, locks, logger)
	handler := app.RequestLogger(logger, auth.NewRouter(svc, logger))

	if err := app.Serve(ctx, cfg, logger, handler); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
