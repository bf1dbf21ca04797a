package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/logvault-io/logvault/internal/config"
	"github.com/logvault-io/logvault/internal/server"
	"github.com/logvault-io/logvault/internal/storage"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	switch cfg.Storage.Driver {
	case "memory":
		store = storage.NewMemory()
		logger.Warn().Msg("using in-memory store; entries will not survive a restart")
	default:
		store, err = storage.NewDynamo(ctx, storage.DynamoConfig{
			Table:     cfg.Storage.Table,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("storage client")
		}
	}

	srv := server.New(cfg, store, logger)
	logger.Info().
		Str("port", cfg.Server.Port).
		Str("driver", cfg.Storage.Driver).
		Str("table", cfg.Storage.Table).
		Msg("starting logvault")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
