package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/logvault-io/logvault/internal/config"
	"github.com/logvault-io/logvault/internal/handler"
	"github.com/logvault-io/logvault/internal/ingest"
	"github.com/logvault-io/logvault/internal/storage"
)

// Server holds the Echo app and its dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
}

// New builds the Echo server and registers routes over the given store.
func New(cfg *config.Config, store storage.Store, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.Logger())

	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second

	gw := storage.NewGateway(store, storage.SingleStream{Key: storage.DefaultStream}, log, storage.GatewayConfig{
		RetryAttempts: cfg.Storage.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Storage.RetryBackoffMS) * time.Millisecond,
	})
	h := &handler.LogHandler{
		Normalizer: ingest.NewNormalizer(),
		Gateway:    gw,
		ReadLimit:  int32(cfg.Storage.ReadLimit),
	}

	e.POST("/logs", h.Ingest)
	e.GET("/logs/recent", h.Recent)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	return &Server{Echo: e, Config: cfg}
}

// Start starts the HTTP server. Blocks until the context is cancelled or the
// server fails; on cancel the server shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	return s.Echo.Start(":" + s.Config.Server.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
