package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/campus-auth/config"
	httpx "github.com/target/campus-auth/internal/http"
	"github.com/target/campus-auth/internal/ports"
)

// HTTPServerConfig contains configuration for the development identity server.
type HTTPServerConfig struct {
	HTTP     config.HTTPConfig
	Identity ports.IdentityGateway
	Logger   *slog.Logger
}

// NewHTTPServer builds the identity HTTP server. It does not start listening.
func NewHTTPServer(cfg HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Identity:      cfg.Identity,
		ResponseDelay: cfg.HTTP.ResponseDelay,
		Logger:        logger,
	})

	// Guard against empty addr to avoid listening on Go default
	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = ":8081"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           httpx.Wrap(router, logger),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownHTTPServer gracefully shuts the server down within timeout.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
