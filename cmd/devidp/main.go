// Command devidp serves the development identity service used by the campusauth
// CLI when AUTH_GATEWAY=http. It is not meant for production use.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/target/campus-auth/config"
	"github.com/target/campus-auth/internal/bootstrap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLoggerTo(os.Stdout, cfg.Observability.Logging.SlogLevel()).With("component", "devidp")

	if strings.TrimSpace(cfg.DevAuth.Accounts) == "" {
		return errors.New("DEVIDP_ACCOUNTS is required (see .env.example)")
	}
	prov, err := bootstrap.BuildDevProvider(cfg.DevAuth, nil)
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)
	server := bootstrap.NewHTTPServer(bootstrap.HTTPServerConfig{
		HTTP:     cfg.HTTP,
		Identity: prov,
		Logger:   logger,
	})
	return serve(ctx, server, cfg.HTTP, logger)
}

// serve runs server until ctx is canceled, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, httpCfg config.HTTPConfig, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}
	logger.InfoContext(ctx, "starting HTTP server", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return bootstrap.ShutdownHTTPServer(context.WithoutCancel(ctx), server, httpCfg.ShutdownTimeout, logger)
	})
	return g.Wait()
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting development identity service",
		"addr", cfg.HTTP.Addr,
		"session_duration", cfg.DevAuth.SessionDuration,
		"attempts_per_minute", cfg.DevAuth.AttemptsPerMinute,
		"response_delay", cfg.HTTP.ResponseDelay,
	)
}
