package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/campus-auth/config"
	"github.com/target/campus-auth/internal/bootstrap"
	"github.com/target/campus-auth/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Auth   *service.AuthService

	In  *bufio.Reader
	Out io.Writer
	// stdin is set when In reads from a terminal so passwords can be read without echo.
	stdin *os.File
}

// errReported marks a failure that was already shown to the user.
var errReported = errors.New("reported")

func main() {
	// Logs go to stderr so stdout carries only user-facing output.
	logger := bootstrap.InitLoggerTo(os.Stderr, slog.LevelWarn)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cmd, os.Args[2:])
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			slog.Default().ErrorContext(ctx, "command failed", "command", cmdName, "error", err)
		}
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func run(ctx context.Context, cmd command, args []string) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLoggerTo(os.Stderr, cfg.Observability.Logging.SlogLevel())

	sink, err := bootstrap.BuildMetrics(cfg.Observability.Metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Debug("close metrics client", "error", cerr)
		}
	}()

	storage, err := bootstrap.BuildStorage(ctx, bootstrap.StorageDeps{Config: &cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Warn("close session storage", "error", cerr)
		}
	}()

	auth, err := bootstrap.BuildAuthService(bootstrap.AuthDeps{
		Config:      &cfg,
		Persistence: storage.Persistence,
		Metrics:     sink,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer auth.Close()

	auth.Restore(ctx)

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Auth:   auth,
		In:     bufio.NewReader(os.Stdin),
		Out:    os.Stdout,
	}
	if isTerminal(os.Stdin) {
		cmdCtx.stdin = os.Stdin
	}
	return cmd.run(cmdCtx, args)
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in to the Campus Staff Portal",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and forget the stored session",
			run:         runLogout,
		},
		"status": {
			name:        "status",
			description: "Show the current session",
			run:         runStatus,
		},
		"scope": {
			name:        "scope",
			description: "List the resource categories the current role may access",
			run:         runScope,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: campusauth <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
