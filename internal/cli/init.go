// Package cli implements the gastos command line: the API server, the sync
// worker and one-shot commands that edit the config or build the workbook.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	applog "gastos/internal/log"
)

const shutdownTimeout = 30 * time.Second

// LoadEnvFile loads the .env file for local development.
// A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs a JSON logger writing to w as the slog default.
func SetupLogger(w io.Writer, level, component string) *applog.Logger {
	l := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Handler:   applog.NewHandler(w, applog.ParseLevel(level)),
	})
	applog.SetDefault(l)
	return l
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// shutdownContext bounds cleanup after ctx is done.
func shutdownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
}
