package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	apphttp "gastos/internal/http"
	applog "gastos/internal/log"
	"gastos/web"
)

func newServeCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and dashboard",
		Long: `Run the HTTP API and the static dashboard.

Without a message broker, or with --worker, the process also writes pending
variable expenses and runs the monthly sheet schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			withWorker, _ := cmd.Flags().GetBool("worker")
			return runServe(cmd, st, withWorker)
		},
	}
	cmd.Flags().Bool("worker", false, "run the background processor in this process")
	return cmd
}

func runServe(cmd *cobra.Command, st *state, withWorker bool) error {
	ctx, cancel := SignalContext(cmd.Context(), st.logger)
	defer cancel()

	a, err := openApp(ctx, st.cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			st.logger.Error("Failed to close backend", "error", err)
		}
	}()

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	srv := apphttp.NewServer(":"+st.cfg.Port, apphttp.Deps{
		Config:    a.config,
		Sync:      a.sync,
		Variables: a.variables,
		Publisher: a.publisher(),
		History:   a.backend.History,
		Ready:     a.backend,
	}, apphttp.Options{
		RateLimitPerMinute: st.cfg.RateLimitPerMinute,
		Docs:               os.DirFS(st.cfg.DocsDir),
		Static:             static,
		Logger:             st.logger.WithComponent(applog.ComponentHTTP),
	})

	if withWorker || a.broker == nil {
		p := a.processor()
		if err := p.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, stop := shutdownContext(ctx)
			defer stop()
			if err := p.Stop(stopCtx); err != nil {
				st.logger.Warn("Processor did not stop cleanly", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		st.logger.Info("HTTP server starting", "addr", srv.Addr, "broker", a.broker != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := shutdownContext(ctx)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	st.logger.Info("Server exited")
	return nil
}
