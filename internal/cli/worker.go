package cli

import (
	"github.com/spf13/cobra"

	"gastos/internal/worker"
)

func newWorkerCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume sync requests and run the background processor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var consumer worker.Consumer
			if a.broker != nil {
				consumer = a.broker
			}
			st.logger.Info("Worker starting", "broker", a.broker != nil, "queue", st.cfg.AMQPQueue)
			if err := worker.NewSyncWorker(a.sync, a.variables).Run(ctx, consumer, a.processor()); err != nil {
				return err
			}
			st.logger.Info("Worker exited")
			return nil
		},
	}
}
