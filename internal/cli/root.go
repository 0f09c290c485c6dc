package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gastos/internal/config"
	applog "gastos/internal/log"
)

// Commands annotated with annotationSkipValidation run on an unvalidated
// config, e.g. before the Drive credentials they create exist.
const annotationSkipValidation = "gastos/skip-validation"

// state is filled by the root command before any subcommand runs.
type state struct {
	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:   "gastos",
		Short: "Personal monthly budget dashboard",
		Long: `gastos keeps a monthly budget: salary, fixed expenses, debts and
variable spending, reconciled into a cash-flow selection and synchronized
to a spreadsheet workbook with one sheet per month.

Configuration comes from the environment (and a .env file if present).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			LoadEnvFile()
			cfg := config.Load()
			if cmd.Annotations[annotationSkipValidation] == "" {
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			st.cfg = cfg
			st.logger = SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cmd.Name())
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCmd(st),
		newWorkerCmd(st),
		newSyncCmd(st),
		newExcelCmd(st),
		newConfigCmd(st),
		newParseCmd(),
		newOAuthInitCmd(st),
	)
	return rootCmd
}

// Run executes the command line in args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the command line of the current process.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
