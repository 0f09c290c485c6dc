package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"gastos/internal/core"
)

func newSyncCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the month sheet and upload the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("month-mode")
			mode, err := core.ParseMonthMode(raw)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), st.cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.sync.Sync(cmd.Context(), mode)
			if werr := writeIndented(cmd.OutOrStdout(), res); err == nil {
				err = werr
			}
			return err
		},
	}
	cmd.Flags().StringP("month-mode", "m", string(core.MonthActual), "month to sync: actual or siguiente")
	return cmd
}

func newExcelCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "excel",
		Short: "Write the workbook for a month to a local file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), st.cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := targetPeriod(cmd, a.config.Now())
			if err != nil {
				return err
			}
			data, err := a.sync.Workbook(cmd.Context(), p)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = fmt.Sprintf("ControlDeGastos_%s.xlsx", p.Key())
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %d bytes)\n", out, p.SheetName(), len(data))
			return nil
		},
	}
	cmd.Flags().StringP("month-mode", "m", string(core.MonthActual), "month to build: actual or siguiente")
	cmd.Flags().StringP("period", "p", "", "month to build as YYYY-MM, overrides --month-mode")
	cmd.Flags().StringP("out", "o", "", "output file (default ControlDeGastos_YYYY-MM.xlsx)")
	return cmd
}

// targetPeriod reads --period, falling back to --month-mode relative to now.
func targetPeriod(cmd *cobra.Command, now time.Time) (core.Period, error) {
	if key, _ := cmd.Flags().GetString("period"); key != "" {
		return core.ParsePeriod(key)
	}
	raw, _ := cmd.Flags().GetString("month-mode")
	mode, err := core.ParseMonthMode(raw)
	if err != nil {
		return core.Period{}, err
	}
	return mode.Target(now), nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
