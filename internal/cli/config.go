package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"gastos/internal/core"
	"gastos/internal/services"
)

func newConfigCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the stored configuration",
	}
	cmd.AddCommand(
		newConfigShowCmd(st),
		newDashboardCmd(st),
		newSalaryCmd(st),
		newFixedItemCmd(st, "expense", "Add or update a fixed expense", (*services.ConfigService).UpsertExpense),
		newFixedItemCmd(st, "debt", "Add or update a debt", (*services.ConfigService).UpsertDebt),
		newDeleteCmd(st, "delete-expense", "Delete a fixed expense by key", (*services.ConfigService).DeleteExpense),
		newDeleteCmd(st, "delete-debt", "Delete a debt by key", (*services.ConfigService).DeleteDebt),
	)
	return cmd
}

// withConfig opens the app without a broker and hands its config service
// to fn.
func withConfig(cmd *cobra.Command, st *state, fn func(*services.ConfigService) error) error {
	a, err := openApp(cmd.Context(), st.cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.config)
}

func newConfigShowCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, st, func(svc *services.ConfigService) error {
				cfg, err := svc.Load(cmd.Context())
				if err != nil {
					return err
				}
				data, err := core.EncodeConfig(cfg)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			})
		},
	}
}

func newDashboardCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the monthly summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, st, func(svc *services.ConfigService) error {
				d, err := svc.Dashboard(cmd.Context())
				if err != nil {
					return err
				}
				return writeIndented(cmd.OutOrStdout(), d)
			})
		},
	}
}

func newSalaryCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salary VALOR",
		Short: "Set the monthly salary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			valor, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			up := services.SalaryUpdate{ValorFijo: &valor}
			if cmd.Flags().Changed("nombre") {
				nombre, _ := cmd.Flags().GetString("nombre")
				up.Nombre = &nombre
			}
			if cmd.Flags().Changed("presupuesto") {
				raw, _ := cmd.Flags().GetString("presupuesto")
				v, err := core.ParseAmount(raw)
				if err != nil {
					return fmt.Errorf("presupuesto: %w", err)
				}
				up.PresupuestoVariables = &v
			}
			return withConfig(cmd, st, func(svc *services.ConfigService) error {
				cfg, err := svc.SetSalary(cmd.Context(), up)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", cfg.Usuario.Nombre, formatAmount(cfg.Sueldo.ValorFijo.Float()), cfg.Sueldo.Moneda)
				return nil
			})
		},
	}
	cmd.Flags().String("nombre", "", "user name shown on the dashboard")
	cmd.Flags().String("presupuesto", "", "monthly budget for variable expenses")
	return cmd
}

func newFixedItemCmd(st *state, use, short string, upsert func(*services.ConfigService, context.Context, core.FixedItemInput) (core.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " NOMBRE VALOR",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			valor, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			in := core.FixedItemInput{Nombre: args[0], Valor: valor}
			in.NombreOriginal, _ = cmd.Flags().GetString("renombrar")
			in.Categoria, _ = cmd.Flags().GetString("categoria")
			in.DiaCargo, _ = cmd.Flags().GetInt("dia")
			in.Frecuencia, _ = cmd.Flags().GetString("frecuencia")
			if in.Frecuencia != "" {
				in.Tipo = core.ScheduleFrequency
			}
			in.Detalle, _ = cmd.Flags().GetString("detalle")
			return withConfig(cmd, st, func(svc *services.ConfigService) error {
				cfg, err := upsert(svc, cmd.Context(), in)
				if err != nil {
					return err
				}
				printCommitments(cmd, cfg)
				return nil
			})
		},
	}
	cmd.Flags().String("renombrar", "", "current name of the item when renaming it")
	cmd.Flags().String("categoria", "", "expense category")
	cmd.Flags().Int("dia", 0, "day of the month it is charged (1-31)")
	cmd.Flags().String("frecuencia", "", "charge frequency when there is no fixed day")
	cmd.Flags().String("detalle", "", "free-form detail")
	return cmd
}

func newDeleteCmd(st *state, use, short string, del func(*services.ConfigService, context.Context, string) (core.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, st, func(svc *services.ConfigService) error {
				cfg, err := del(svc, cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printCommitments(cmd, cfg)
				return nil
			})
		},
	}
}

func printCommitments(cmd *cobra.Command, cfg core.Config) {
	out := cmd.OutOrStdout()
	for _, c := range core.Commitments(cfg) {
		fmt.Fprintf(out, "%s\t%s\t%s\n", c.ID, c.Concepto, formatAmount(c.Valor))
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse VALOR",
		Short: "Parse a currency amount the way the dashboard does",
		Example: `  gastos parse '$ 1.234.567,89'
  gastos parse 2.500.000`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationSkipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("%q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatAmount(v))
			return nil
		},
	}
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
