package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
	"gastos/internal/store/memory"
)

var testNow = time.Date(2026, time.October, 14, 12, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newConfigService(t *testing.T) (*ConfigService, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewConfigService(st, WithHistory(st), WithClock(fixedClock)), st
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	svc, st := newConfigService(t)
	ctx := context.Background()

	cfg, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sueldo.ValorFijo != 4600000 {
		t.Fatalf("expected default salary, got %v", cfg.Sueldo.ValorFijo)
	}
	want := []string{"gasto:netflix", "gasto:youtube_premium", "gasto:google_drive", "gasto:mercadolibre"}
	if !slices.Equal(cfg.FlujosEfectivo.MoviiItems, want) {
		t.Fatalf("expected reconciled movii items %v, got %v", want, cfg.FlujosEfectivo.MoviiItems)
	}

	if _, err := st.Load(ctx); errors.Is(err, store.ErrConfigNotFound) {
		t.Fatal("default config was not persisted")
	}
	revs, err := st.Revisions(ctx, 0)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) == 0 || revs[len(revs)-1].Reason != ReasonDefault {
		t.Fatalf("expected a default revision first, got %+v", revs)
	}
}

func TestLoadRepairsLegacySelections(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.FlujosEfectivo.RetiroEfectivoItems = core.Selection{"Arriendo", "gasto:arriendo", "missing"}
	st, err := memory.NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewConfigService(st, WithClock(fixedClock))
	ctx := context.Background()

	got, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(got.FlujosEfectivo.RetiroEfectivoItems, []string{"gasto:arriendo"}) {
		t.Fatalf("unexpected retiro items %v", got.FlujosEfectivo.RetiroEfectivoItems)
	}

	stored, _ := st.Load(ctx)
	if !slices.Equal(stored.FlujosEfectivo.RetiroEfectivoItems, []string{"gasto:arriendo"}) {
		t.Fatalf("repaired selection not persisted: %v", stored.FlujosEfectivo.RetiroEfectivoItems)
	}
}

func TestRejectedMutationLeavesState(t *testing.T) {
	svc, st := newConfigService(t)
	ctx := context.Background()

	if _, err := svc.SetSalary(ctx, SalaryUpdate{ValorFijo: ptr(-1.0)}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.DeleteExpense(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.RenameCategory(ctx, 99, "x"); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}

	stored, err := st.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Sueldo.ValorFijo != 4600000 {
		t.Fatalf("salary changed by rejected mutation: %v", stored.Sueldo.ValorFijo)
	}
}

func TestSetSalaryKeepsUnsetFields(t *testing.T) {
	svc, _ := newConfigService(t)
	ctx := context.Background()

	budget := 800000.0
	name := "Ana"
	if _, err := svc.SetSalary(ctx, SalaryUpdate{Nombre: &name, ValorFijo: ptr(5000000.0), PresupuestoVariables: &budget}); err != nil {
		t.Fatalf("set salary: %v", err)
	}
	cfg, err := svc.SetSalary(ctx, SalaryUpdate{ValorFijo: ptr(5200000.0)})
	if err != nil {
		t.Fatalf("set salary: %v", err)
	}
	if cfg.Sueldo.ValorFijo != 5200000 || cfg.PresupuestoVariables != 800000 || cfg.Usuario.Nombre != "Ana" {
		t.Fatalf("unexpected salary state %+v budget=%v", cfg.Sueldo, cfg.PresupuestoVariables)
	}

	other := "Ana María"
	cfg, err = svc.SetSalary(ctx, SalaryUpdate{Nombre: &other})
	if err != nil {
		t.Fatalf("rename only: %v", err)
	}
	if cfg.Sueldo.ValorFijo != 5200000 || cfg.Usuario.Nombre != other {
		t.Fatalf("name-only update touched the salary: %+v %q", cfg.Sueldo, cfg.Usuario.Nombre)
	}
}

func ptr[T any](v T) *T { return &v }

func TestDeletedExpenseLeavesSelections(t *testing.T) {
	svc, _ := newConfigService(t)
	ctx := context.Background()

	cfg, err := svc.ToggleFlow(ctx, core.FlowRetiroEfectivo, "netflix", true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !slices.Contains(cfg.FlujosEfectivo.RetiroEfectivoItems, "gasto:netflix") {
		t.Fatalf("netflix not selected: %v", cfg.FlujosEfectivo.RetiroEfectivoItems)
	}

	cfg, err = svc.DeleteExpense(ctx, "netflix")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, kind := range core.FlowKinds() {
		sel, _ := cfg.FlujosEfectivo.Selection(kind)
		if slices.Contains(sel, "gasto:netflix") {
			t.Fatalf("%s still selects a deleted expense: %v", kind, sel)
		}
	}
}

func TestReplaceDocument(t *testing.T) {
	svc, _ := newConfigService(t)
	ctx := context.Background()

	if _, err := svc.ReplaceDocument(ctx, []byte("{not json")); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}

	cfg, err := svc.ReplaceDocument(ctx, []byte(`{"sueldo":{"valor_fijo":"$3.000.000"},"historial_saldos":{"2026-09":{"saldo_final":120000}}}`))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if cfg.Sueldo.ValorFijo != 3000000 {
		t.Fatalf("unexpected salary %v", cfg.Sueldo.ValorFijo)
	}
	if _, ok := cfg.HistorialSaldos.SaldosMensuales["2026-09"]; !ok {
		t.Fatalf("legacy month not migrated: %+v", cfg.HistorialSaldos.SaldosMensuales)
	}
	if len(cfg.CategoriasGastos) == 0 {
		t.Fatal("missing sections were not filled")
	}
}

func TestBankBalanceAndExtraIncome(t *testing.T) {
	svc, _ := newConfigService(t)
	ctx := context.Background()

	if _, err := svc.UpdateBankBalance(ctx, core.BankBalanceInput{SaldoInicio: -1}); !errors.Is(err, core.ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
	if _, err := svc.UpdateBankBalance(ctx, core.BankBalanceInput{SaldoInicio: 500000, SaldoActual: 420000}); err != nil {
		t.Fatalf("update balance: %v", err)
	}
	if _, err := svc.AddExtraIncome(ctx, "Bono", 300000); err != nil {
		t.Fatalf("add extra: %v", err)
	}

	d, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.SaldoInicioMes != 500000 || d.SaldoActual != 420000 {
		t.Fatalf("unexpected balances %v / %v", d.SaldoInicioMes, d.SaldoActual)
	}
	if d.IngresosExtra.Total != 300000 || d.Periodo != "2026-10" {
		t.Fatalf("unexpected extras %+v in %s", d.IngresosExtra, d.Periodo)
	}

	cfg, err := svc.RemoveExtraIncome(ctx, 0)
	if err != nil {
		t.Fatalf("remove extra: %v", err)
	}
	if n := len(cfg.HistorialSaldos.SaldosMensuales["2026-10"].IngresosExtra); n != 0 {
		t.Fatalf("expected no extras, got %d", n)
	}
}
