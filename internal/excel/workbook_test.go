package excel

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"gastos/internal/core"
)

var october = core.Period{Year: 2026, Month: time.October}

func testConfig() core.Config {
	cfg, _ := core.Normalize(core.DefaultConfig())
	cfg.Sueldo.ValorFijo = 5200000
	cfg.SaldoBancario.ValorActual = 910000
	cfg.GastosFijos["arriendo"] = core.FixedItem{Valor: 1200000, DiaCargo: 1, Categoria: "Vivienda"}
	cfg.GastosFijos["netflix"] = core.FixedItem{Valor: 26900, DiaCargo: 5, Categoria: "Entretenimiento"}
	cfg.GastosFijos["aaa_seguro"] = core.FixedItem{Valor: 90000, Frecuencia: "anual"}
	cfg.HistorialSaldos.SaldosMensuales["2026-10"] = core.MonthRecord{
		SaldoInicial:  750000,
		IngresosExtra: []core.ExtraIncome{{Concepto: "Bono", Valor: 300000}},
	}
	return cfg
}

func cell(t *testing.T, w *Workbook, sheet, ref string) string {
	t.Helper()
	v, err := w.f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("read %s!%s: %v", sheet, ref, err)
	}
	return v
}

func formula(t *testing.T, w *Workbook, sheet, ref string) string {
	t.Helper()
	v, err := w.f.GetCellFormula(sheet, ref)
	if err != nil {
		t.Fatalf("read formula %s!%s: %v", sheet, ref, err)
	}
	return strings.TrimPrefix(v, "=")
}

func TestUpsertMonthNewWorkbook(t *testing.T) {
	w := New()
	defer w.Close()

	created, err := w.UpsertMonth(testConfig(), october)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatalf("expected sheet to be created")
	}
	if got := w.Sheets(); !slices.Equal(got, []string{"Octubre 2026"}) {
		t.Fatalf("unexpected sheets %v", got)
	}

	sheet := "Octubre 2026"
	if got := cell(t, w, sheet, "A1"); got != "CONTROL DE GASTOS - OCTUBRE 2026" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := cell(t, w, sheet, "B3"); got != "5500000" {
		t.Fatalf("expected salary plus extra income, got %q", got)
	}
	if got := cell(t, w, sheet, "B6"); got != "750000" {
		t.Fatalf("expected start-of-month balance, got %q", got)
	}
	if got := cell(t, w, sheet, "B8"); got != "910000" {
		t.Fatalf("expected bank balance, got %q", got)
	}
	if got := cell(t, w, sheet, "B10"); got != "1200000" {
		t.Fatalf("expected cash withdrawal total, got %q", got)
	}

	formulas := map[string]string{
		"B4":  "D24",
		"B5":  "H29",
		"B7":  "B6+B3-B4-B5",
		"B9":  "B8-B7",
		"D24": "SUM(D4:D23)",
		"H29": "SUM(H4:H28)",
	}
	for ref, want := range formulas {
		if got := formula(t, w, sheet, ref); got != want {
			t.Errorf("formula %s = %q, want %q", ref, got, want)
		}
	}
}

func TestFixedExpensesOrder(t *testing.T) {
	w := New()
	defer w.Close()
	if _, err := w.UpsertMonth(testConfig(), october); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	sheet := october.SheetName()

	tests := []struct {
		ref  string
		want string
	}{
		{"E4", "Arriendo"},
		{"D4", "1200000"},
		{"F4", "Vivienda | Dia 1"},
		{"E5", "Mercado Primera Quincena"},
		{"E8", "Descuento Quincenal"},
		{"F8", "Descuentos | Quincenal"},
		{"E10", "Netflix"},
		// Keys outside the fixed order follow it, sorted.
		{"E16", "Aaa Seguro"},
		{"F16", "Sin categoria | Anual"},
		{"E24", "TOTAL GASTOS FIJOS"},
	}
	for _, tt := range tests {
		if got := cell(t, w, sheet, tt.ref); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestAppendVariablePreservedAcrossRebuilds(t *testing.T) {
	cfg := testConfig()
	w := New()
	if _, err := w.UpsertMonth(cfg, october); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	expense := core.VariableExpense{Monto: 18000, Concepto: "Taxi aeropuerto", Categoria: "Transporte", Fecha: "2026-10-02", Periodo: "2026-10"}
	row, err := w.AppendVariable(expense)
	if err != nil || row != 4 {
		t.Fatalf("expected row 4, got %d err=%v", row, err)
	}
	row, err = w.AppendVariable(core.VariableExpense{Monto: 5000, Concepto: "Tinto", Periodo: "2026-10"})
	if err != nil || row != 5 {
		t.Fatalf("expected row 5, got %d err=%v", row, err)
	}
	if got := cell(t, w, october.SheetName(), "J5"); got != "Otros" {
		t.Fatalf("expected default category, got %q", got)
	}

	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	w.Close()

	reopened, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reopened.Close()

	created, err := reopened.UpsertMonth(cfg, october)
	if err != nil || created {
		t.Fatalf("expected rebuild of existing sheet, created=%v err=%v", created, err)
	}
	vars, err := reopened.Variables(october)
	if err != nil {
		t.Fatalf("variables: %v", err)
	}
	if len(vars) != 2 || vars[0].Concepto != "Taxi aeropuerto" || vars[0].Monto != 18000 || vars[1].Categoria != "Otros" {
		t.Fatalf("unexpected variables %+v", vars)
	}
	// Template concepts resume after the preserved rows.
	if got := cell(t, reopened, october.SheetName(), "I6"); got != variableTemplate[2] {
		t.Fatalf("unexpected template concept %q", got)
	}
}

func TestFractionalAmountsSurviveRebuild(t *testing.T) {
	cfg := testConfig()
	w := New()
	defer w.Close()
	if _, err := w.UpsertMonth(cfg, october); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := w.AppendVariable(core.VariableExpense{Monto: 12.345, Concepto: "Cambio", Periodo: "2026-10"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	sheet := october.SheetName()
	if err := w.f.SetCellValue(sheet, "H5", "1.250,50"); err != nil {
		t.Fatalf("set text amount: %v", err)
	}
	if err := w.f.SetCellValue(sheet, "I5", "Mercado"); err != nil {
		t.Fatalf("set concept: %v", err)
	}

	for round := range 2 {
		if _, err := w.UpsertMonth(cfg, october); err != nil {
			t.Fatalf("rebuild %d: %v", round, err)
		}
		vars, err := w.Variables(october)
		if err != nil {
			t.Fatalf("variables: %v", err)
		}
		if len(vars) < 2 || vars[0].Monto != 12.345 || vars[1].Monto != 1250.5 {
			t.Fatalf("round %d: unexpected variables %+v", round, vars)
		}
	}
}

func TestAppendVariableErrors(t *testing.T) {
	w := New()
	defer w.Close()

	if _, err := w.AppendVariable(core.VariableExpense{Monto: 1, Concepto: "x", Periodo: "2026-10"}); !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}

	if _, err := w.UpsertMonth(testConfig(), october); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := variableFirstRow; i <= variableLastRow; i++ {
		if _, err := w.AppendVariable(core.VariableExpense{Monto: 1, Concepto: "x", Periodo: "2026-10"}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if _, err := w.AppendVariable(core.VariableExpense{Monto: 1, Concepto: "x", Periodo: "2026-10"}); !errors.Is(err, ErrSheetFull) {
		t.Fatalf("expected ErrSheetFull, got %v", err)
	}
}

func TestLegacySheetRenamed(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Octubre"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	values := map[string]any{
		"A10": "DETALLE DE GASTOS",
		"A11": "Fecha", "B11": "Concepto", "C11": "Categoría", "D11": "Monto (COP)",
		"A12": "2026-10-02", "B12": "Almuerzo", "C12": "Alimentación", "D12": 23000,
		"A13": "EJEMPLO", "B13": "Ejemplo", "D13": 1,
		"A14": "2026-10-03", "B14": "Bus", "C14": "Transporte", "D14": "$2,950",
	}
	for ref, v := range values {
		if err := f.SetCellValue("Octubre", ref, v); err != nil {
			t.Fatalf("set %s: %v", ref, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := Open(buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	created, err := w.UpsertMonth(testConfig(), october)
	if err != nil || created {
		t.Fatalf("expected rename, created=%v err=%v", created, err)
	}
	if got := w.Sheets(); !slices.Equal(got, []string{"Octubre 2026"}) {
		t.Fatalf("unexpected sheets %v", got)
	}
	vars, err := w.Variables(october)
	if err != nil {
		t.Fatalf("variables: %v", err)
	}
	want := []Variable{
		{Monto: 23000, Concepto: "Almuerzo", Categoria: "Alimentación", Fecha: "2026-10-02"},
		{Monto: 2950, Concepto: "Bus", Categoria: "Transporte", Fecha: "2026-10-03"},
	}
	if !slices.Equal(vars, want) {
		t.Fatalf("unexpected variables %+v", vars)
	}
}

func TestSecondMonthAddsSheet(t *testing.T) {
	w := New()
	defer w.Close()
	cfg := testConfig()
	if _, err := w.UpsertMonth(cfg, october); err != nil {
		t.Fatalf("upsert october: %v", err)
	}
	created, err := w.UpsertMonth(cfg, october.Next())
	if err != nil || !created {
		t.Fatalf("expected new sheet, created=%v err=%v", created, err)
	}
	if got := w.Sheets(); !slices.Equal(got, []string{"Octubre 2026", "Noviembre 2026"}) {
		t.Fatalf("unexpected sheets %v", got)
	}
}

func TestSplitDetail(t *testing.T) {
	tests := []struct {
		categoria, fecha string
		wantCat, wantFec string
	}{
		{"", "Comida | 2026-10-01", "Comida", "2026-10-01"},
		{"Otros", "a | b", "Otros", "a | b"},
		{" ", " 2026-10-01 ", "", "2026-10-01"},
	}
	for _, tt := range tests {
		c, f := splitDetail(tt.categoria, tt.fecha)
		if c != tt.wantCat || f != tt.wantFec {
			t.Errorf("splitDetail(%q, %q) = %q, %q", tt.categoria, tt.fecha, c, f)
		}
	}
}
