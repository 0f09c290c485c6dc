// Package excel builds the monthly control workbook: one sheet per month
// with an executive summary, the configured fixed expenses and the
// variable expenses recorded during the month.
package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gastos/internal/core"
)

var (
	ErrSheetNotFound = errors.New("month sheet not found")
	ErrSheetFull     = errors.New("variable expense table is full")
)

// Workbook wraps an excelize file.
type Workbook struct {
	f      *excelize.File
	styles map[styleKind]int
	// placeholder is the default sheet of a new file, replaced by the
	// first month sheet.
	placeholder string
}

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{f: excelize.NewFile(), styles: map[styleKind]int{}, placeholder: defaultSheet}
}

// Open reads a workbook.
func Open(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{f: f, styles: map[styleKind]int{}}, nil
}

// OpenBytes is Open over an in-memory document.
func OpenBytes(data []byte) (*Workbook, error) {
	return Open(bytes.NewReader(data))
}

func (w *Workbook) Close() error { return w.f.Close() }

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	if w.placeholder != "" {
		return slices.DeleteFunc(w.f.GetSheetList(), func(s string) bool { return s == w.placeholder })
	}
	return w.f.GetSheetList()
}

// HasSheet reports whether the month sheet of p exists.
func (w *Workbook) HasSheet(p core.Period) bool {
	return w.hasSheet(p.SheetName())
}

func (w *Workbook) hasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Write serializes the workbook.
func (w *Workbook) Write(out io.Writer) error {
	if err := w.f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Bytes serializes the workbook into memory.
func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// UpsertMonth creates or rebuilds the sheet of p from cfg. Variable
// expenses already recorded in the sheet are kept. A sheet named only
// after the month (an older naming) is renamed and rebuilt. It reports
// whether the sheet was created.
func (w *Workbook) UpsertMonth(cfg core.Config, p core.Period) (bool, error) {
	target := p.SheetName()
	legacy := p.MonthName()

	var (
		variables []Variable
		created   bool
		err       error
	)
	switch {
	case w.hasSheet(target):
		if variables, err = w.extractVariables(target); err != nil {
			return false, err
		}
		if err := w.clear(target); err != nil {
			return false, err
		}
	case w.hasSheet(legacy):
		if variables, err = w.extractVariables(legacy); err != nil {
			return false, err
		}
		if err := w.f.SetSheetName(legacy, target); err != nil {
			return false, fmt.Errorf("rename sheet %q: %w", legacy, err)
		}
		if err := w.clear(target); err != nil {
			return false, err
		}
	case w.placeholder != "":
		if err := w.f.SetSheetName(w.placeholder, target); err != nil {
			return false, fmt.Errorf("rename sheet %q: %w", w.placeholder, err)
		}
		w.placeholder = ""
		created = true
	default:
		if _, err := w.f.NewSheet(target); err != nil {
			return false, fmt.Errorf("create sheet %q: %w", target, err)
		}
		created = true
	}

	sw := &sheetWriter{w: w, sheet: target}
	sw.layout(cfg, p)
	sw.fixedExpenses(cfg)
	sw.variables(variables)
	if sw.err != nil {
		return created, fmt.Errorf("build sheet %q: %w", target, sw.err)
	}

	if idx, err := w.f.GetSheetIndex(target); err == nil && idx >= 0 {
		w.f.SetActiveSheet(idx)
	}
	return created, nil
}

// AppendVariable writes e to the first free row of the variable table of
// its month sheet and returns the row number.
func (w *Workbook) AppendVariable(e core.VariableExpense) (int, error) {
	sheet := e.Period().SheetName()
	if !w.hasSheet(sheet) {
		return 0, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}

	row := 0
	for r := variableFirstRow; r <= variableLastRow; r++ {
		v, err := w.f.GetCellValue(sheet, fmt.Sprintf("H%d", r), excelize.Options{RawCellValue: true})
		if err != nil {
			return 0, fmt.Errorf("read %s!H%d: %w", sheet, r, err)
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.Contains(strings.ToUpper(v), exampleMarker) {
			row = r
			break
		}
	}
	if row == 0 {
		return 0, fmt.Errorf("%s: %w", sheet, ErrSheetFull)
	}

	concepto := strings.TrimSpace(e.Concepto)
	if concepto == "" {
		concepto = defaultConcept
	}
	categoria := strings.TrimSpace(e.Categoria)
	if categoria == "" {
		categoria = defaultCategory
	}

	sw := &sheetWriter{w: w, sheet: sheet}
	sw.variableRow(row, Variable{Monto: e.Monto, Concepto: concepto, Categoria: categoria, Fecha: e.Fecha})
	if sw.err != nil {
		return 0, fmt.Errorf("append variable expense: %w", sw.err)
	}
	return row, nil
}

// Variables returns the variable expenses recorded in the sheet of p.
func (w *Workbook) Variables(p core.Period) ([]Variable, error) {
	sheet := p.SheetName()
	if !w.hasSheet(sheet) {
		return nil, fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	return w.extractVariables(sheet)
}

// clear removes every row and merge of sheet.
func (w *Workbook) clear(sheet string) error {
	merges, err := w.f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("read merges of %q: %w", sheet, err)
	}
	for _, mc := range merges {
		if err := w.f.UnmergeCell(sheet, mc.GetStartAxis(), mc.GetEndAxis()); err != nil {
			return fmt.Errorf("unmerge %s: %w", mc.GetStartAxis(), err)
		}
	}

	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read rows of %q: %w", sheet, err)
	}
	for r := max(len(rows), variableTotalRow); r >= 1; r-- {
		if err := w.f.RemoveRow(sheet, r); err != nil {
			return fmt.Errorf("remove row %d of %q: %w", r, sheet, err)
		}
	}
	return nil
}

// sheetWriter keeps the first error of a sequence of cell writes.
type sheetWriter struct {
	w     *Workbook
	sheet string
	err   error
}

func (s *sheetWriter) set(cell string, v any) {
	if s.err == nil {
		s.err = s.w.f.SetCellValue(s.sheet, cell, v)
	}
}

func (s *sheetWriter) formula(cell, f string) {
	if s.err == nil {
		s.err = s.w.f.SetCellFormula(s.sheet, cell, f)
	}
}

func (s *sheetWriter) paint(from, to string, kind styleKind) {
	if s.err == nil {
		s.err = s.w.paint(s.sheet, from, to, kind)
	}
}

func (s *sheetWriter) merge(from, to string) {
	if s.err == nil {
		s.err = s.w.f.MergeCell(s.sheet, from, to)
	}
}

func (s *sheetWriter) layout(cfg core.Config, p core.Period) {
	extras := core.ExtraIncomesFor(cfg, p)
	ingresos := finite(cfg.Sueldo.ValorFijo.Float()) + extras.Total
	retiro := core.FlowTotalsFor(cfg, core.FlowRetiroEfectivo)
	movii := core.FlowTotalsFor(cfg, core.FlowMovii)

	s.set("A1", fmt.Sprintf("CONTROL DE GASTOS - %s %d", strings.ToUpper(p.MonthName()), p.Year))
	s.merge("A1", "K1")
	s.paint("A1", "K1", styleTitle)
	if s.err == nil {
		s.err = s.w.f.SetRowHeight(s.sheet, 1, 32)
	}

	for _, h := range []struct{ from, to, text string }{
		{"A2", "B2", "RESUMEN EJECUTIVO"},
		{"D2", "F2", "GASTOS FIJOS CONFIGURADOS"},
		{"H2", "K2", "GASTOS VARIABLES DEL MES"},
	} {
		s.set(h.from, h.text)
		s.merge(h.from, h.to)
		s.paint(h.from, h.to, styleHeader)
	}

	for cell, text := range map[string]string{
		"D3": "Monto", "E3": "Concepto", "F3": "Categoria / Fecha",
		"H3": "Monto", "I3": "Concepto", "J3": "Categoria", "K3": "Fecha",
	} {
		s.set(cell, text)
		s.paint(cell, cell, styleHeader)
	}

	summary := []struct {
		row     int
		label   string
		value   float64
		formula string
	}{
		{3, "Ingresos Totales", ingresos, ""},
		{4, "Total Gastos Fijos", 0, fmt.Sprintf("D%d", fixedTotalRow)},
		{5, "Total Gastos Variables", 0, fmt.Sprintf("H%d", variableTotalRow)},
		{6, "Saldo Inicio Mes", core.StartOfMonthBalance(cfg, p), ""},
		{7, "Saldo Proyectado", 0, "B6+B3-B4-B5"},
		{8, "Saldo Real Banco", finite(cfg.SaldoBancario.ValorActual.Float()), ""},
		{9, "Diferencia", 0, "B8-B7"},
		{10, "Retiro en efectivo", retiro.Total, ""},
		{11, "Recarga MOVII", movii.Total, ""},
	}
	for _, line := range summary {
		a, b := fmt.Sprintf("A%d", line.row), fmt.Sprintf("B%d", line.row)
		s.set(a, line.label)
		if line.formula != "" {
			s.formula(b, line.formula)
		} else {
			s.set(b, line.value)
		}
		s.paint(a, a, styleLabel)
		s.paint(b, b, styleLabelMoney)
	}

	s.formula(fmt.Sprintf("D%d", fixedTotalRow), fmt.Sprintf("SUM(D%d:D%d)", fixedFirstRow, fixedLastRow))
	s.set(fmt.Sprintf("E%d", fixedTotalRow), "TOTAL GASTOS FIJOS")
	s.paint(fmt.Sprintf("D%d", fixedTotalRow), fmt.Sprintf("D%d", fixedTotalRow), styleLabelMoney)
	s.paint(fmt.Sprintf("E%d", fixedTotalRow), fmt.Sprintf("F%d", fixedTotalRow), styleLabel)

	s.formula(fmt.Sprintf("H%d", variableTotalRow), fmt.Sprintf("SUM(H%d:H%d)", variableFirstRow, variableLastRow))
	s.set(fmt.Sprintf("I%d", variableTotalRow), "TOTAL GASTOS VARIABLES")
	s.paint(fmt.Sprintf("H%d", variableTotalRow), fmt.Sprintf("H%d", variableTotalRow), styleLabelMoney)
	s.paint(fmt.Sprintf("I%d", variableTotalRow), fmt.Sprintf("K%d", variableTotalRow), styleLabel)

	for _, c := range columnWidths {
		if s.err == nil {
			s.err = s.w.f.SetColWidth(s.sheet, c.col, c.col, c.width)
		}
	}
	if s.err == nil {
		s.err = s.w.f.SetPanes(s.sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      3,
			TopLeftCell: "A4",
			ActivePane:  "bottomLeft",
		})
	}
}

func (s *sheetWriter) fixedExpenses(cfg core.Config) {
	row := fixedFirstRow
	for _, key := range orderedExpenseKeys(cfg.GastosFijos) {
		if row > fixedLastRow {
			break
		}
		item := cfg.GastosFijos[key]
		s.set(fmt.Sprintf("D%d", row), finite(item.Valor.Float()))
		s.set(fmt.Sprintf("E%d", row), core.FormatConcept(key))
		s.set(fmt.Sprintf("F%d", row), fixedDetail(item))
		row++
	}
	s.paint(fmt.Sprintf("D%d", fixedFirstRow), fmt.Sprintf("D%d", fixedLastRow), styleMoney)
	s.paint(fmt.Sprintf("E%d", fixedFirstRow), fmt.Sprintf("F%d", fixedLastRow), styleCell)
}

// variables writes the template concepts and then the preserved rows.
func (s *sheetWriter) variables(rows []Variable) {
	for i, r := 0, variableFirstRow; r <= variableLastRow; i, r = i+1, r+1 {
		concept := ""
		if i < len(variableTemplate) {
			concept = variableTemplate[i]
		}
		s.set(fmt.Sprintf("I%d", r), concept)
	}
	s.paint(fmt.Sprintf("H%d", variableFirstRow), fmt.Sprintf("H%d", variableLastRow), styleMoney)
	s.paint(fmt.Sprintf("I%d", variableFirstRow), fmt.Sprintf("K%d", variableLastRow), styleCell)

	for i, v := range rows {
		r := variableFirstRow + i
		if r > variableLastRow {
			break
		}
		s.variableRow(r, v)
	}
}

func (s *sheetWriter) variableRow(r int, v Variable) {
	s.set(fmt.Sprintf("H%d", r), v.Monto)
	s.set(fmt.Sprintf("I%d", r), v.Concepto)
	s.set(fmt.Sprintf("J%d", r), v.Categoria)
	s.set(fmt.Sprintf("K%d", r), v.Fecha)
	s.paint(fmt.Sprintf("H%d", r), fmt.Sprintf("H%d", r), styleMoney)
	s.paint(fmt.Sprintf("I%d", r), fmt.Sprintf("K%d", r), styleCell)
}

func orderedExpenseKeys(items map[string]core.FixedItem) []string {
	out := make([]string, 0, len(items))
	for _, key := range fixedExpenseOrder {
		if _, ok := items[key]; ok {
			out = append(out, key)
		}
	}
	var rest []string
	for key := range items {
		if !slices.Contains(fixedExpenseOrder, key) {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// fixedDetail renders "categoria | fecha" for the fixed expenses table.
func fixedDetail(item core.FixedItem) string {
	categoria := strings.TrimSpace(item.Categoria)
	if categoria == "" {
		categoria = noCategory
	}
	fecha := ""
	switch {
	case item.DiaCargo > 0:
		fecha = fmt.Sprintf("Dia %d", item.DiaCargo)
	case item.Frecuencia != "":
		fecha = cases.Title(language.Spanish).String(item.Frecuencia)
	}
	return strings.Trim(categoria+" | "+fecha, " |")
}

func finite(v float64) float64 {
	if !core.IsFinite(v) {
		return 0
	}
	return v
}
