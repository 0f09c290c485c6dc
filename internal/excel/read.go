package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gastos/internal/core"
)

// Variable is a row of the variable expenses table.
type Variable struct {
	Monto     float64 `json:"monto"`
	Concepto  string  `json:"concepto"`
	Categoria string  `json:"categoria"`
	Fecha     string  `json:"fecha"`
}

type grid [][]string

func (g grid) at(row int, col string) string {
	c, err := excelize.ColumnNameToNumber(col)
	if err != nil || row < 1 || row > len(g) || c > len(g[row-1]) {
		return ""
	}
	return g[row-1][c-1]
}

// extractVariables reads recorded variable expenses from a sheet. Three
// layouts are recognised, tried in order: the H:K table, the older K:M
// table and the "DETALLE DE GASTOS" table in A:F.
func (w *Workbook) extractVariables(sheet string) ([]Variable, error) {
	rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", sheet, err)
	}
	g := grid(rows)

	var out []Variable
	add := func(monto float64, concepto, categoria, fecha string) {
		concepto = strings.TrimSpace(concepto)
		if concepto == "" {
			return
		}
		if !core.IsFinite(monto) || monto <= 0 {
			return
		}
		categoria, fecha = splitDetail(categoria, fecha)
		out = append(out, Variable{Monto: monto, Concepto: concepto, Categoria: categoria, Fecha: fecha})
	}
	amount := func(row int, col string) float64 {
		return w.cellAmount(sheet, g, row, col)
	}

	for r := variableFirstRow; r <= variableLastRow; r++ {
		add(amount(r, "H"), g.at(r, "I"), g.at(r, "J"), g.at(r, "K"))
	}
	if len(out) > 0 {
		return out, nil
	}

	for r := variableFirstRow; r <= variableLastRow; r++ {
		add(amount(r, "K"), g.at(r, "L"), "", g.at(r, "M"))
	}
	if len(out) > 0 {
		return out, nil
	}

	title := 0
	for r := 1; r <= len(g); r++ {
		if strings.Contains(strings.ToUpper(g.at(r, "A")), legacyTitle) {
			title = r
			break
		}
	}
	if title == 0 {
		return out, nil
	}
	for r := title + 2; r <= len(g); r++ {
		fecha, concepto, categoria, monto := g.at(r, "A"), g.at(r, "B"), g.at(r, "C"), g.at(r, "D")
		if fecha == "" && concepto == "" && categoria == "" && monto == "" && g.at(r, "E") == "" && g.at(r, "F") == "" {
			break
		}
		if strings.Contains(strings.ToUpper(fecha), exampleMarker) {
			continue
		}
		add(amount(r, "D"), concepto, categoria, fecha)
	}
	return out, nil
}

// cellAmount reads a money cell. Numeric cells hold a plain float in their
// raw value; text cells are read with the currency parser.
func (w *Workbook) cellAmount(sheet string, g grid, row int, col string) float64 {
	raw := strings.TrimSpace(g.at(row, col))
	if raw == "" {
		return math.NaN()
	}
	ref := fmt.Sprintf("%s%d", col, row)
	if typ, err := w.f.GetCellType(sheet, ref); err == nil && (typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber) {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return core.ParseCurrency(raw)
}

// splitDetail separates "categoria | fecha" written into the date column
// when no category is present.
func splitDetail(categoria, fecha string) (string, string) {
	categoria = strings.TrimSpace(categoria)
	fecha = strings.TrimSpace(fecha)
	if categoria == "" && strings.Contains(fecha, "|") {
		parts := strings.SplitN(fecha, "|", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return categoria, fecha
}
