package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	upcomingLimit     = 7
	flowSummaryLimit  = 4
	emptyFlowSummary  = "Sin elementos seleccionados"
	undefinedSchedule = "No definido"
)

// UpcomingPayment is a commitment shown in the upcoming payments list.
type UpcomingPayment struct {
	ID       string  `json:"id"`
	Concepto string  `json:"concepto"`
	Tipo     string  `json:"tipo"`
	Valor    float64 `json:"valor"`
	Fecha    string  `json:"fecha"`
	DiaCargo int     `json:"dia_cargo"`
}

// FlowTotals is the state of one cash-flow bucket.
type FlowTotals struct {
	Kind     FlowKind     `json:"kind"`
	Items    []Commitment `json:"items"`
	Total    float64      `json:"total"`
	Resumen  string       `json:"resumen"`
	Selected []string     `json:"selected"`
}

// Dashboard is the monthly overview computed from a config.
type Dashboard struct {
	Periodo              string             `json:"periodo"`
	Hoja                 string             `json:"hoja"`
	Sueldo               float64            `json:"sueldo"`
	IngresosExtra        ExtraIncomeSummary `json:"ingresos_extra"`
	IngresoTotal         float64            `json:"ingreso_total"`
	TotalGastos          float64            `json:"total_gastos"`
	TotalDeudas          float64            `json:"total_deudas"`
	Compromisos          float64            `json:"compromisos"`
	Ahorro               float64            `json:"ahorro"`
	PresupuestoVariables float64            `json:"presupuesto_variables"`
	Categorias           int                `json:"categorias"`
	SaldoInicioMes       float64            `json:"saldo_inicio_mes"`
	SaldoActual          float64            `json:"saldo_actual"`
	UltimaActualizacion  Timestamp          `json:"ultima_actualizacion"`
	Retiro               FlowTotals         `json:"retiro_efectivo"`
	Movii                FlowTotals         `json:"movii"`
	ProximosPagos        []UpcomingPayment  `json:"proximos_pagos"`
}

// Summarize computes the dashboard of cfg for the month containing now.
// Selections are reconciled on the fly; cfg is not modified.
func Summarize(cfg Config, now time.Time) Dashboard {
	p := PeriodOf(now)
	commitments := Commitments(cfg)

	var gastos, deudas float64
	for _, c := range commitments {
		if c.Tipo == TipoDeuda {
			deudas += c.Valor
		} else {
			gastos += c.Valor
		}
	}

	extras := ExtraIncomesFor(cfg, p)
	sueldo := cfg.Sueldo.ValorFijo.Float()
	ingreso := sueldo + extras.Total

	return Dashboard{
		Periodo:              p.Key(),
		Hoja:                 p.SheetName(),
		Sueldo:               sueldo,
		IngresosExtra:        extras,
		IngresoTotal:         ingreso,
		TotalGastos:          gastos,
		TotalDeudas:          deudas,
		Compromisos:          gastos + deudas,
		Ahorro:               ingreso - gastos - deudas,
		PresupuestoVariables: cfg.PresupuestoVariables.Float(),
		Categorias:           len(cfg.CategoriasGastos),
		SaldoInicioMes:       StartOfMonthBalance(cfg, p),
		SaldoActual:          cfg.SaldoBancario.ValorActual.Float(),
		UltimaActualizacion:  cfg.SaldoBancario.UltimaActualizacion,
		Retiro:               flowTotals(cfg, FlowRetiroEfectivo, commitments),
		Movii:                flowTotals(cfg, FlowMovii, commitments),
		ProximosPagos:        UpcomingPayments(cfg, upcomingLimit),
	}
}

// FlowTotalsFor reconciles the selection of kind and totals it.
func FlowTotalsFor(cfg Config, kind FlowKind) FlowTotals {
	return flowTotals(cfg, kind, Commitments(cfg))
}

func flowTotals(cfg Config, kind FlowKind, commitments []Commitment) FlowTotals {
	current, _ := cfg.FlujosEfectivo.Selection(kind)
	ids := ReconcileSelection(NormalizeSelection(current, kind), commitments)
	items := SelectedCommitments(ids, commitments)
	return FlowTotals{
		Kind:     kind,
		Items:    items,
		Total:    SelectionTotal(ids, commitments),
		Resumen:  FlowSummary(items),
		Selected: ids,
	}
}

// FlowSummary renders up to four concepts and a count of the rest.
func FlowSummary(items []Commitment) string {
	if len(items) == 0 {
		return emptyFlowSummary
	}
	n := min(len(items), flowSummaryLimit)
	names := make([]string, 0, n)
	for _, c := range items[:n] {
		names = append(names, c.Concepto)
	}
	out := strings.Join(names, ", ")
	if rest := len(items) - n; rest > 0 {
		out += fmt.Sprintf(" y %d mas", rest)
	}
	return out
}

// ScheduleLabel describes when a fixed item is charged.
func ScheduleLabel(item FixedItem) string {
	if item.DiaCargo > 0 {
		return fmt.Sprintf("Día %d", item.DiaCargo)
	}
	if f := strings.TrimSpace(item.Frecuencia); f != "" {
		return cases.Title(language.Spanish).String(f)
	}
	return undefinedSchedule
}

// UpcomingPayments lists fixed expenses and debts ordered by charge day
// (unset days count as day 1), limited to limit entries.
func UpcomingPayments(cfg Config, limit int) []UpcomingPayment {
	out := make([]UpcomingPayment, 0, len(cfg.GastosFijos)+len(cfg.DeudasFijas))
	add := func(items map[string]FixedItem, prefix, tipo string) {
		for key, item := range items {
			day := int(item.DiaCargo)
			if day < 1 {
				day = 1
			}
			valor := item.Valor.Float()
			if !IsFinite(valor) {
				valor = 0
			}
			out = append(out, UpcomingPayment{
				ID:       prefix + key,
				Concepto: FormatConcept(key),
				Tipo:     tipo,
				Valor:    valor,
				Fecha:    ScheduleLabel(item),
				DiaCargo: day,
			})
		}
	}
	add(cfg.GastosFijos, ExpensePrefix, TipoGastoFijo)
	add(cfg.DeudasFijas, DebtPrefix, TipoDeuda)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DiaCargo != out[j].DiaCargo {
			return out[i].DiaCargo < out[j].DiaCargo
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
