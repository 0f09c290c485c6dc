package core

import "strings"

// MonthRecordFor returns the record stored for p, if any.
func MonthRecordFor(cfg Config, p Period) (MonthRecord, bool) {
	rec, ok := cfg.HistorialSaldos.SaldosMensuales[p.Key()]
	if !ok {
		rec, ok = cfg.HistorialSaldos.legacy[p.Key()]
	}
	return rec, ok
}

// StartOfMonthBalance picks the opening balance of p: the month's own
// saldo_inicial, else the previous month's saldo_final, else
// saldo_mes_anterior, else the current bank balance. Only positive
// values count.
func StartOfMonthBalance(cfg Config, p Period) float64 {
	if rec, ok := MonthRecordFor(cfg, p); ok && rec.SaldoInicial > 0 {
		return rec.SaldoInicial.Float()
	}
	if rec, ok := MonthRecordFor(cfg, p.Prev()); ok && rec.SaldoFinal > 0 {
		return rec.SaldoFinal.Float()
	}
	if cfg.HistorialSaldos.SaldoMesAnterior > 0 {
		return cfg.HistorialSaldos.SaldoMesAnterior.Float()
	}
	return cfg.SaldoBancario.ValorActual.Float()
}

// ExtraIncomeSummary is the positive extra income registered for a month.
type ExtraIncomeSummary struct {
	Entries []ExtraIncome `json:"entries"`
	Total   float64       `json:"total"`
	Count   int           `json:"count"`
}

// ExtraIncomesFor collects the extra income entries of p with a positive
// value. Blank concepts are reported as "Ingreso extra".
func ExtraIncomesFor(cfg Config, p Period) ExtraIncomeSummary {
	sum := ExtraIncomeSummary{Entries: []ExtraIncome{}}
	rec, ok := MonthRecordFor(cfg, p)
	if !ok {
		return sum
	}
	for _, e := range rec.IngresosExtra {
		if !IsFinite(e.Valor.Float()) || e.Valor <= 0 {
			continue
		}
		if strings.TrimSpace(e.Concepto) == "" {
			e.Concepto = "Ingreso extra"
		}
		sum.Entries = append(sum.Entries, e)
		sum.Total += e.Valor.Float()
		sum.Count++
	}
	return sum
}
