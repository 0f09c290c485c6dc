package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// DefaultCategories are the expense categories of a new document.
var DefaultCategories = []string{
	"Vivienda",
	"Alimentación",
	"Servicios",
	"Transporte",
	"Salud/Bienestar",
	"Entretenimiento",
	"Tecnología",
	"Compras",
	"Educación",
	"Otros",
	"Descuentos",
}

// DefaultConfig returns the document written when no configuration exists.
func DefaultConfig() Config {
	return Config{
		Sueldo:        Salary{ValorFijo: 4600000, Moneda: DefaultCurrency},
		SaldoBancario: BankBalance{Moneda: DefaultCurrency},
		HistorialSaldos: BalanceHistory{
			SaldosMensuales: map[string]MonthRecord{},
		},
		GastosFijos: map[string]FixedItem{
			"arriendo":                 {DiaCargo: 1, Categoria: "Vivienda"},
			"mercado_primera_quincena": {DiaCargo: 15, Categoria: "Alimentación"},
			"mercado_segunda_quincena": {DiaCargo: 30, Categoria: "Alimentación"},
			"servicio_gas":             {DiaCargo: 10, Categoria: "Servicios"},
			"descuento_quincenal":      {Valor: 5000, Frecuencia: "quincenal", Categoria: "Descuentos"},
			"gimnasio":                 {DiaCargo: 1, Categoria: "Salud/Bienestar"},
			"netflix":                  {DiaCargo: 5, Categoria: "Entretenimiento"},
			"movistar":                 {DiaCargo: 10, Categoria: "Servicios"},
			"youtube_premium":          {DiaCargo: 5, Categoria: "Entretenimiento"},
			"google_drive":             {DiaCargo: 1, Categoria: "Tecnología"},
			"gamepass":                 {DiaCargo: 15, Categoria: "Entretenimiento"},
			"mercadolibre":             {DiaCargo: 1, Categoria: "Compras"},
		},
		DeudasFijas: map[string]FixedItem{},
		FlujosEfectivo: CashFlows{
			RetiroEfectivoItems: DefaultSelection(FlowRetiroEfectivo),
			MoviiItems:          DefaultSelection(FlowMovii),
		},
		CategoriasGastos: slices.Clone(DefaultCategories),
		Automatizacion: Automation{
			HoraCreacionHoja: "00:01",
			FormatoFecha:     "YYYY-MM-DD",
		},
	}
}

// Normalize fills missing sections, migrates legacy month records and
// cleans the flow selections. It reports whether the result differs
// structurally from the input. It does not reconcile selections against
// commitments; see ReconcileFlows.
func Normalize(cfg Config) (Config, bool) {
	cfg = cfg.Clone()
	changed := false

	if cfg.GastosFijos == nil {
		cfg.GastosFijos = map[string]FixedItem{}
		changed = true
	}
	if cfg.DeudasFijas == nil {
		cfg.DeudasFijas = map[string]FixedItem{}
		changed = true
	}
	if cfg.CategoriasGastos == nil {
		cfg.CategoriasGastos = slices.Clone(DefaultCategories)
		changed = true
	}
	if cfg.Sueldo.Moneda == "" {
		cfg.Sueldo.Moneda = DefaultCurrency
		changed = true
	}
	if cfg.SaldoBancario.Moneda == "" {
		cfg.SaldoBancario.Moneda = DefaultCurrency
		changed = true
	}
	if cfg.HistorialSaldos.SaldosMensuales == nil {
		cfg.HistorialSaldos.SaldosMensuales = map[string]MonthRecord{}
		changed = true
	}
	if cfg.HistorialSaldos.HasLegacy() {
		cfg.HistorialSaldos = MigrateLegacyHistory(cfg.HistorialSaldos)
		changed = true
	}
	for month, rec := range cfg.HistorialSaldos.SaldosMensuales {
		if rec.IngresosExtra == nil {
			rec.IngresosExtra = []ExtraIncome{}
			cfg.HistorialSaldos.SaldosMensuales[month] = rec
		}
	}

	for _, kind := range FlowKinds() {
		current, _ := cfg.FlujosEfectivo.Selection(kind)
		normalized := NormalizeSelection(current, kind)
		if current == nil || !slices.Equal(current, normalized) {
			changed = true
		}
		_ = cfg.FlujosEfectivo.set(kind, normalized)
	}
	return cfg, changed
}

// MigrateLegacyHistory moves month records stored directly under the
// history object into SaldosMensuales. Months already present there win.
func MigrateLegacyHistory(h BalanceHistory) BalanceHistory {
	if h.SaldosMensuales == nil {
		h.SaldosMensuales = map[string]MonthRecord{}
	}
	for key, rec := range h.legacy {
		if _, exists := h.SaldosMensuales[key]; exists {
			continue
		}
		h.SaldosMensuales[key] = rec
	}
	h.legacy = nil
	return h
}

// Clone returns a deep copy of cfg.
func (cfg Config) Clone() Config {
	out := cfg
	out.GastosFijos = maps.Clone(cfg.GastosFijos)
	out.DeudasFijas = maps.Clone(cfg.DeudasFijas)
	out.CategoriasGastos = slices.Clone(cfg.CategoriasGastos)
	out.FlujosEfectivo.RetiroEfectivoItems = slices.Clone(cfg.FlujosEfectivo.RetiroEfectivoItems)
	out.FlujosEfectivo.MoviiItems = slices.Clone(cfg.FlujosEfectivo.MoviiItems)
	out.HistorialSaldos.legacy = maps.Clone(cfg.HistorialSaldos.legacy)
	if cfg.HistorialSaldos.SaldosMensuales != nil {
		out.HistorialSaldos.SaldosMensuales = make(map[string]MonthRecord, len(cfg.HistorialSaldos.SaldosMensuales))
		for k, rec := range cfg.HistorialSaldos.SaldosMensuales {
			rec.IngresosExtra = slices.Clone(rec.IngresosExtra)
			out.HistorialSaldos.SaldosMensuales[k] = rec
		}
	}
	return out
}

// DecodeConfig parses a config document. Unknown fields are ignored.
func DecodeConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// EncodeConfig renders cfg as two-space indented UTF-8 JSON.
func EncodeConfig(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
