package core

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

const legacyDocument = `{
  "usuario": {"nombre": "Ana"},
  "sueldo": {"valor_fijo": "4.600.000", "moneda": "COP"},
  "historial_saldos": {
    "saldo_mes_anterior": 1000,
    "mes_anterior": "Diciembre 2023",
    "saldos_mensuales": {
      "2024-02": {"saldo_inicial": 5, "saldo_final": 6, "ingresos_extra": [{"concepto": "bono", "valor": 10}]}
    },
    "2024-01": {"saldo_inicial": 100, "saldo_final": 200},
    "2024-02": {"saldo_inicial": 999},
    "2023-12": "not a record"
  },
  "gastos_fijos": {
    "arriendo": {"valor": 1200000, "dia_cargo": 1, "categoria": "Vivienda"},
    "descuento_quincenal": {"valor": "5.000", "frecuencia": "quincenal"}
  },
  "flujos_efectivo": {
    "retiro_efectivo_items": ["Arriendo", 7, "", "gasto:arriendo"],
    "movii_items": "no es lista"
  },
  "campo_desconocido": true
}`

func TestDecodeAndNormalizeLegacyDocument(t *testing.T) {
	cfg, err := DecodeConfig([]byte(legacyDocument))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Sueldo.ValorFijo != 4600000 {
		t.Fatalf("expected salary 4600000, got %v", cfg.Sueldo.ValorFijo)
	}
	if cfg.GastosFijos["descuento_quincenal"].Valor != 5000 {
		t.Fatalf("expected string amount to parse, got %v", cfg.GastosFijos["descuento_quincenal"].Valor)
	}
	if !cfg.HistorialSaldos.HasLegacy() {
		t.Fatalf("expected legacy months detected")
	}

	norm, changed := Normalize(cfg)
	if !changed {
		t.Fatalf("expected normalization to report a change")
	}
	months := norm.HistorialSaldos.SaldosMensuales
	if months["2024-01"].SaldoFinal != 200 {
		t.Fatalf("legacy month not migrated: %+v", months["2024-01"])
	}
	if months["2024-02"].SaldoInicial != 5 {
		t.Fatalf("existing month must not be overwritten: %+v", months["2024-02"])
	}
	if _, ok := months["2023-12"]; ok {
		t.Fatalf("non-object legacy entry must be dropped")
	}
	if norm.HistorialSaldos.HasLegacy() {
		t.Fatalf("legacy keys must be cleared")
	}
	if !slices.Equal(norm.FlujosEfectivo.RetiroEfectivoItems, Selection{"Arriendo", "gasto:arriendo"}) {
		t.Fatalf("unexpected retiro %v", norm.FlujosEfectivo.RetiroEfectivoItems)
	}
	if !slices.Equal(norm.FlujosEfectivo.MoviiItems, Selection(DefaultMoviiItems)) {
		t.Fatalf("expected default movii items, got %v", norm.FlujosEfectivo.MoviiItems)
	}
	if norm.DeudasFijas == nil || norm.CategoriasGastos == nil {
		t.Fatalf("missing sections must be filled")
	}

	data, err := EncodeConfig(norm)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	var hist map[string]json.RawMessage
	if err := json.Unmarshal(top["historial_saldos"], &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	for key := range hist {
		if legacyMonthKey.MatchString(key) {
			t.Fatalf("legacy key %q still at top level", key)
		}
	}
	if _, ok := top["campo_desconocido"]; ok {
		t.Fatalf("unknown fields are not preserved")
	}
}

func TestNormalizeIsStable(t *testing.T) {
	cfg, _ := Normalize(DefaultConfig())
	if _, changed := Normalize(cfg); changed {
		t.Fatalf("normalizing a normalized config must not change it")
	}
}

func TestEncodeConfigFormatting(t *testing.T) {
	data, err := EncodeConfig(DefaultConfig())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "\n  \"usuario\": {") {
		t.Fatalf("expected two-space indentation, got %s", s[:40])
	}
	if !strings.Contains(s, "Alimentación") {
		t.Fatalf("expected UTF-8 output without escapes")
	}
	if !strings.Contains(s, `"ultima_actualizacion": null`) {
		t.Fatalf("expected null timestamp")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.GastosFijos) != 12 {
		t.Fatalf("expected 12 default expenses, got %d", len(cfg.GastosFijos))
	}
	if cfg.GastosFijos["descuento_quincenal"].Frecuencia != "quincenal" {
		t.Fatalf("unexpected descuento_quincenal %+v", cfg.GastosFijos["descuento_quincenal"])
	}
	if len(cfg.CategoriasGastos) != 11 || cfg.Sueldo.ValorFijo != 4600000 {
		t.Fatalf("unexpected defaults")
	}
	other := DefaultConfig()
	other.CategoriasGastos[0] = "changed"
	if cfg.CategoriasGastos[0] != "Vivienda" {
		t.Fatalf("defaults must not share slices")
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg, _ := Normalize(DefaultConfig())
	cfg.HistorialSaldos.SaldosMensuales["2026-10"] = MonthRecord{IngresosExtra: []ExtraIncome{{Concepto: "a", Valor: 1}}}

	c := cfg.Clone()
	c.GastosFijos["nuevo"] = FixedItem{}
	c.FlujosEfectivo.MoviiItems[0] = "x"
	c.HistorialSaldos.SaldosMensuales["2026-10"].IngresosExtra[0].Concepto = "b"

	if _, ok := cfg.GastosFijos["nuevo"]; ok {
		t.Fatalf("map shared")
	}
	if cfg.FlujosEfectivo.MoviiItems[0] == "x" {
		t.Fatalf("selection shared")
	}
	if cfg.HistorialSaldos.SaldosMensuales["2026-10"].IngresosExtra[0].Concepto != "a" {
		t.Fatalf("extra incomes shared")
	}
}

func TestTimestampDecoding(t *testing.T) {
	cases := []string{
		`"2024-01-02T03:04:05.678Z"`,
		`"2024-01-02T03:04:05.123456"`,
		`"2024-01-02"`,
	}
	for _, in := range cases {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil || ts.IsZero() {
			t.Fatalf("%s: expected parsed timestamp (err=%v)", in, err)
		}
	}
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"ayer"`), &ts); err != nil || !ts.IsZero() {
		t.Fatalf("invalid timestamp must decode as zero")
	}
}
