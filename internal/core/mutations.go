package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Every mutation takes the current config by value and returns the
// updated copy. The input is never modified, so a rejected mutation
// leaves the caller's state as it was.

type (
	SalaryInput struct {
		Nombre               string  `json:"nombre"`
		ValorFijo            float64 `json:"valor_fijo"`
		PresupuestoVariables float64 `json:"presupuesto_variables"`
	}

	// FixedItemInput describes a fixed expense or debt to create or
	// replace. NombreOriginal is the key being edited; when it differs from
	// the normalized Nombre the old entry is removed.
	FixedItemInput struct {
		Nombre         string  `json:"nombre"`
		NombreOriginal string  `json:"nombre_original"`
		Valor          float64 `json:"valor"`
		Categoria      string  `json:"categoria"`
		Tipo           string  `json:"tipo"`
		DiaCargo       int     `json:"dia_cargo"`
		Frecuencia     string  `json:"frecuencia"`
		Detalle        string  `json:"detalle"`
	}

	BankBalanceInput struct {
		SaldoInicio float64 `json:"saldo_inicio"`
		SaldoActual float64 `json:"saldo_actual"`
		Notas       string  `json:"notas"`
	}
)

// Charge schedule types of a FixedItemInput.
const (
	ScheduleDay       = "dia"
	ScheduleFrequency = "frecuencia"
)

func validNonNegative(v float64) bool {
	return IsFinite(v) && v >= 0
}

// SetSalary updates the user name, fixed salary and variable budget.
func SetSalary(cfg Config, in SalaryInput) (Config, error) {
	if !validNonNegative(in.ValorFijo) || !validNonNegative(in.PresupuestoVariables) {
		return cfg, ErrInvalidAmount
	}
	cfg = cfg.Clone()
	cfg.Usuario.Nombre = strings.TrimSpace(in.Nombre)
	cfg.Sueldo.ValorFijo = Amount(in.ValorFijo)
	if cfg.Sueldo.Moneda == "" {
		cfg.Sueldo.Moneda = DefaultCurrency
	}
	cfg.PresupuestoVariables = Amount(in.PresupuestoVariables)
	return cfg, nil
}

func buildFixedItem(in FixedItemInput, withDetail bool) (string, FixedItem, error) {
	key := NormalizeKey(in.Nombre)
	if key == "" {
		return "", FixedItem{}, ErrEmptyName
	}
	if !validNonNegative(in.Valor) {
		return "", FixedItem{}, ErrInvalidAmount
	}
	item := FixedItem{Valor: Amount(in.Valor), Categoria: strings.TrimSpace(in.Categoria)}
	if withDetail {
		item.Detalle = strings.TrimSpace(in.Detalle)
	}
	if in.Tipo == ScheduleFrequency {
		item.Frecuencia = strings.TrimSpace(in.Frecuencia)
		if item.Frecuencia == "" {
			item.Frecuencia = "mensual"
		}
		return key, item, nil
	}
	day := in.DiaCargo
	if day < 0 || day > 31 {
		return "", FixedItem{}, ErrInvalidDay
	}
	if day == 0 {
		day = 1
	}
	item.DiaCargo = Day(day)
	return key, item, nil
}

func upsertFixed(items map[string]FixedItem, in FixedItemInput, withDetail bool) (map[string]FixedItem, error) {
	key, item, err := buildFixedItem(in, withDetail)
	if err != nil {
		return items, err
	}
	if items == nil {
		items = map[string]FixedItem{}
	}
	if orig := NormalizeKey(in.NombreOriginal); orig != "" && orig != key {
		delete(items, orig)
	}
	items[key] = item
	return items, nil
}

// UpsertExpense creates or replaces a fixed expense.
func UpsertExpense(cfg Config, in FixedItemInput) (Config, error) {
	cfg = cfg.Clone()
	items, err := upsertFixed(cfg.GastosFijos, in, false)
	if err != nil {
		return cfg, fmt.Errorf("upsert expense: %w", err)
	}
	cfg.GastosFijos = items
	return cfg, nil
}

// UpsertDebt creates or replaces a fixed debt.
func UpsertDebt(cfg Config, in FixedItemInput) (Config, error) {
	cfg = cfg.Clone()
	items, err := upsertFixed(cfg.DeudasFijas, in, true)
	if err != nil {
		return cfg, fmt.Errorf("upsert debt: %w", err)
	}
	cfg.DeudasFijas = items
	return cfg, nil
}

// DeleteExpense removes a fixed expense by key.
func DeleteExpense(cfg Config, key string) (Config, error) {
	if _, ok := cfg.GastosFijos[key]; !ok {
		return cfg, fmt.Errorf("expense %q: %w", key, ErrNotFound)
	}
	cfg = cfg.Clone()
	delete(cfg.GastosFijos, key)
	return cfg, nil
}

// DeleteDebt removes a fixed debt by key.
func DeleteDebt(cfg Config, key string) (Config, error) {
	if _, ok := cfg.DeudasFijas[key]; !ok {
		return cfg, fmt.Errorf("debt %q: %w", key, ErrNotFound)
	}
	cfg = cfg.Clone()
	delete(cfg.DeudasFijas, key)
	return cfg, nil
}

// ToggleFlow adds or removes a commitment from the selection of kind.
func ToggleFlow(cfg Config, kind FlowKind, id string, selected bool, now time.Time) (Config, error) {
	current, err := cfg.FlujosEfectivo.Selection(kind)
	if err != nil {
		return cfg, err
	}
	resolved := ResolveCommitmentID(id, IndexCommitments(Commitments(cfg)))
	if resolved == "" {
		return cfg, fmt.Errorf("commitment %q: %w", id, ErrNotFound)
	}

	next := slices.DeleteFunc(slices.Clone(current), func(s string) bool { return s == resolved })
	if selected {
		next = append(next, resolved)
	}

	cfg = cfg.Clone()
	if err := cfg.FlujosEfectivo.set(kind, next); err != nil {
		return cfg, err
	}
	cfg.FlujosEfectivo.ActualizadoEn = NewTimestamp(now)
	return cfg, nil
}

// AddCategory appends a new expense category.
func AddCategory(cfg Config, name string) (Config, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return cfg, ErrEmptyName
	}
	if slices.Contains(cfg.CategoriasGastos, name) {
		return cfg, fmt.Errorf("category %q: %w", name, ErrDuplicateName)
	}
	cfg = cfg.Clone()
	cfg.CategoriasGastos = append(cfg.CategoriasGastos, name)
	return cfg, nil
}

// RenameCategory replaces the category at index.
func RenameCategory(cfg Config, index int, name string) (Config, error) {
	if index < 0 || index >= len(cfg.CategoriasGastos) {
		return cfg, ErrIndexOutOfRange
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return cfg, ErrEmptyName
	}
	cfg = cfg.Clone()
	cfg.CategoriasGastos[index] = name
	return cfg, nil
}

// DeleteCategory removes the category at index.
func DeleteCategory(cfg Config, index int) (Config, error) {
	if index < 0 || index >= len(cfg.CategoriasGastos) {
		return cfg, ErrIndexOutOfRange
	}
	cfg = cfg.Clone()
	cfg.CategoriasGastos = slices.Delete(cfg.CategoriasGastos, index, index+1)
	return cfg, nil
}

// UpdateBankBalance records the opening and current balance of the month
// containing now. Extra income already registered for the month is kept.
func UpdateBankBalance(cfg Config, in BankBalanceInput, now time.Time) (Config, error) {
	if !IsFinite(in.SaldoInicio) || !IsFinite(in.SaldoActual) {
		return cfg, ErrInvalidAmount
	}
	if in.SaldoInicio < 0 || in.SaldoActual < 0 {
		return cfg, ErrNegativeBalance
	}

	cfg = cfg.Clone()
	ts := NewTimestamp(now)
	cfg.SaldoBancario.ValorActual = Amount(in.SaldoActual)
	cfg.SaldoBancario.Moneda = DefaultCurrency
	cfg.SaldoBancario.UltimaActualizacion = ts
	cfg.SaldoBancario.Notas = in.Notas

	hist := &cfg.HistorialSaldos
	if hist.SaldosMensuales == nil {
		hist.SaldosMensuales = map[string]MonthRecord{}
	}
	p := PeriodOf(now)
	if hist.MesAnterior == "" {
		hist.MesAnterior = p.Prev().SheetName()
	}

	rec := hist.SaldosMensuales[p.Key()]
	rec.SaldoInicial = Amount(in.SaldoInicio)
	rec.SaldoFinal = Amount(in.SaldoActual)
	rec.Diferencia = Amount(in.SaldoActual - in.SaldoInicio)
	rec.FechaActualizacion = ts
	rec.Notas = in.Notas
	if rec.IngresosExtra == nil {
		rec.IngresosExtra = []ExtraIncome{}
	}
	hist.SaldosMensuales[p.Key()] = rec
	hist.SaldoMesAnterior = Amount(in.SaldoInicio)
	return cfg, nil
}

// AddExtraIncome appends an extra income entry to the month containing now.
func AddExtraIncome(cfg Config, concepto string, valor float64, now time.Time) (Config, error) {
	concepto = strings.TrimSpace(concepto)
	if concepto == "" {
		return cfg, ErrEmptyName
	}
	if !IsFinite(valor) || valor <= 0 {
		return cfg, ErrInvalidAmount
	}

	cfg = cfg.Clone()
	if cfg.HistorialSaldos.SaldosMensuales == nil {
		cfg.HistorialSaldos.SaldosMensuales = map[string]MonthRecord{}
	}
	key := PeriodOf(now).Key()
	rec := cfg.HistorialSaldos.SaldosMensuales[key]
	rec.IngresosExtra = append(rec.IngresosExtra, ExtraIncome{
		Concepto:      concepto,
		Valor:         Amount(valor),
		FechaRegistro: NewTimestamp(now),
	})
	cfg.HistorialSaldos.SaldosMensuales[key] = rec
	return cfg, nil
}

// RemoveExtraIncome deletes the extra income at index from the month
// containing now.
func RemoveExtraIncome(cfg Config, index int, now time.Time) (Config, error) {
	key := PeriodOf(now).Key()
	rec, ok := cfg.HistorialSaldos.SaldosMensuales[key]
	if !ok || index < 0 || index >= len(rec.IngresosExtra) {
		return cfg, ErrIndexOutOfRange
	}
	cfg = cfg.Clone()
	rec = cfg.HistorialSaldos.SaldosMensuales[key]
	rec.IngresosExtra = slices.Delete(rec.IngresosExtra, index, index+1)
	cfg.HistorialSaldos.SaldosMensuales[key] = rec
	return cfg, nil
}

// SetDriveFile stores the ids of the synchronized workbook and its folder.
// Empty arguments leave the stored value unchanged.
func SetDriveFile(cfg Config, fileID, folderID string) Config {
	cfg = cfg.Clone()
	if fileID != "" {
		cfg.GoogleDrive.ArchivoExcelID = fileID
	}
	if folderID != "" {
		cfg.GoogleDrive.CarpetaBackupID = folderID
	}
	return cfg
}
