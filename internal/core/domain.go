package core

import (
	"errors"
)

// Commitment kinds as they appear in commitment ids and in the dashboard.
const (
	ExpensePrefix = "gasto:"
	DebtPrefix    = "deuda:"

	TipoGastoFijo = "Gasto fijo"
	TipoDeuda     = "Deuda"

	DefaultCurrency = "COP"
)

// Flow kinds of cash-flow selections.
const (
	FlowRetiroEfectivo FlowKind = "retiro_efectivo_items"
	FlowMovii          FlowKind = "movii_items"
)

type (
	// FlowKind names a money-movement bucket that a selection of
	// commitments is attributed to.
	FlowKind string

	User struct {
		Nombre string `json:"nombre"`
	}

	Salary struct {
		ValorFijo Amount `json:"valor_fijo"`
		Moneda    string `json:"moneda"`
	}

	BankBalance struct {
		ValorActual         Amount    `json:"valor_actual"`
		Moneda              string    `json:"moneda"`
		UltimaActualizacion Timestamp `json:"ultima_actualizacion"`
		Notas               string    `json:"notas"`
	}

	// FixedItem is a configured fixed expense or debt. It is charged either
	// on a day of the month or with a named frequency.
	FixedItem struct {
		Valor      Amount `json:"valor"`
		DiaCargo   Day    `json:"dia_cargo,omitempty"`
		Frecuencia string `json:"frecuencia,omitempty"`
		Categoria  string `json:"categoria,omitempty"`
		Detalle    string `json:"detalle,omitempty"`
	}

	// ExtraIncome is a one-off income registered for a month.
	ExtraIncome struct {
		Concepto      string    `json:"concepto"`
		Valor         Amount    `json:"valor"`
		FechaRegistro Timestamp `json:"fecha_registro"`
	}

	// MonthRecord is the balance snapshot kept per YYYY-MM.
	MonthRecord struct {
		SaldoInicial       Amount        `json:"saldo_inicial"`
		SaldoFinal         Amount        `json:"saldo_final"`
		Diferencia         Amount        `json:"diferencia"`
		FechaActualizacion Timestamp     `json:"fecha_actualizacion"`
		Notas              string        `json:"notas"`
		IngresosExtra      []ExtraIncome `json:"ingresos_extra"`
	}

	// BalanceHistory holds month records. Month records found directly
	// under the history object (an older layout) are kept aside on decode
	// until MigrateLegacyHistory moves them into SaldosMensuales.
	BalanceHistory struct {
		SaldoMesAnterior Amount                 `json:"saldo_mes_anterior"`
		MesAnterior      string                 `json:"mes_anterior"`
		SaldosMensuales  map[string]MonthRecord `json:"saldos_mensuales"`

		legacy map[string]MonthRecord
	}

	CashFlows struct {
		RetiroEfectivoItems Selection `json:"retiro_efectivo_items"`
		MoviiItems          Selection `json:"movii_items"`
		ActualizadoEn       Timestamp `json:"actualizado_en"`
	}

	DriveSettings struct {
		ArchivoExcelID  string `json:"archivo_excel_id"`
		CarpetaBackupID string `json:"carpeta_backup_id"`
	}

	WhatsAppSettings struct {
		NumeroBot     string `json:"numero_bot"`
		NumeroUsuario string `json:"numero_usuario"`
	}

	Automation struct {
		HoraCreacionHoja string `json:"hora_creacion_hoja"`
		FormatoFecha     string `json:"formato_fecha"`
	}

	// Config is the persisted configuration document.
	Config struct {
		Usuario              User                 `json:"usuario"`
		Sueldo               Salary               `json:"sueldo"`
		PresupuestoVariables Amount               `json:"presupuesto_variables"`
		SaldoBancario        BankBalance          `json:"saldo_bancario"`
		HistorialSaldos      BalanceHistory       `json:"historial_saldos"`
		GastosFijos          map[string]FixedItem `json:"gastos_fijos"`
		DeudasFijas          map[string]FixedItem `json:"deudas_fijas"`
		FlujosEfectivo       CashFlows            `json:"flujos_efectivo"`
		CategoriasGastos     []string             `json:"categorias_gastos"`
		GoogleDrive          DriveSettings        `json:"google_drive"`
		WhatsApp             WhatsAppSettings     `json:"whatsapp"`
		Automatizacion       Automation           `json:"automatizacion"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDay       = errors.New("invalid day")
	ErrEmptyName        = errors.New("empty name")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNegativeBalance  = errors.New("balance cannot be negative")
	ErrInvalidMonthMode = errors.New("invalid month mode")
	ErrUnknownFlow      = errors.New("unknown flow kind")
	ErrNotFound         = errors.New("not found")
)

// Selection returns the selection stored for kind.
func (f CashFlows) Selection(kind FlowKind) (Selection, error) {
	switch kind {
	case FlowRetiroEfectivo:
		return f.RetiroEfectivoItems, nil
	case FlowMovii:
		return f.MoviiItems, nil
	}
	return nil, ErrUnknownFlow
}

func (f *CashFlows) set(kind FlowKind, s Selection) error {
	switch kind {
	case FlowRetiroEfectivo:
		f.RetiroEfectivoItems = s
	case FlowMovii:
		f.MoviiItems = s
	default:
		return ErrUnknownFlow
	}
	return nil
}

// FlowKinds lists every known flow kind in display order.
func FlowKinds() []FlowKind {
	return []FlowKind{FlowRetiroEfectivo, FlowMovii}
}

// ParseFlowKind accepts the persisted key or its short form.
func ParseFlowKind(s string) (FlowKind, error) {
	switch s {
	case string(FlowRetiroEfectivo), "retiro", "retiro_efectivo":
		return FlowRetiroEfectivo, nil
	case string(FlowMovii), "movii":
		return FlowMovii, nil
	}
	return "", ErrUnknownFlow
}
