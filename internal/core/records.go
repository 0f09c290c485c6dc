package core

import (
	"errors"
	"strings"
	"time"
)

// Variable expense states.
const (
	VariablePending = "pending"
	VariableSynced  = "synced"
	VariableFailed  = "failed"
)

var ErrEmptyConcept = errors.New("empty concept")

type (
	// VariableExpense is an ad-hoc expense waiting to be written to the
	// variable table of its month sheet.
	VariableExpense struct {
		ID        string    `json:"id"`
		Monto     float64   `json:"monto"`
		Concepto  string    `json:"concepto"`
		Categoria string    `json:"categoria"`
		Fecha     string    `json:"fecha"`
		Periodo   string    `json:"periodo"`
		Estado    string    `json:"estado"`
		Error     string    `json:"error,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		SyncedAt  time.Time `json:"synced_at,omitzero"`
	}

	// Revision is a saved copy of the config document.
	Revision struct {
		ID        int64     `json:"id"`
		Reason    string    `json:"reason"`
		Document  []byte    `json:"-"`
		CreatedAt time.Time `json:"created_at"`
	}

	// SyncRun records one workbook synchronization.
	SyncRun struct {
		ID                 string    `json:"id"`
		MonthMode          MonthMode `json:"month_mode"`
		HojaObjetivo       string    `json:"hoja_objetivo"`
		HojaCreada         bool      `json:"hoja_creada"`
		Enlace             string    `json:"enlace"`
		FileID             string    `json:"file_id"`
		IngresosExtraTotal float64   `json:"ingresos_extra_total"`
		StartedAt          time.Time `json:"started_at"`
		FinishedAt         time.Time `json:"finished_at"`
		Error              string    `json:"error,omitempty"`
	}
)

// Validate checks the user-provided fields of a variable expense.
func (v VariableExpense) Validate() error {
	if !IsFinite(v.Monto) || v.Monto <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(v.Concepto) == "" {
		return ErrEmptyConcept
	}
	if len(v.Concepto) > 200 {
		return errors.New("concept too long (max 200 characters)")
	}
	if v.Periodo != "" {
		if _, err := ParsePeriod(v.Periodo); err != nil {
			return err
		}
	}
	return nil
}

// Period returns the month the expense belongs to.
func (v VariableExpense) Period() Period {
	if p, err := ParsePeriod(v.Periodo); err == nil {
		return p
	}
	return PeriodOf(v.CreatedAt)
}
