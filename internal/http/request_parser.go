package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gastos/internal/core"
)

const (
	maxBodyBytes     = 1 << 20
	maxDocumentBytes = 5 << 20
)

// errBadRequest marks client errors found while parsing a request.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, badRequest("cuerpo demasiado grande")
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// decodeJSON decodes the JSON body of r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r, maxBodyBytes)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return badRequest("cuerpo vacío")
	}
	return unmarshalBody(data, v)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r, maxBodyBytes)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return unmarshalBody(data, v)
}

// unmarshalBody keeps amount and day errors raised by the request fields
// so they map to their own status.
func unmarshalBody(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidDay):
		return err
	}
	return badRequest("JSON inválido: %v", err)
}

// pathIndex parses the URL parameter name as a non-negative index.
func pathIndex(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, raw)
	}
	return i, nil
}

// queryLimit reads ?limit= with a default and an upper bound.
func queryLimit(r *http.Request, def, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil || v <= 0 {
		return def
	}
	return min(v, max)
}

// amountField is a request amount: a JSON number, or a string the
// currency parser accepts. null and an absent field leave it unset.
type amountField struct {
	value float64
	set   bool
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	*a = amountField{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return core.ErrInvalidAmount
		}
		v, err := core.ParseAmount(raw)
		if err != nil {
			return fmt.Errorf("%q: %w", raw, err)
		}
		*a = amountField{value: v, set: true}
		return nil
	}
	// JSON numbers use "." as the decimal point, never as a separator.
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%s: %w", data, core.ErrInvalidAmount)
	}
	v, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || !core.IsFinite(v) {
		return fmt.Errorf("%s: %w", data, core.ErrInvalidAmount)
	}
	*a = amountField{value: v, set: true}
	return nil
}

// required returns the amount, failing when the field was not sent.
func (a amountField) required(field string) (float64, error) {
	if !a.set {
		return 0, fmt.Errorf("%s: %w", field, core.ErrInvalidAmount)
	}
	return a.value, nil
}

// optional returns a pointer to the amount, nil when it was not sent.
func (a amountField) optional() *float64 {
	if !a.set {
		return nil
	}
	v := a.value
	return &v
}

// dayField is a request day of the month. Whole numbers pass through
// unchanged so range errors come from the mutation; anything else fails.
type dayField int

func (d *dayField) UnmarshalJSON(data []byte) error {
	*d = 0
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var a amountField
	if err := a.UnmarshalJSON(data); err != nil || a.value != math.Trunc(a.value) || math.Abs(a.value) > math.MaxInt32 {
		return fmt.Errorf("%s: %w", bytes.TrimSpace(data), core.ErrInvalidDay)
	}
	*d = dayField(a.value)
	return nil
}

type (
	salaryRequest struct {
		Nombre               *string     `json:"nombre"`
		ValorFijo            amountField `json:"valor_fijo"`
		PresupuestoVariables amountField `json:"presupuesto_variables"`
	}

	fixedItemRequest struct {
		Nombre         string      `json:"nombre"`
		NombreOriginal string      `json:"nombre_original"`
		Valor          amountField `json:"valor"`
		Categoria      string      `json:"categoria"`
		Tipo           string      `json:"tipo"`
		DiaCargo       dayField    `json:"dia_cargo"`
		Frecuencia     string      `json:"frecuencia"`
		Detalle        string      `json:"detalle"`
	}

	toggleRequest struct {
		ID       string `json:"id"`
		Selected bool   `json:"selected"`
	}

	categoryRequest struct {
		Nombre string `json:"nombre"`
	}

	balanceRequest struct {
		SaldoInicio amountField `json:"saldo_inicio"`
		SaldoActual amountField `json:"saldo_actual"`
		Notas       string      `json:"notas"`
	}

	extraIncomeRequest struct {
		Concepto string      `json:"concepto"`
		Valor    amountField `json:"valor"`
	}

	syncRequest struct {
		MonthMode string `json:"month_mode"`
		Async     bool   `json:"async"`
	}

	variableRequest struct {
		Monto     amountField `json:"monto"`
		Concepto  string      `json:"concepto"`
		Categoria string      `json:"categoria"`
		Fecha     string      `json:"fecha"`
	}
)

func (r fixedItemRequest) input() (core.FixedItemInput, error) {
	valor, err := r.Valor.required("valor")
	if err != nil {
		return core.FixedItemInput{}, err
	}
	return core.FixedItemInput{
		Nombre:         sanitizeInput(r.Nombre),
		NombreOriginal: sanitizeInput(r.NombreOriginal),
		Valor:          valor,
		Categoria:      sanitizeInput(r.Categoria),
		Tipo:           r.Tipo,
		DiaCargo:       int(r.DiaCargo),
		Frecuencia:     sanitizeInput(r.Frecuencia),
		Detalle:        sanitizeInput(r.Detalle),
	}, nil
}
