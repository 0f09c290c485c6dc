package core

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
)

var legacyMonthKey = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Amount is a monetary value. It decodes from JSON numbers and from
// numeric strings written with any separator convention; anything else
// decodes as zero.
type Amount float64

// Float returns the amount as a float64.
func (a Amount) Float() float64 { return float64(a) }

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(decodeNumber(data))
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	v := float64(a)
	if !IsFinite(v) {
		v = 0
	}
	return json.Marshal(v)
}

// Day is a day of the month. Zero means unset.
type Day int

func (d *Day) UnmarshalJSON(data []byte) error {
	v := decodeNumber(data)
	if v < 0 || v > 31 {
		v = 0
	}
	*d = Day(int(v))
	return nil
}

// decodeNumber reads a JSON number or numeric string. Invalid input is 0.
func decodeNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		v := ParseCurrency(s)
		if math.IsNaN(v) {
			return 0
		}
		return v
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal(data, &v); err != nil || !IsFinite(v) {
			return 0
		}
		return v
	}
	return 0
}

// Timestamp is an optional instant. The zero value encodes as null.
type Timestamp struct {
	time.Time
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp wraps t, truncated to milliseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(isoMillis))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// Selection is an ordered list of commitment ids. A nil Selection means the
// list was absent (or not a list) in the document; decoding drops
// non-string entries.
type Selection []string

func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*s = nil
		return nil
	}
	out := make(Selection, 0, len(raw))
	for _, item := range raw {
		var id string
		if err := json.Unmarshal(item, &id); err != nil {
			continue
		}
		out = append(out, id)
	}
	*s = out
	return nil
}

func (m *MonthRecord) UnmarshalJSON(data []byte) error {
	*m = MonthRecord{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	type plain MonthRecord
	var p struct {
		plain
		IngresosExtra json.RawMessage `json:"ingresos_extra"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MonthRecord(p.plain)
	m.IngresosExtra = decodeExtraIncomes(p.IngresosExtra)
	return nil
}

// decodeExtraIncomes keeps object entries of a list and ignores the rest.
func decodeExtraIncomes(data json.RawMessage) []ExtraIncome {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]ExtraIncome, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var e ExtraIncome
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (h *BalanceHistory) UnmarshalJSON(data []byte) error {
	*h = BalanceHistory{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["saldo_mes_anterior"]; ok {
		if err := json.Unmarshal(raw, &h.SaldoMesAnterior); err != nil {
			return err
		}
	}
	if raw, ok := fields["mes_anterior"]; ok {
		_ = json.Unmarshal(raw, &h.MesAnterior)
	}
	if raw, ok := fields["saldos_mensuales"]; ok {
		var months map[string]MonthRecord
		if err := json.Unmarshal(raw, &months); err == nil {
			h.SaldosMensuales = months
		}
	}

	for key, raw := range fields {
		if !legacyMonthKey.MatchString(key) {
			continue
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			// Non-object legacy entries are dropped.
			if h.legacy == nil {
				h.legacy = make(map[string]MonthRecord)
			}
			continue
		}
		var rec MonthRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			continue
		}
		if h.legacy == nil {
			h.legacy = make(map[string]MonthRecord)
		}
		h.legacy[key] = rec
	}
	return nil
}

// HasLegacy reports whether month records are still waiting to be migrated.
func (h BalanceHistory) HasLegacy() bool {
	return h.legacy != nil
}
