package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthNames are the Spanish month names used for sheet titles.
var MonthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a YYYY-MM key.
func ParsePeriod(key string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(key))
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", key, err)
	}
	return PeriodOf(t), nil
}

// Key is the YYYY-MM key used in saldos_mensuales.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// MonthName is the Spanish name of the month.
func (p Period) MonthName() string {
	if p.Month < time.January || p.Month > time.December {
		return ""
	}
	return MonthNames[p.Month-1]
}

// SheetName is the workbook sheet title, e.g. "Octubre 2026".
func (p Period) SheetName() string {
	return fmt.Sprintf("%s %d", p.MonthName(), p.Year)
}

func (p Period) String() string { return p.Key() }

// MonthMode selects which month a sync targets.
type MonthMode string

const (
	MonthActual    MonthMode = "actual"
	MonthSiguiente MonthMode = "siguiente"
)

// ParseMonthMode accepts "actual", "siguiente" or an empty string, which
// means "actual".
func ParseMonthMode(s string) (MonthMode, error) {
	switch MonthMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MonthActual:
		return MonthActual, nil
	case MonthSiguiente:
		return MonthSiguiente, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMonthMode, s)
}

// Target returns the month selected by m relative to now.
func (m MonthMode) Target(now time.Time) Period {
	p := PeriodOf(now)
	if m == MonthSiguiente {
		return p.Next()
	}
	return p
}
