// Package core holds the finance domain: the persisted configuration
// document, the currency parser, commitment derivation, cash-flow
// selection reconciliation and the pure mutations applied to a config.
//
// Nothing in this package performs I/O. Callers own the Config value and
// pass it explicitly to every function.
package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumericChars = regexp.MustCompile(`[^\d.,-]`)
	groupedInteger  = regexp.MustCompile(`^-?\d{1,3}([.,]\d{3})+$`)
	dotThousands    = regexp.MustCompile(`^-?\d+\.\d{3}$`)
)

// ParseCurrency converts a free-form, locale-ambiguous amount string into
// a number. It returns NaN when no number can be recovered.
//
// Currency symbols, spaces and letters are ignored. Separators are
// disambiguated heuristically:
//
//	ParseCurrency("1.234.567")   -> 1234567  (thousands groups)
//	ParseCurrency("1.234,56")    -> 1234.56  (last separator is decimal)
//	ParseCurrency("1,234.56")    -> 1234.56
//	ParseCurrency("12,5")        -> 12.5     (lone comma is decimal)
//	ParseCurrency("1234.567")    -> 1234567  (dot + three digits is thousands)
//	ParseCurrency("$ 4.600.000") -> 4600000
//	ParseCurrency("")            -> NaN
func ParseCurrency(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN()
	}

	sanitized := nonNumericChars.ReplaceAllString(raw, "")
	if sanitized == "" {
		return math.NaN()
	}

	if groupedInteger.MatchString(sanitized) {
		return parseFinite(strings.NewReplacer(".", "", ",", "").Replace(sanitized))
	}

	normalized := sanitized
	hasComma := strings.Contains(sanitized, ",")
	hasDot := strings.Contains(sanitized, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(sanitized, ",") > strings.LastIndex(sanitized, ".") {
			normalized = strings.ReplaceAll(normalized, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		} else {
			normalized = strings.ReplaceAll(normalized, ",", "")
		}
	case hasComma:
		normalized = strings.Replace(normalized, ",", ".", 1)
	case dotThousands.MatchString(sanitized):
		normalized = strings.Replace(normalized, ".", "", 1)
	}

	if v := parseFinite(normalized); !math.IsNaN(v) {
		return v
	}
	return parseFinite(digitsOnly(sanitized))
}

// ParseAmount is ParseCurrency with an error return for callers that
// validate input.
func ParseAmount(raw string) (float64, error) {
	v := ParseCurrency(raw)
	if math.IsNaN(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseFinite(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(v) {
		return math.NaN()
	}
	return v
}

// digitsOnly keeps the digits of s and a leading minus sign.
func digitsOnly(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	if b.String() == "-" {
		return ""
	}
	return b.String()
}
