package core

import (
	"errors"
	"math"
	"testing"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1.234.567", 1234567, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"1,234,567", 1234567, true},
		{"1.234", 1234, true},
		{"1234.567", 1234567, true},
		{"1234.5", 1234.5, true},
		{"12,5", 12.5, true},
		{"$ 4.600.000", 4600000, true},
		{"COP 350.000,50", 350000.50, true},
		{"-1.234", -1234, true},
		{"  250000 ", 250000, true},
		{"1.2.3", 123, true},   // not a number, falls back to digits
		{"1,2,3", 123, true},   // only the first comma becomes a decimal point
		{"12-3", 123, true},    // inner signs are dropped on fallback
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{".", 0, false},
	}
	for _, tc := range cases {
		got := ParseCurrency(tc.in)
		if !tc.ok {
			if !math.IsNaN(got) {
				t.Fatalf("%q expected NaN, got %v", tc.in, got)
			}
			continue
		}
		if math.Abs(got-tc.out) > 1e-9 {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1.234,56")
	if err != nil || v != 1234.56 {
		t.Fatalf("expected 1234.56, got %v (err=%v)", v, err)
	}
	if _, err := ParseAmount("sin valor"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAmountUnmarshal(t *testing.T) {
	cases := []struct {
		in  string
		out Amount
	}{
		{`1500`, 1500},
		{`"1.500"`, 1500},
		{`"$ 2.300,50"`, 2300.50},
		{`"n/a"`, 0},
		{`null`, 0},
		{`true`, 0},
		{`{}`, 0},
	}
	for _, tc := range cases {
		var a Amount
		if err := a.UnmarshalJSON([]byte(tc.in)); err != nil {
			t.Fatalf("%s unexpected error: %v", tc.in, err)
		}
		if a != tc.out {
			t.Fatalf("%s expected %v, got %v", tc.in, tc.out, a)
		}
	}
}
