package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseFlowKind(t *testing.T) {
	cases := []struct {
		in   string
		out  FlowKind
		fail bool
	}{
		{"retiro_efectivo_items", FlowRetiroEfectivo, false},
		{"retiro", FlowRetiroEfectivo, false},
		{"movii", FlowMovii, false},
		{"movii_items", FlowMovii, false},
		{"nequi", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFlowKind(tc.in)
		if tc.fail {
			if !errors.Is(err, ErrUnknownFlow) {
				t.Fatalf("%q expected ErrUnknownFlow, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestPeriod(t *testing.T) {
	p := PeriodOf(time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC))
	if p.Key() != "2026-12" || p.SheetName() != "Diciembre 2026" {
		t.Fatalf("unexpected period %s / %s", p.Key(), p.SheetName())
	}
	if next := p.Next(); next.Key() != "2027-01" || next.MonthName() != "Enero" {
		t.Fatalf("unexpected next %s", next.Key())
	}
	if prev := (Period{Year: 2026, Month: time.January}).Prev(); prev.Key() != "2025-12" {
		t.Fatalf("unexpected prev %s", prev.Key())
	}
	parsed, err := ParsePeriod("2024-03")
	if err != nil || parsed != (Period{Year: 2024, Month: time.March}) {
		t.Fatalf("unexpected parse %v (err=%v)", parsed, err)
	}
	if _, err := ParsePeriod("marzo"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMonthMode(t *testing.T) {
	now := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		in    string
		sheet string
		fail  bool
	}{
		{"", "Octubre 2026", false},
		{"actual", "Octubre 2026", false},
		{"Siguiente", "Noviembre 2026", false},
		{"anterior", "", true},
	}
	for _, tc := range cases {
		mode, err := ParseMonthMode(tc.in)
		if tc.fail {
			if !errors.Is(err, ErrInvalidMonthMode) {
				t.Fatalf("%q expected ErrInvalidMonthMode, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error %v", tc.in, err)
		}
		if got := mode.Target(now).SheetName(); got != tc.sheet {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.sheet, got)
		}
	}
}
