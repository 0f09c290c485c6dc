package core

import (
	"slices"
	"testing"
)

func sampleCommitments() []Commitment {
	cfg := Config{
		GastosFijos: map[string]FixedItem{
			"arriendo":        {Valor: 1200000, DiaCargo: 1},
			"netflix":         {Valor: 38900, DiaCargo: 5},
			"youtube_premium": {Valor: 26900, DiaCargo: 5},
		},
		DeudasFijas: map[string]FixedItem{
			"tarjeta_credito": {Valor: 450000, DiaCargo: 20},
			"netflix":         {Valor: 1, DiaCargo: 2},
		},
	}
	return Commitments(cfg)
}

func TestReconcileSelection(t *testing.T) {
	commitments := sampleCommitments()
	cases := []struct {
		name string
		in   []string
		out  []string
	}{
		{"verbatim ids kept", []string{"gasto:netflix", "deuda:tarjeta_credito"}, []string{"gasto:netflix", "deuda:tarjeta_credito"}},
		{"legacy key resolves to expense", []string{"Arriendo"}, []string{"gasto:arriendo"}},
		{"legacy key with spaces", []string{"  YouTube Premium "}, []string{"gasto:youtube_premium"}},
		{"expense wins over debt", []string{"netflix"}, []string{"gasto:netflix"}},
		{"legacy debt", []string{"tarjeta credito"}, []string{"deuda:tarjeta_credito"}},
		{"unknown dropped", []string{"gasto:hbo_max", "gimnasio"}, []string{}},
		{"blank dropped", []string{"", "   "}, []string{}},
		{"duplicates removed in order", []string{"arriendo", "gasto:netflix", "gasto:arriendo", "Netflix"}, []string{"gasto:arriendo", "gasto:netflix"}},
		{"nil input", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ReconcileSelection(tc.in, commitments)
			if got == nil {
				t.Fatalf("expected non-nil result")
			}
			if !slices.Equal(got, tc.out) {
				t.Fatalf("expected %v, got %v", tc.out, got)
			}
		})
	}
}

func TestReconcileSelectionIdempotent(t *testing.T) {
	commitments := sampleCommitments()
	inputs := [][]string{
		{"Arriendo", "netflix", "gasto:netflix", "deuda:tarjeta_credito", "borrado"},
		{"tarjeta credito", "youtube premium"},
		{},
	}
	for _, in := range inputs {
		once := ReconcileSelection(in, commitments)
		twice := ReconcileSelection(once, commitments)
		if !slices.Equal(once, twice) {
			t.Fatalf("not idempotent for %v: %v then %v", in, once, twice)
		}
	}
}

func TestReconciledIdsExistAndTotalMatches(t *testing.T) {
	commitments := sampleCommitments()
	idx := IndexCommitments(commitments)
	in := []string{"arriendo", "deuda:netflix", "missing", "gasto:youtube_premium", "arriendo"}

	ids := ReconcileSelection(in, commitments)
	var want float64
	for _, id := range ids {
		c, ok := idx[id]
		if !ok {
			t.Fatalf("reconciled id %q not in lookup", id)
		}
		want += c.Valor
	}
	if got := SelectionTotal(ids, commitments); got != want {
		t.Fatalf("expected total %v, got %v", want, got)
	}
	if got := SelectionTotal(ids, commitments); got != 1200000+1+26900 {
		t.Fatalf("unexpected total %v", got)
	}
}

func TestSelectionTotalIgnoresUnknown(t *testing.T) {
	got := SelectionTotal([]string{"gasto:arriendo", "gasto:desconocido"}, sampleCommitments())
	if got != 1200000 {
		t.Fatalf("expected 1200000, got %v", got)
	}
}

func TestNormalizeSelection(t *testing.T) {
	if got := NormalizeSelection(nil, FlowMovii); !slices.Equal(got, DefaultMoviiItems) {
		t.Fatalf("expected defaults, got %v", got)
	}
	got := NormalizeSelection(Selection{"gasto:a", " ", "gasto:a", "gasto:b"}, FlowRetiroEfectivo)
	if !slices.Equal(got, Selection{"gasto:a", "gasto:b"}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := NormalizeSelection(Selection{}, FlowRetiroEfectivo); len(got) != 0 || got == nil {
		t.Fatalf("explicit empty list must stay empty, got %v", got)
	}
}

func TestReconcileFlows(t *testing.T) {
	cfg := Config{
		GastosFijos: map[string]FixedItem{"arriendo": {Valor: 10}},
		FlujosEfectivo: CashFlows{
			RetiroEfectivoItems: Selection{"Arriendo"},
			MoviiItems:          Selection{"gasto:arriendo"},
		},
	}
	out, changed := ReconcileFlows(cfg)
	if !changed {
		t.Fatalf("expected change")
	}
	if !slices.Equal(out.FlujosEfectivo.RetiroEfectivoItems, Selection{"gasto:arriendo"}) {
		t.Fatalf("unexpected retiro %v", out.FlujosEfectivo.RetiroEfectivoItems)
	}
	if cfg.FlujosEfectivo.RetiroEfectivoItems[0] != "Arriendo" {
		t.Fatalf("input modified")
	}
	if _, changed := ReconcileFlows(out); changed {
		t.Fatalf("second pass must not change anything")
	}
}

func TestCommitments(t *testing.T) {
	cfg := Config{
		GastosFijos: map[string]FixedItem{
			"youtube_premium": {Valor: 26900},
			"arriendo":        {Valor: 1200000},
			"énfasis_curso":   {Valor: 5},
		},
		DeudasFijas: map[string]FixedItem{"banco": {Valor: 3}},
	}
	got := Commitments(cfg)
	wantOrder := []string{"gasto:arriendo", "deuda:banco", "gasto:énfasis_curso", "gasto:youtube_premium"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d commitments, got %d", len(wantOrder), len(got))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if got[3].Concepto != "Youtube Premium" || got[3].Tipo != TipoGastoFijo {
		t.Fatalf("unexpected commitment %+v", got[3])
	}
	if got[1].Tipo != TipoDeuda {
		t.Fatalf("expected debt, got %+v", got[1])
	}
}
