package core

import (
	"slices"
	"strings"
)

// Default selections used when a flow list is missing from the document.
var (
	DefaultRetiroEfectivoItems = []string{"gasto:arriendo"}
	DefaultMoviiItems          = []string{
		"gasto:netflix",
		"gasto:youtube_premium",
		"gasto:google_drive",
		"gasto:mercadolibre",
		"gasto:hbo_max",
		"gasto:pago_app_fitia",
		"gasto:sub_facebook_don_j",
	}
)

// DefaultSelection returns a copy of the default list for kind.
func DefaultSelection(kind FlowKind) Selection {
	switch kind {
	case FlowRetiroEfectivo:
		return slices.Clone(DefaultRetiroEfectivoItems)
	case FlowMovii:
		return slices.Clone(DefaultMoviiItems)
	}
	return Selection{}
}

// ResolveCommitmentID maps a persisted selection entry to a current
// commitment id. Entries that are not ids verbatim are treated as legacy
// keys and looked up as an expense first, then as a debt. It returns ""
// when nothing matches.
func ResolveCommitmentID(raw string, idx CommitmentIndex) string {
	item := strings.TrimSpace(raw)
	if item == "" {
		return ""
	}
	if _, ok := idx[item]; ok {
		return item
	}
	key := NormalizeKey(item)
	if _, ok := idx[ExpensePrefix+key]; ok {
		return ExpensePrefix + key
	}
	if _, ok := idx[DebtPrefix+key]; ok {
		return DebtPrefix + key
	}
	return ""
}

// ReconcileSelection resolves every entry of selection against the
// commitments, drops entries that resolve to nothing and removes
// duplicates keeping the first occurrence. The result is never nil.
func ReconcileSelection(selection []string, commitments []Commitment) []string {
	idx := IndexCommitments(commitments)
	out := make([]string, 0, len(selection))
	seen := make(map[string]struct{}, len(selection))
	for _, raw := range selection {
		id := ResolveCommitmentID(raw, idx)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SelectionTotal sums the valor of every id present in the commitments.
// Unknown ids contribute nothing.
func SelectionTotal(ids []string, commitments []Commitment) float64 {
	idx := IndexCommitments(commitments)
	var total float64
	for _, id := range ids {
		if c, ok := idx[id]; ok {
			total += c.Valor
		}
	}
	return total
}

// SelectedCommitments returns the commitments referenced by ids, in ids order.
func SelectedCommitments(ids []string, commitments []Commitment) []Commitment {
	idx := IndexCommitments(commitments)
	out := make([]Commitment, 0, len(ids))
	for _, id := range ids {
		if c, ok := idx[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// NormalizeSelection applies the structural cleanup done before
// reconciliation: a nil selection becomes the default list, blank entries
// are dropped and duplicates removed.
func NormalizeSelection(s Selection, kind FlowKind) Selection {
	if s == nil {
		return DefaultSelection(kind)
	}
	out := make(Selection, 0, len(s))
	for _, item := range s {
		if strings.TrimSpace(item) == "" || slices.Contains(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ReconcileFlows reconciles every flow selection of cfg against its
// commitments. It reports whether any list changed; callers persist the
// returned config in that case.
func ReconcileFlows(cfg Config) (Config, bool) {
	commitments := Commitments(cfg)
	changed := false
	for _, kind := range FlowKinds() {
		current, _ := cfg.FlujosEfectivo.Selection(kind)
		reconciled := Selection(ReconcileSelection(current, commitments))
		if !slices.Equal(current, reconciled) {
			changed = true
		}
		_ = cfg.FlujosEfectivo.set(kind, reconciled)
	}
	return cfg, changed
}
