package core

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Commitment is a configured fixed expense or debt seen as a single
// monthly outflow. Commitments are derived from the config on demand.
type Commitment struct {
	ID       string  `json:"id"`
	Key      string  `json:"key"`
	Concepto string  `json:"concepto"`
	Valor    float64 `json:"valor"`
	Tipo     string  `json:"tipo"`
}

// Commitments derives the commitment list from the fixed expenses and
// debts of cfg, sorted by concept with Spanish collation.
func Commitments(cfg Config) []Commitment {
	out := make([]Commitment, 0, len(cfg.GastosFijos)+len(cfg.DeudasFijas))
	for key, item := range cfg.GastosFijos {
		out = append(out, newCommitment(ExpensePrefix, TipoGastoFijo, key, item))
	}
	for key, item := range cfg.DeudasFijas {
		out = append(out, newCommitment(DebtPrefix, TipoDeuda, key, item))
	}

	col := collate.New(language.Spanish)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Concepto, out[j].Concepto); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func newCommitment(prefix, tipo, key string, item FixedItem) Commitment {
	valor := item.Valor.Float()
	if !IsFinite(valor) {
		valor = 0
	}
	return Commitment{
		ID:       prefix + key,
		Key:      key,
		Concepto: FormatConcept(key),
		Valor:    valor,
		Tipo:     tipo,
	}
}

// CommitmentIndex maps commitment ids to commitments.
type CommitmentIndex map[string]Commitment

// IndexCommitments builds the id lookup for list.
func IndexCommitments(list []Commitment) CommitmentIndex {
	idx := make(CommitmentIndex, len(list))
	for _, c := range list {
		idx[c.ID] = c
	}
	return idx
}

// NormalizeKey turns a display name into a config key: trimmed,
// lower-cased, whitespace runs replaced by underscores.
func NormalizeKey(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// FormatConcept turns a config key into a display name:
// "youtube_premium" -> "Youtube Premium".
func FormatConcept(key string) string {
	return cases.Title(language.Spanish, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}
