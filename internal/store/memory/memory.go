package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

// Store keeps the config document, variable expenses and history in
// process memory. It satisfies every port of package store.
type Store struct {
	mu        sync.Mutex
	cfg       []byte
	variables []core.VariableExpense
	revisions []core.Revision
	runs      []core.SyncRun
}

func New() *Store {
	return &Store{}
}

// NewWithConfig returns a store that already holds cfg.
func NewWithConfig(cfg core.Config) (*Store, error) {
	s := New()
	if err := s.Save(context.Background(), cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromFile seeds the store with the document at path. A missing or
// unreadable file yields an empty store.
func NewFromFile(path string) *Store {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if _, err := core.DecodeConfig(data); err != nil {
		return s
	}
	s.cfg = data
	return s
}

// Load decodes the stored document. The copy returned shares nothing with
// the store.
func (s *Store) Load(_ context.Context) (core.Config, error) {
	s.mu.Lock()
	data := s.cfg
	s.mu.Unlock()
	if data == nil {
		return core.Config{}, store.ErrConfigNotFound
	}
	return core.DecodeConfig(data)
}

func (s *Store) Save(_ context.Context, cfg core.Config) error {
	data, err := core.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = data
	return nil
}

func (s *Store) AddVariable(_ context.Context, e core.VariableExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variables {
		if v.ID == e.ID {
			return fmt.Errorf("variable expense %s already exists", e.ID)
		}
	}
	s.variables = append(s.variables, e)
	return nil
}

// ListVariables returns the most recent expenses first.
func (s *Store) ListVariables(_ context.Context, limit int) ([]core.VariableExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.variables)
	slices.Reverse(out)
	return truncate(out, limit), nil
}

// PendingVariables returns unsynced expenses, oldest first. Failed ones
// are retried.
func (s *Store) PendingVariables(_ context.Context, limit int) ([]core.VariableExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.VariableExpense
	for _, v := range s.variables {
		if v.Estado != core.VariableSynced {
			out = append(out, v)
		}
	}
	return truncate(out, limit), nil
}

func (s *Store) MarkVariableSynced(_ context.Context, id string, at time.Time) error {
	return s.updateVariable(id, func(v *core.VariableExpense) {
		v.Estado = core.VariableSynced
		v.Error = ""
		v.SyncedAt = at
	})
}

func (s *Store) MarkVariableFailed(_ context.Context, id string, reason string) error {
	return s.updateVariable(id, func(v *core.VariableExpense) {
		v.Estado = core.VariableFailed
		v.Error = reason
	})
}

func (s *Store) updateVariable(id string, fn func(*core.VariableExpense)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.variables {
		if s.variables[i].ID == id {
			fn(&s.variables[i])
			return nil
		}
	}
	return fmt.Errorf("variable expense %s: %w", id, core.ErrNotFound)
}

func (s *Store) RecordRevision(_ context.Context, rev core.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev.ID = int64(len(s.revisions) + 1)
	rev.Document = slices.Clone(rev.Document)
	s.revisions = append(s.revisions, rev)
	return nil
}

func (s *Store) RecordSyncRun(_ context.Context, run core.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *Store) Revisions(_ context.Context, limit int) ([]core.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.revisions)
	slices.Reverse(out)
	return truncate(out, limit), nil
}

func (s *Store) SyncRuns(_ context.Context, limit int) ([]core.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.runs)
	slices.Reverse(out)
	return truncate(out, limit), nil
}

func truncate[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	if in == nil {
		return []T{}
	}
	return in
}

var (
	_ store.ConfigRepository     = (*Store)(nil)
	_ store.VariableExpenseStore = (*Store)(nil)
	_ store.History              = (*Store)(nil)
)
