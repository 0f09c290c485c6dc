package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
	"gastos/internal/metrics"
	"gastos/internal/store"
)

const pendingBatchSize = 50

// Publisher announces work for the sync worker.
type Publisher interface {
	PublishSyncRequest(ctx context.Context, mode core.MonthMode) error
	PublishVariableExpense(ctx context.Context, expenseID string) error
}

// VariableWriter writes variable expenses into the workbook. It reports
// the expenses it could not write, keyed by id.
type VariableWriter interface {
	AppendVariables(ctx context.Context, expenses []core.VariableExpense) (map[string]error, error)
}

// VariableInput is a variable expense as submitted by a client.
type VariableInput struct {
	Monto     float64 `json:"monto"`
	Concepto  string  `json:"concepto"`
	Categoria string  `json:"categoria"`
	Fecha     string  `json:"fecha"`
}

// VariableExpenseService records variable expenses locally and hands them
// to the worker that writes them into the workbook.
type VariableExpenseService struct {
	store     store.VariableExpenseStore
	publisher Publisher
	writer    VariableWriter
	now       func() time.Time

	// processMu serializes reading the pending set and writing it, so an
	// expense is never written by two callers.
	processMu sync.Mutex
}

func NewVariableExpenseService(st store.VariableExpenseStore, publisher Publisher, writer VariableWriter) *VariableExpenseService {
	return &VariableExpenseService{store: st, publisher: publisher, writer: writer, now: time.Now}
}

// Record saves the expense as pending and publishes its id. A publish
// failure is logged; the pending ticker of the worker picks the expense up.
func (s *VariableExpenseService) Record(ctx context.Context, in VariableInput) (core.VariableExpense, error) {
	now := s.now()
	e := core.VariableExpense{
		ID:        uuid.NewString(),
		Monto:     in.Monto,
		Concepto:  strings.TrimSpace(in.Concepto),
		Categoria: strings.TrimSpace(in.Categoria),
		Fecha:     strings.TrimSpace(in.Fecha),
		Estado:    core.VariablePending,
		CreatedAt: now,
	}
	if e.Fecha == "" {
		e.Fecha = now.Format(time.DateOnly)
	}
	if day, err := time.Parse(time.DateOnly, e.Fecha); err == nil {
		e.Periodo = core.PeriodOf(day).Key()
	} else {
		e.Periodo = core.PeriodOf(now).Key()
	}
	if err := e.Validate(); err != nil {
		return core.VariableExpense{}, fmt.Errorf("variable expense: %w", err)
	}

	if err := s.store.AddVariable(ctx, e); err != nil {
		return core.VariableExpense{}, fmt.Errorf("save variable expense: %w", err)
	}
	metrics.VariableExpenses.WithLabelValues(core.VariablePending).Inc()

	if err := s.publish(ctx, e.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish variable expense", "id", e.ID, "error", err)
	}
	return e, nil
}

func (s *VariableExpenseService) publish(ctx context.Context, id string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping variable expense message")
		return nil
	}
	return s.publisher.PublishVariableExpense(ctx, id)
}

func (s *VariableExpenseService) List(ctx context.Context, limit int) ([]core.VariableExpense, error) {
	return s.store.ListVariables(ctx, limit)
}

// ProcessPending writes every pending or failed expense into the workbook
// and returns how many were written.
func (s *VariableExpenseService) ProcessPending(ctx context.Context) (int, error) {
	s.processMu.Lock()
	defer s.processMu.Unlock()

	pending, err := s.store.PendingVariables(ctx, pendingBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending variables: %w", err)
	}
	metrics.PendingVariables.Set(float64(len(pending)))
	return s.apply(ctx, pending)
}

// Process writes the expense with id. An id that is no longer pending is
// ignored.
func (s *VariableExpenseService) Process(ctx context.Context, id string) error {
	s.processMu.Lock()
	defer s.processMu.Unlock()

	pending, err := s.store.PendingVariables(ctx, 0)
	if err != nil {
		return fmt.Errorf("list pending variables: %w", err)
	}
	for _, e := range pending {
		if e.ID == id {
			_, err := s.apply(ctx, []core.VariableExpense{e})
			return err
		}
	}
	slog.DebugContext(ctx, "Variable expense already processed", "id", id)
	return nil
}

func (s *VariableExpenseService) apply(ctx context.Context, expenses []core.VariableExpense) (int, error) {
	if len(expenses) == 0 {
		return 0, nil
	}
	if s.writer == nil {
		return 0, errors.New("no workbook writer configured")
	}
	failed, err := s.writer.AppendVariables(ctx, expenses)
	if err != nil {
		return 0, fmt.Errorf("write variable expenses: %w", err)
	}

	written := 0
	at := s.now()
	for _, e := range expenses {
		if cause, ok := failed[e.ID]; ok {
			metrics.VariableExpenses.WithLabelValues(core.VariableFailed).Inc()
			slog.WarnContext(ctx, "Variable expense not written", "id", e.ID, "error", cause)
			if err := s.store.MarkVariableFailed(ctx, e.ID, cause.Error()); err != nil {
				slog.ErrorContext(ctx, "Failed to mark variable expense failed", "id", e.ID, "error", err)
			}
			continue
		}
		if err := s.store.MarkVariableSynced(ctx, e.ID, at); err != nil {
			slog.ErrorContext(ctx, "Failed to mark variable expense synced", "id", e.ID, "error", err)
			continue
		}
		metrics.VariableExpenses.WithLabelValues(core.VariableSynced).Inc()
		written++
	}
	return written, nil
}
