package store

import (
	"context"
	"errors"
	"time"

	"gastos/internal/core"
)

// ErrConfigNotFound is returned by Load when no document has been saved yet.
var ErrConfigNotFound = errors.New("config not found")

// Ports for persistence adapters.
type (
	ConfigLoader interface {
		Load(ctx context.Context) (core.Config, error)
	}

	ConfigSaver interface {
		Save(ctx context.Context, cfg core.Config) error
	}

	ConfigRepository interface {
		ConfigLoader
		ConfigSaver
	}

	// VariableExpenseStore keeps variable expenses until they are written
	// to the workbook.
	VariableExpenseStore interface {
		AddVariable(ctx context.Context, e core.VariableExpense) error
		ListVariables(ctx context.Context, limit int) ([]core.VariableExpense, error)
		PendingVariables(ctx context.Context, limit int) ([]core.VariableExpense, error)
		MarkVariableSynced(ctx context.Context, id string, at time.Time) error
		MarkVariableFailed(ctx context.Context, id string, reason string) error
	}

	// HistoryRecorder stores config revisions and sync runs.
	HistoryRecorder interface {
		RecordRevision(ctx context.Context, rev core.Revision) error
		RecordSyncRun(ctx context.Context, run core.SyncRun) error
	}

	HistoryReader interface {
		Revisions(ctx context.Context, limit int) ([]core.Revision, error)
		SyncRuns(ctx context.Context, limit int) ([]core.SyncRun, error)
	}

	History interface {
		HistoryRecorder
		HistoryReader
	}
)
