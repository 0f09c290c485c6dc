package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/core"
	"gastos/internal/metrics"
	"gastos/internal/store"
)

// Revision reasons recorded with each saved document.
const (
	ReasonDefault   = "default"
	ReasonReconcile = "reconcile"
	ReasonReplace   = "replace"
)

// ErrInvalidDocument is returned when a replacement document cannot be
// decoded.
var ErrInvalidDocument = errors.New("invalid config document")

// SalaryUpdate changes the salary. Nil fields keep their stored value.
type SalaryUpdate struct {
	Nombre               *string  `json:"nombre"`
	ValorFijo            *float64 `json:"valor_fijo"`
	PresupuestoVariables *float64 `json:"presupuesto_variables"`
}

// ConfigService owns the configuration document. Every read goes through
// Load, which normalizes the stored document and repairs stale cash-flow
// selections; every write is a named mutation applied under one lock.
type ConfigService struct {
	repo    store.ConfigRepository
	history store.HistoryRecorder
	now     func() time.Time

	mu sync.Mutex
}

// ConfigOption customizes a ConfigService.
type ConfigOption func(*ConfigService)

// WithHistory records a revision for every saved document.
func WithHistory(h store.HistoryRecorder) ConfigOption {
	return func(s *ConfigService) { s.history = h }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ConfigOption {
	return func(s *ConfigService) { s.now = now }
}

func NewConfigService(repo store.ConfigRepository, opts ...ConfigOption) *ConfigService {
	s := &ConfigService{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock.
func (s *ConfigService) Now() time.Time { return s.now() }

// Load returns the current document. A missing document is created from
// the defaults; a document changed by normalization or selection repair is
// saved back before it is returned.
func (s *ConfigService) Load(ctx context.Context) (core.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *ConfigService) loadLocked(ctx context.Context) (core.Config, error) {
	cfg, err := s.repo.Load(ctx)
	if errors.Is(err, store.ErrConfigNotFound) {
		cfg = core.DefaultConfig()
		if err := s.saveLocked(ctx, cfg, ReasonDefault); err != nil {
			return core.Config{}, err
		}
		slog.InfoContext(ctx, "Created default config")
	} else if err != nil {
		return core.Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg, normalized := core.Normalize(cfg)
	cfg, reconciled := core.ReconcileFlows(cfg)
	if reconciled {
		metrics.SelectionsReconciled.Inc()
	}
	if normalized || reconciled {
		if err := s.saveLocked(ctx, cfg, ReasonReconcile); err != nil {
			return core.Config{}, err
		}
	}
	return cfg, nil
}

func (s *ConfigService) saveLocked(ctx context.Context, cfg core.Config, reason string) error {
	if err := s.repo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if s.history == nil {
		return nil
	}
	doc, err := core.EncodeConfig(cfg)
	if err == nil {
		err = s.history.RecordRevision(ctx, core.Revision{Reason: reason, Document: doc, CreatedAt: s.now()})
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to record config revision", "reason", reason, "error", err)
	}
	return nil
}

// mutate applies fn to the current document and saves the result. A
// rejected mutation saves nothing.
func (s *ConfigService) mutate(ctx context.Context, op string, fn func(core.Config) (core.Config, error)) (core.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadLocked(ctx)
	if err == nil {
		cfg, err = fn(cfg)
	}
	if err == nil {
		cfg, _ = core.ReconcileFlows(cfg)
		err = s.saveLocked(ctx, cfg, op)
	}
	metrics.ConfigMutations.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		return core.Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func (s *ConfigService) Dashboard(ctx context.Context) (core.Dashboard, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.Summarize(cfg, s.now()), nil
}

func (s *ConfigService) Commitments(ctx context.Context) ([]core.Commitment, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return core.Commitments(cfg), nil
}

// Replace stores cfg as the whole document.
func (s *ConfigService) Replace(ctx context.Context, cfg core.Config) (core.Config, error) {
	return s.mutate(ctx, ReasonReplace, func(core.Config) (core.Config, error) {
		next, _ := core.Normalize(cfg.Clone())
		return next, nil
	})
}

// ReplaceDocument decodes data and stores it as the whole document.
func (s *ConfigService) ReplaceDocument(ctx context.Context, data []byte) (core.Config, error) {
	cfg, err := core.DecodeConfig(data)
	if err != nil {
		return core.Config{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return s.Replace(ctx, cfg)
}

func (s *ConfigService) SetSalary(ctx context.Context, up SalaryUpdate) (core.Config, error) {
	return s.mutate(ctx, "set_salary", func(cfg core.Config) (core.Config, error) {
		in := core.SalaryInput{
			Nombre:               cfg.Usuario.Nombre,
			ValorFijo:            cfg.Sueldo.ValorFijo.Float(),
			PresupuestoVariables: cfg.PresupuestoVariables.Float(),
		}
		if up.ValorFijo != nil {
			in.ValorFijo = *up.ValorFijo
		}
		if up.Nombre != nil {
			in.Nombre = *up.Nombre
		}
		if up.PresupuestoVariables != nil {
			in.PresupuestoVariables = *up.PresupuestoVariables
		}
		return core.SetSalary(cfg, in)
	})
}

func (s *ConfigService) UpsertExpense(ctx context.Context, in core.FixedItemInput) (core.Config, error) {
	return s.mutate(ctx, "upsert_expense", func(cfg core.Config) (core.Config, error) {
		return core.UpsertExpense(cfg, in)
	})
}

func (s *ConfigService) DeleteExpense(ctx context.Context, key string) (core.Config, error) {
	return s.mutate(ctx, "delete_expense", func(cfg core.Config) (core.Config, error) {
		return core.DeleteExpense(cfg, key)
	})
}

func (s *ConfigService) UpsertDebt(ctx context.Context, in core.FixedItemInput) (core.Config, error) {
	return s.mutate(ctx, "upsert_debt", func(cfg core.Config) (core.Config, error) {
		return core.UpsertDebt(cfg, in)
	})
}

func (s *ConfigService) DeleteDebt(ctx context.Context, key string) (core.Config, error) {
	return s.mutate(ctx, "delete_debt", func(cfg core.Config) (core.Config, error) {
		return core.DeleteDebt(cfg, key)
	})
}

func (s *ConfigService) ToggleFlow(ctx context.Context, kind core.FlowKind, id string, selected bool) (core.Config, error) {
	return s.mutate(ctx, "toggle_flow", func(cfg core.Config) (core.Config, error) {
		return core.ToggleFlow(cfg, kind, id, selected, s.now())
	})
}

func (s *ConfigService) AddCategory(ctx context.Context, name string) (core.Config, error) {
	return s.mutate(ctx, "add_category", func(cfg core.Config) (core.Config, error) {
		return core.AddCategory(cfg, name)
	})
}

func (s *ConfigService) RenameCategory(ctx context.Context, index int, name string) (core.Config, error) {
	return s.mutate(ctx, "rename_category", func(cfg core.Config) (core.Config, error) {
		return core.RenameCategory(cfg, index, name)
	})
}

func (s *ConfigService) DeleteCategory(ctx context.Context, index int) (core.Config, error) {
	return s.mutate(ctx, "delete_category", func(cfg core.Config) (core.Config, error) {
		return core.DeleteCategory(cfg, index)
	})
}

func (s *ConfigService) UpdateBankBalance(ctx context.Context, in core.BankBalanceInput) (core.Config, error) {
	return s.mutate(ctx, "update_bank_balance", func(cfg core.Config) (core.Config, error) {
		return core.UpdateBankBalance(cfg, in, s.now())
	})
}

func (s *ConfigService) AddExtraIncome(ctx context.Context, concepto string, valor float64) (core.Config, error) {
	return s.mutate(ctx, "add_extra_income", func(cfg core.Config) (core.Config, error) {
		return core.AddExtraIncome(cfg, concepto, valor, s.now())
	})
}

func (s *ConfigService) RemoveExtraIncome(ctx context.Context, index int) (core.Config, error) {
	return s.mutate(ctx, "remove_extra_income", func(cfg core.Config) (core.Config, error) {
		return core.RemoveExtraIncome(cfg, index, s.now())
	})
}

// SetDriveFile stores the ids of the synchronized workbook and its folder.
func (s *ConfigService) SetDriveFile(ctx context.Context, fileID, folderID string) (core.Config, error) {
	return s.mutate(ctx, "set_drive_file", func(cfg core.Config) (core.Config, error) {
		return core.SetDriveFile(cfg, fileID, folderID), nil
	})
}
