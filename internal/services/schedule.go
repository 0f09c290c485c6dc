package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

const defaultSheetClock = "00:01"

// SheetSchedule decides when the sheet of a new month is created: from the
// first day of the month at a configured time, once per month. A month
// whose time passed while nothing was running is still due.
type SheetSchedule struct {
	Hour   int
	Minute int
}

// ParseSheetSchedule reads an "HH:MM" clock. An empty clock means 00:01.
func ParseSheetSchedule(clock string) (SheetSchedule, error) {
	if clock == "" {
		clock = defaultSheetClock
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return SheetSchedule{}, fmt.Errorf("invalid sheet creation time %q: %w", clock, err)
	}
	return SheetSchedule{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// IsDue reports whether a run is due at now given the last run.
func (s SheetSchedule) IsDue(lastRun, now time.Time) bool {
	if !lastRun.IsZero() && lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	start := time.Date(now.Year(), now.Month(), 1, s.Hour, s.Minute, 0, 0, now.Location())
	return !now.Before(start)
}

// Syncer rebuilds the workbook for a month mode.
type Syncer interface {
	Sync(ctx context.Context, mode core.MonthMode) (SyncResult, error)
}

// MonthlyScheduler creates the sheet of the current month when its
// schedule is due.
type MonthlyScheduler struct {
	config  *ConfigService
	syncer  Syncer
	history store.HistoryReader

	mu      sync.Mutex
	lastRun time.Time
}

// NewMonthlyScheduler returns a scheduler. When history is not nil the last
// successful sync of the current month counts as a run.
func NewMonthlyScheduler(config *ConfigService, syncer Syncer, history store.HistoryReader) *MonthlyScheduler {
	return &MonthlyScheduler{config: config, syncer: syncer, history: history}
}

// Check runs the sync when due and reports whether it ran.
func (m *MonthlyScheduler) Check(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.config.Load(ctx)
	if err != nil {
		return false, err
	}
	sched, err := ParseSheetSchedule(cfg.Automatizacion.HoraCreacionHoja)
	if err != nil {
		slog.WarnContext(ctx, "Using default sheet creation time", "error", err)
		sched, _ = ParseSheetSchedule("")
	}

	now := m.config.Now()
	if !sched.IsDue(m.last(ctx), now) {
		return false, nil
	}

	slog.InfoContext(ctx, "Creating monthly sheet", "period", core.PeriodOf(now).Key())
	if _, err := m.syncer.Sync(ctx, core.MonthActual); err != nil {
		return true, err
	}
	m.lastRun = now
	return true, nil
}

func (m *MonthlyScheduler) last(ctx context.Context) time.Time {
	if !m.lastRun.IsZero() || m.history == nil {
		return m.lastRun
	}
	runs, err := m.history.SyncRuns(ctx, 20)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read sync history", "error", err)
		return m.lastRun
	}
	for _, run := range runs {
		if run.Error == "" && run.MonthMode == core.MonthActual {
			m.lastRun = run.StartedAt
			break
		}
	}
	return m.lastRun
}
