package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/drive"
	"gastos/internal/drive/local"
	"gastos/internal/excel"
	"gastos/internal/store/memory"
)

type failingUpload struct {
	*local.Remote
}

func (failingUpload) Upload(context.Context, string, string, string, []byte) (drive.File, error) {
	return drive.File{}, errors.New("quota exceeded")
}

type recordingPublisher struct {
	mu       sync.Mutex
	expenses []string
	err      error
}

func (p *recordingPublisher) PublishSyncRequest(context.Context, core.MonthMode) error { return p.err }

func (p *recordingPublisher) PublishVariableExpense(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expenses = append(p.expenses, id)
	return p.err
}

type syncFixture struct {
	config *ConfigService
	sync   *SyncService
	store  *memory.Store
	remote *local.Remote
}

func newSyncFixture(t *testing.T) syncFixture {
	t.Helper()
	st := memory.New()
	remote := local.New(t.TempDir())
	cfgSvc := NewConfigService(st, WithClock(fixedClock))
	return syncFixture{
		config: cfgSvc,
		sync:   NewSyncService(cfgSvc, remote, st, SyncOptions{}),
		store:  st,
		remote: remote,
	}
}

func TestSyncCreatesWorkbookOnce(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	if _, err := fx.config.AddExtraIncome(ctx, "Bono", 300000); err != nil {
		t.Fatal(err)
	}

	res, err := fx.sync.Sync(ctx, core.MonthActual)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !res.Success || res.Message != "Sincronización completada" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.HojaObjetivo != "Octubre 2026" || res.HojaActual != res.HojaObjetivo || !res.HojaCreada {
		t.Fatalf("unexpected sheet fields %+v", res)
	}
	if res.IngresosExtraTotal != 300000 || res.IngresosExtraCount != 1 {
		t.Fatalf("unexpected extras %+v", res)
	}
	if !strings.HasPrefix(res.Enlace, "file://") {
		t.Fatalf("unexpected link %q", res.Enlace)
	}

	cfg, _ := fx.config.Load(ctx)
	if cfg.GoogleDrive.ArchivoExcelID != res.FileID || cfg.GoogleDrive.CarpetaBackupID != "ControlDeGastos" {
		t.Fatalf("drive ids not stored: %+v", cfg.GoogleDrive)
	}

	again, err := fx.sync.Sync(ctx, core.MonthActual)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if again.HojaCreada || again.FileID != res.FileID {
		t.Fatalf("expected the existing sheet to be rebuilt, got %+v", again)
	}

	next, err := fx.sync.Sync(ctx, core.MonthSiguiente)
	if err != nil {
		t.Fatalf("next month sync: %v", err)
	}
	if next.HojaObjetivo != "Noviembre 2026" || !next.HojaCreada || next.IngresosExtraTotal != 0 {
		t.Fatalf("unexpected next month result %+v", next)
	}

	runs, _ := fx.store.SyncRuns(ctx, 0)
	if len(runs) != 3 || runs[0].MonthMode != core.MonthSiguiente || runs[2].Error != "" {
		t.Fatalf("unexpected sync runs %+v", runs)
	}
}

func TestSyncReplacesMissingFile(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	if _, err := fx.config.SetDriveFile(ctx, "ControlDeGastos/gone.xlsx", ""); err != nil {
		t.Fatal(err)
	}
	res, err := fx.sync.Sync(ctx, core.MonthActual)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.FileID != "ControlDeGastos/ControlDeGastos.xlsx" || !res.HojaCreada {
		t.Fatalf("expected a new workbook, got %+v", res)
	}
}

func TestSyncUploadFailure(t *testing.T) {
	st := memory.New()
	cfgSvc := NewConfigService(st, WithClock(fixedClock))
	svc := NewSyncService(cfgSvc, failingUpload{local.New(t.TempDir())}, st, SyncOptions{})
	ctx := context.Background()

	res, err := svc.Sync(ctx, core.MonthActual)
	if err == nil || res.Success {
		t.Fatalf("expected failure, got %+v", res)
	}
	if !strings.Contains(res.Message, "quota exceeded") {
		t.Fatalf("unexpected message %q", res.Message)
	}
	runs, _ := st.SyncRuns(ctx, 0)
	if len(runs) != 1 || runs[0].Error == "" {
		t.Fatalf("failed run not recorded: %+v", runs)
	}
}

func TestVariableExpensesWrittenToWorkbook(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	vars := NewVariableExpenseService(fx.store, pub, fx.sync)
	vars.now = fixedClock

	e, err := vars.Record(ctx, VariableInput{Monto: 23000, Concepto: " Almuerzo ", Categoria: "Alimentación"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if e.Fecha != "2026-10-14" || e.Periodo != "2026-10" || e.Concepto != "Almuerzo" {
		t.Fatalf("unexpected expense %+v", e)
	}
	if len(pub.expenses) != 1 || pub.expenses[0] != e.ID {
		t.Fatalf("expected the id to be published, got %v", pub.expenses)
	}
	if _, err := vars.Record(ctx, VariableInput{Monto: 0, Concepto: "x"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	n, err := vars.ProcessPending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("process pending: n=%d err=%v", n, err)
	}
	if err := vars.Process(ctx, e.ID); err != nil {
		t.Fatalf("processing a synced id should be a no-op: %v", err)
	}

	cfg, _ := fx.config.Load(ctx)
	data, err := fx.remote.Download(ctx, cfg.GoogleDrive.ArchivoExcelID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	wb, err := excel.OpenBytes(data)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()
	rows, err := wb.Variables(core.Period{Year: 2026, Month: 10})
	if err != nil {
		t.Fatalf("variables: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.Concepto == "Almuerzo" && r.Monto == 23000 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expense not in sheet: %+v", rows)
	}

	list, _ := vars.List(ctx, 0)
	if len(list) != 1 || list[0].Estado != core.VariableSynced {
		t.Fatalf("expected a synced expense, got %+v", list)
	}
}

func TestWorkbookDoesNotUpload(t *testing.T) {
	fx := newSyncFixture(t)
	ctx := context.Background()

	data, err := fx.sync.Workbook(ctx, core.Period{Year: 2026, Month: 12})
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	wb, err := excel.OpenBytes(data)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer wb.Close()
	if got := wb.Sheets(); len(got) != 1 || got[0] != "Diciembre 2026" {
		t.Fatalf("unexpected sheets %v", got)
	}
	cfg, _ := fx.config.Load(ctx)
	if cfg.GoogleDrive.ArchivoExcelID != "" {
		t.Fatalf("workbook download must not store a file id: %+v", cfg.GoogleDrive)
	}
}

// slowWriter counts how often each expense is written.
type slowWriter struct {
	mu     sync.Mutex
	writes map[string]int
}

func (w *slowWriter) AppendVariables(_ context.Context, expenses []core.VariableExpense) (map[string]error, error) {
	time.Sleep(20 * time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range expenses {
		w.writes[e.ID]++
	}
	return nil, nil
}

func TestConcurrentProcessingWritesOnce(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	writer := &slowWriter{writes: map[string]int{}}
	vars := NewVariableExpenseService(st, nil, writer)

	e, err := vars.Record(ctx, VariableInput{Monto: 9000, Concepto: "Taxi"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = vars.ProcessPending(ctx)
				return
			}
			_ = vars.Process(ctx, e.ID)
		}()
	}
	wg.Wait()

	if got := writer.writes[e.ID]; got != 1 {
		t.Fatalf("expense written %d times", got)
	}
}
