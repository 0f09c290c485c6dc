package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"gastos/internal/core"
	"gastos/internal/drive"
	"gastos/internal/excel"
	"gastos/internal/metrics"
	"gastos/internal/store"
)

const syncCompleted = "Sincronización completada"

// SyncOptions configures where the workbook is stored.
type SyncOptions struct {
	FolderName string
	FileName   string
	Timeout    time.Duration
}

// DefaultSyncOptions returns the folder and file names used when none are
// configured.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		FolderName: "ControlDeGastos",
		FileName:   "ControlDeGastos.xlsx",
		Timeout:    60 * time.Second,
	}
}

// SyncResult is the outcome of a workbook synchronization.
type SyncResult struct {
	Success            bool    `json:"success"`
	Message            string  `json:"message"`
	HojaObjetivo       string  `json:"hoja_objetivo"`
	HojaActual         string  `json:"hoja_actual"`
	HojaCreada         bool    `json:"hoja_creada"`
	Enlace             string  `json:"enlace"`
	IngresosExtraTotal float64 `json:"ingresos_extra_total"`
	IngresosExtraCount int     `json:"ingresos_extra_count"`
	FileID             string  `json:"file_id"`
}

// SyncService rebuilds month sheets of the workbook and uploads it to the
// remote store. Remote edits are serialized; concurrent syncs of the same
// month mode share one run.
type SyncService struct {
	config  *ConfigService
	remote  drive.Remote
	history store.HistoryRecorder
	opts    SyncOptions

	mu    sync.Mutex
	group singleflight.Group
}

func NewSyncService(config *ConfigService, remote drive.Remote, history store.HistoryRecorder, opts SyncOptions) *SyncService {
	def := DefaultSyncOptions()
	if opts.FolderName == "" {
		opts.FolderName = def.FolderName
	}
	if opts.FileName == "" {
		opts.FileName = def.FileName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &SyncService{config: config, remote: remote, history: history, opts: opts}
}

// Sync rebuilds the sheet of the month selected by mode and uploads the
// workbook.
func (s *SyncService) Sync(ctx context.Context, mode core.MonthMode) (SyncResult, error) {
	v, err, shared := s.group.Do(string(mode), func() (any, error) {
		return s.sync(ctx, mode)
	})
	if shared {
		slog.DebugContext(ctx, "Joined in-flight sync", "month_mode", mode)
	}
	res, _ := v.(SyncResult)
	return res, err
}

func (s *SyncService) sync(ctx context.Context, mode core.MonthMode) (SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	run := core.SyncRun{ID: uuid.NewString(), MonthMode: mode, StartedAt: s.config.Now()}
	res, err := s.syncLocked(ctx, mode)
	run.FinishedAt = s.config.Now()
	run.HojaObjetivo = res.HojaObjetivo
	run.HojaCreada = res.HojaCreada
	run.Enlace = res.Enlace
	run.FileID = res.FileID
	run.IngresosExtraTotal = res.IngresosExtraTotal
	if err != nil {
		run.Error = err.Error()
	}
	s.record(context.WithoutCancel(ctx), run)

	metrics.SyncRuns.WithLabelValues(string(mode), metrics.Result(err)).Inc()
	metrics.SyncDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	if err != nil {
		slog.ErrorContext(ctx, "Workbook sync failed", "month_mode", mode, "error", err)
		return SyncResult{Success: false, Message: err.Error()}, err
	}
	metrics.LastSyncTimestamp.Set(float64(run.FinishedAt.Unix()))
	slog.InfoContext(ctx, "Workbook synchronized",
		"month_mode", mode,
		"sheet", res.HojaObjetivo,
		"created", res.HojaCreada,
		"file_id", res.FileID)
	return res, nil
}

func (s *SyncService) syncLocked(ctx context.Context, mode core.MonthMode) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	p := mode.Target(s.config.Now())

	wb, fileID, err := s.open(ctx, cfg)
	if err != nil {
		return SyncResult{}, err
	}
	defer wb.Close()

	created, err := wb.UpsertMonth(cfg, p)
	if err != nil {
		return SyncResult{}, fmt.Errorf("build sheet %s: %w", p.SheetName(), err)
	}
	f, link, err := s.upload(ctx, cfg, wb, fileID)
	if err != nil {
		return SyncResult{}, err
	}

	extras := core.ExtraIncomesFor(cfg, p)
	return SyncResult{
		Success:            true,
		Message:            syncCompleted,
		HojaObjetivo:       p.SheetName(),
		HojaActual:         p.SheetName(),
		HojaCreada:         created,
		Enlace:             link,
		IngresosExtraTotal: extras.Total,
		IngresosExtraCount: extras.Count,
		FileID:             f.ID,
	}, nil
}

// Workbook builds the workbook with the sheet of p without uploading it.
func (s *SyncService) Workbook(ctx context.Context, p core.Period) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, err
	}
	wb, _, err := s.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	if _, err := wb.UpsertMonth(cfg, p); err != nil {
		return nil, fmt.Errorf("build sheet %s: %w", p.SheetName(), err)
	}
	return wb.Bytes()
}

// AppendVariables writes expenses into the variable tables of their month
// sheets and uploads the workbook once. The returned map holds the
// expenses that could not be written, keyed by id.
func (s *SyncService) AppendVariables(ctx context.Context, expenses []core.VariableExpense) (map[string]error, error) {
	if len(expenses) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, err
	}
	wb, fileID, err := s.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	failed := map[string]error{}
	for _, e := range expenses {
		p := e.Period()
		if !wb.HasSheet(p) {
			if _, err := wb.UpsertMonth(cfg, p); err != nil {
				failed[e.ID] = fmt.Errorf("build sheet %s: %w", p.SheetName(), err)
				continue
			}
		}
		row, err := wb.AppendVariable(e)
		if err != nil {
			failed[e.ID] = err
			continue
		}
		slog.DebugContext(ctx, "Variable expense written", "id", e.ID, "sheet", p.SheetName(), "row", row)
	}
	if len(failed) == len(expenses) {
		return failed, nil
	}
	if _, _, err := s.upload(ctx, cfg, wb, fileID); err != nil {
		return nil, err
	}
	return failed, nil
}

// open downloads the stored workbook, or starts a new one when no file id
// is stored or the stored file is gone. The returned id is the file to
// overwrite, empty when a new file must be created.
func (s *SyncService) open(ctx context.Context, cfg core.Config) (*excel.Workbook, string, error) {
	id := cfg.GoogleDrive.ArchivoExcelID
	if id == "" {
		return excel.New(), "", nil
	}
	if _, err := s.remote.Stat(ctx, id); errors.Is(err, drive.ErrFileNotFound) {
		slog.WarnContext(ctx, "Stored workbook not found, creating a new one", "file_id", id)
		return excel.New(), "", nil
	} else if err != nil {
		return nil, "", fmt.Errorf("stat workbook: %w", err)
	}
	data, err := s.remote.Download(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("download workbook: %w", err)
	}
	wb, err := excel.OpenBytes(data)
	if err != nil {
		slog.WarnContext(ctx, "Stored workbook unreadable, creating a new one", "file_id", id, "error", err)
		return excel.New(), id, nil
	}
	return wb, id, nil
}

// upload stores wb, remembers its ids in the config and returns the share
// link. A failure to share is logged and yields an empty link.
func (s *SyncService) upload(ctx context.Context, cfg core.Config, wb *excel.Workbook, fileID string) (drive.File, string, error) {
	data, err := wb.Bytes()
	if err != nil {
		return drive.File{}, "", err
	}
	folderID := cfg.GoogleDrive.CarpetaBackupID
	if folderID == "" {
		if folderID, err = s.remote.EnsureFolder(ctx, s.opts.FolderName); err != nil {
			return drive.File{}, "", fmt.Errorf("ensure folder: %w", err)
		}
	}
	f, err := s.remote.Upload(ctx, folderID, fileID, s.opts.FileName, data)
	if err != nil {
		return drive.File{}, "", fmt.Errorf("upload workbook: %w", err)
	}
	if f.ID != cfg.GoogleDrive.ArchivoExcelID || folderID != cfg.GoogleDrive.CarpetaBackupID {
		if _, err := s.config.SetDriveFile(ctx, f.ID, folderID); err != nil {
			return drive.File{}, "", err
		}
	}
	link, err := s.remote.ShareLink(ctx, f.ID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to share workbook", "file_id", f.ID, "error", err)
		link = ""
	}
	return f, link, nil
}

func (s *SyncService) record(ctx context.Context, run core.SyncRun) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordSyncRun(ctx, run); err != nil {
		slog.WarnContext(ctx, "Failed to record sync run", "id", run.ID, "error", err)
	}
}
