package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"gastos/internal/core"
	"gastos/internal/drive"
	"gastos/internal/services"
)

type (
	asyncSyncResponse struct {
		Success   bool           `json:"success"`
		Message   string         `json:"message"`
		MonthMode core.MonthMode `json:"month_mode"`
	}

	historyResponse struct {
		Revisions []core.Revision `json:"revisions"`
		SyncRuns  []core.SyncRun  `json:"sync_runs"`
	}
)

func (s *Server) handleSyncDrive(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.MonthMode == "" {
		req.MonthMode = r.URL.Query().Get("month_mode")
	}
	mode, err := core.ParseMonthMode(req.MonthMode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Async {
		s.enqueueSync(r.Context(), mode)
		writeJSON(w, http.StatusAccepted, asyncSyncResponse{Success: true, Message: "Sincronización en cola", MonthMode: mode})
		return
	}

	res, err := s.deps.Sync.Sync(r.Context(), mode)
	if err != nil {
		slog.ErrorContext(r.Context(), "Drive sync failed", "month_mode", mode, "error", err)
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	requestLog(r.Context()).LogSyncCompleted(r.Context(), string(mode), res.HojaObjetivo, res.FileID, res.HojaCreada)
	writeJSON(w, http.StatusOK, res)
}

// enqueueSync publishes a sync request. Without a broker, or when
// publishing fails, the sync runs in the background of this process.
func (s *Server) enqueueSync(ctx context.Context, mode core.MonthMode) {
	if s.deps.Publisher != nil {
		err := s.deps.Publisher.PublishSyncRequest(ctx, mode)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Failed to publish sync request, running it locally", "month_mode", mode, "error", err)
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		res, err := s.deps.Sync.Sync(bg, mode)
		if err != nil {
			slog.ErrorContext(bg, "Background drive sync failed", "month_mode", mode, "error", err)
			return
		}
		requestLog(bg).LogSyncCompleted(bg, string(mode), res.HojaObjetivo, res.FileID, res.HojaCreada)
	}()
}

func (s *Server) handleExcel(w http.ResponseWriter, r *http.Request) {
	mode, err := core.ParseMonthMode(r.URL.Query().Get("month_mode"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := mode.Target(s.deps.Config.Now())
	data, err := s.deps.Sync.Workbook(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+workbookFilename(p)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	writeRaw(w, http.StatusOK, drive.XLSXMimeType, data)
}

func (s *Server) handleRecordVariable(w http.ResponseWriter, r *http.Request) {
	var req variableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	monto, err := req.Monto.required("monto")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Variables.Record(r.Context(), services.VariableInput{
		Monto:     monto,
		Concepto:  sanitizeInput(req.Concepto),
		Categoria: sanitizeInput(req.Categoria),
		Fecha:     sanitizeInput(req.Fecha),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	requestLog(r.Context()).LogVariableRecorded(r.Context(), e.ID, e.Concepto, e.Monto)
	writeJSON(w, http.StatusAccepted, e)
}

func (s *Server) handleListVariables(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Variables.List(r.Context(), queryLimit(r, 50, 500))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.VariableExpense{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	resp := historyResponse{Revisions: []core.Revision{}, SyncRuns: []core.SyncRun{}}
	if s.deps.History != nil {
		limit := queryLimit(r, 20, 200)
		revs, err := s.deps.History.Revisions(r.Context(), limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		runs, err := s.deps.History.SyncRuns(r.Context(), limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if revs != nil {
			resp.Revisions = revs
		}
		if runs != nil {
			resp.SyncRuns = runs
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
