package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gastos/internal/core"
)

func (s *Server) handleUpsertExpense(w http.ResponseWriter, r *http.Request) {
	var req fixedItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.UpsertExpense(r.Context(), in))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.respondConfig(w, r)(s.deps.Config.DeleteExpense(r.Context(), chi.URLParam(r, "key")))
}

func (s *Server) handleUpsertDebt(w http.ResponseWriter, r *http.Request) {
	var req fixedItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.UpsertDebt(r.Context(), in))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	s.respondConfig(w, r)(s.deps.Config.DeleteDebt(r.Context(), chi.URLParam(r, "key")))
}

func (s *Server) handleToggleFlow(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseFlowKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.ToggleFlow(r.Context(), kind, req.ID, req.Selected))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.AddCategory(r.Context(), sanitizeInput(req.Nombre)))
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.RenameCategory(r.Context(), index, sanitizeInput(req.Nombre)))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.DeleteCategory(r.Context(), index))
}

func (s *Server) handleBankBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inicio, err := req.SaldoInicio.required("saldo_inicio")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actual, err := req.SaldoActual.required("saldo_actual")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.UpdateBankBalance(r.Context(), core.BankBalanceInput{
		SaldoInicio: inicio,
		SaldoActual: actual,
		Notas:       sanitizeInput(req.Notas),
	}))
}

func (s *Server) handleAddExtraIncome(w http.ResponseWriter, r *http.Request) {
	var req extraIncomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	valor, err := req.Valor.required("valor")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.AddExtraIncome(r.Context(), sanitizeInput(req.Concepto), valor))
}

func (s *Server) handleRemoveExtraIncome(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondConfig(w, r)(s.deps.Config.RemoveExtraIncome(r.Context(), index))
}
