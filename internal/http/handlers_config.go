package http

import (
	"net/http"

	"gastos/internal/core"
	"gastos/internal/services"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.Config.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeConfig(w, r, cfg)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r, maxDocumentBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.deps.Config.ReplaceDocument(r.Context(), data); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "Configuración guardada"})
}

func (s *Server) handleDownloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.Config.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := core.EncodeConfig(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="configuracion.json"`)
	writeRaw(w, http.StatusOK, "application/json", data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Config.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCommitments(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Config.Commitments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleParseAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Valor amountField `json:"valor"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := req.Valor.required("valor")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"valor": v})
}

func (s *Server) handleSalary(w http.ResponseWriter, r *http.Request) {
	var req salaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	up := services.SalaryUpdate{
		ValorFijo:            req.ValorFijo.optional(),
		PresupuestoVariables: req.PresupuestoVariables.optional(),
	}
	if req.Nombre != nil {
		nombre := sanitizeInput(*req.Nombre)
		up.Nombre = &nombre
	}
	s.respondConfig(w, r)(s.deps.Config.SetSalary(r.Context(), up))
}

// respondConfig writes the result of a config mutation.
func (s *Server) respondConfig(w http.ResponseWriter, r *http.Request) func(core.Config, error) {
	return func(cfg core.Config, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeConfig(w, r, cfg)
	}
}
