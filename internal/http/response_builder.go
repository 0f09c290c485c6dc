package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/drive"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, "application/json", data)
}

func writeRaw(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeConfig responds with the config document as it is stored.
func writeConfig(w http.ResponseWriter, r *http.Request, cfg core.Config) {
	data, err := core.EncodeConfig(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, "application/json", data)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, drive.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrInvalidDocument),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyConcept),
		errors.Is(err, core.ErrDuplicateName),
		errors.Is(err, core.ErrIndexOutOfRange),
		errors.Is(err, core.ErrNegativeBalance),
		errors.Is(err, core.ErrInvalidMonthMode),
		errors.Is(err, core.ErrUnknownFlow):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError responds with {success:false, message} and the status of err.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
		requestLog(r.Context()).LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operationFor(r.Method), fields)
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

// operationFor names the operation a request method performs.
func operationFor(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return applog.OpRead
	case http.MethodDelete:
		return applog.OpDelete
	}
	return applog.OpUpdate
}
