package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"gastos/internal/core"
)

// clientIP is the remote host of r. RealIP has already applied the proxy
// headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isWrite(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// workbookFilename is the download name of the workbook for p.
func workbookFilename(p core.Period) string {
	return fmt.Sprintf("ControlDeGastos_%s.xlsx", p.Key())
}
