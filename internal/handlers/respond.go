package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// allowMethod writes a 405 and returns false unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, logger *slog.Logger, method string) bool {
	if r.Method == method {
		return true
	}
	logger.Warn("Method not allowed",
		"method", r.Method,
		"path", r.URL.Path)
	w.Header().Set("Allow", method)
	writeError(w, logger, http.StatusMethodNotAllowed, "Method not allowed. Only "+method+" is supported.")
	return false
}
