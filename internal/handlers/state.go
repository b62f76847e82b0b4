package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Reader exposes the latest session snapshot.
type Reader interface {
	View() state.View
	Log() []state.LogEntry
}

// StateHandler serves the current view.
// GET /v1/state
type StateHandler struct {
	reader Reader
	logger *slog.Logger
}

func NewStateHandler(reader Reader, logger *slog.Logger) *StateHandler {
	return &StateHandler{reader: reader, logger: logger}
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodGet) {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.reader.View())
}

type LogResponse struct {
	Entries []state.LogEntry `json:"entries"`
	Total   int              `json:"total"`
}

// LogHandler serves the transcript.
// GET /v1/log            - all entries as JSON
// GET /v1/log?since=N    - entries after the first N
// GET /v1/log?format=text
type LogHandler struct {
	reader Reader
	logger *slog.Logger
}

func NewLogHandler(reader Reader, logger *slog.Logger) *LogHandler {
	return &LogHandler{reader: reader, logger: logger}
}

func (h *LogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodGet) {
		return
	}

	entries := h.reader.Log()
	total := len(entries)

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := strconv.Atoi(raw)
		if err != nil || since < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		if since > total {
			since = total
		}
		entries = entries[since:]
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(state.FormatTranscript(entries))); err != nil {
			h.logger.Error("Failed to write transcript", "error", err)
		}
		return
	}

	if entries == nil {
		entries = []state.LogEntry{}
	}
	writeJSON(w, h.logger, http.StatusOK, LogResponse{Entries: entries, Total: total})
}
