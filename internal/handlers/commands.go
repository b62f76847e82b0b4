package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/dialogue-engine/internal/session"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

const maxCommandBytes = 4 << 10

// Submitter accepts commands for the next tick.
type Submitter interface {
	Submit(cmd state.Command) error
}

type CommandResponse struct {
	Status string            `json:"status"`
	Type   state.CommandType `json:"type"`
}

// CommandsHandler queues engine commands.
// POST /v1/commands  {"type":"make_choice","choice_index":1}
type CommandsHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

func NewCommandsHandler(submitter Submitter, logger *slog.Logger) *CommandsHandler {
	return &CommandsHandler{submitter: submitter, logger: logger}
}

func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodPost) {
		return
	}

	var cmd state.Command
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cmd); err != nil {
		h.logger.Debug("Invalid command body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.submitter.Submit(cmd); err != nil {
		switch {
		case errors.Is(err, session.ErrQueueFull):
			writeError(w, h.logger, http.StatusServiceUnavailable, "Command queue is full, retry shortly.")
		default:
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.logger.Debug("Command queued", "type", cmd.Type)
	writeJSON(w, h.logger, http.StatusAccepted, CommandResponse{Status: "queued", Type: cmd.Type})
}
