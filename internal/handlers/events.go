package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Subscriber opens a subscription to the effect channel.
type Subscriber interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// EventsHandler relays engine effects to the client as Server-Sent Events.
// GET /v1/events
type EventsHandler struct {
	subscriber Subscriber
	logger     *slog.Logger
	keepalive  time.Duration
}

// NewEventsHandler accepts a nil subscriber when broadcasting is disabled; the
// endpoint then answers 503.
func NewEventsHandler(subscriber Subscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		logger:     logger,
		keepalive:  30 * time.Second,
	}
}

type effectHeader struct {
	Type string `json:"type"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, h.logger, http.MethodGet) {
		return
	}
	if h.subscriber == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event streaming is disabled. Set REDIS_URL to enable it.")
		return
	}

	h.logger.Info("SSE connection established", "remote_addr", r.RemoteAddr)

	pubsub := h.subscriber.Subscribe(r.Context())
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe to effects", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event stream unavailable.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	msgChan := pubsub.Channel()

	keepaliveTicker := time.NewTicker(h.keepalive)
	defer keepaliveTicker.Stop()

	if !h.sendSSE(w, "connected", []byte(`{"message":"Connected to event stream"}`)) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var head effectHeader
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil || head.Type == "" {
				h.logger.Error("Failed to unmarshal effect", "error", err, "payload", msg.Payload)
				continue
			}
			if !h.sendSSE(w, head.Type, []byte(msg.Payload)) {
				return
			}

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flush(w)
		}
	}
}

// sendSSE writes one event. The payload is forwarded as-is.
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data []byte) bool {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		h.logger.Error("Failed to write event", "error", err, "event_type", eventType)
		return false
	}
	flush(w)
	return true
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
