package trigger

import (
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// Handler applies one kind of trigger. It reports whether the trigger had an effect;
// a trigger that cannot be applied is dropped, never an error.
type Handler interface {
	Handle(t dialogue.Trigger) bool
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(t dialogue.Trigger) bool

func (f HandlerFunc) Handle(t dialogue.Trigger) bool {
	return f(t)
}

// Dispatcher routes triggers to handlers by kind. Unknown kinds are ignored so
// scripts can carry triggers for handlers that do not exist yet.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher with no handlers.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register installs the handler for a kind, replacing any previous one.
func (d *Dispatcher) Register(kind string, h Handler) {
	if h == nil {
		delete(d.handlers, kind)
		return
	}
	d.handlers[kind] = h
}

// Dispatch applies triggers in order and returns how many had an effect.
func (d *Dispatcher) Dispatch(triggers ...dialogue.Trigger) int {
	applied := 0
	for _, t := range triggers {
		h, ok := d.handlers[t.Kind]
		if !ok {
			d.logger.Debug("Ignoring trigger of unknown type", "type", t.Kind, "target", t.Target)
			continue
		}
		if h.Handle(t) {
			applied++
			continue
		}
		d.logger.Debug("Trigger dropped", "type", t.Kind, "target", t.Target)
	}
	return applied
}
