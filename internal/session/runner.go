package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

var (
	ErrQueueFull = errors.New("command queue full")
	// ErrConversationActive is returned by ReloadScript when the new script
	// has been parked until the running conversation ends.
	ErrConversationActive = state.ErrConversationActive
)

const (
	DefaultTickRate  = 16 * time.Millisecond
	DefaultQueueSize = 64
)

type Options struct {
	TickRate  time.Duration
	QueueSize int
	Logger    *slog.Logger
}

type reloadRequest struct {
	script dialogue.Script
	reply  chan error
}

// Runner owns an Engine and is the only goroutine that touches it. Other
// goroutines submit commands and read snapshots.
type Runner struct {
	engine   *state.Engine
	tickRate time.Duration
	logger   *slog.Logger

	commands chan state.Command
	reloads  chan reloadRequest
	parked   dialogue.Script

	mu   sync.RWMutex
	view state.View
	log  []state.LogEntry
}

func NewRunner(engine *state.Engine, opts Options) *Runner {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Runner{
		engine:   engine,
		tickRate: opts.TickRate,
		logger:   opts.Logger,
		commands: make(chan state.Command, opts.QueueSize),
		reloads:  make(chan reloadRequest),
	}
	r.snapshot()
	return r
}

// Submit queues a command for the next tick without blocking.
func (r *Runner) Submit(cmd state.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	select {
	case r.commands <- cmd:
		return nil
	default:
		r.logger.Warn("Command dropped, queue full", "type", cmd.Type)
		return ErrQueueFull
	}
}

// Run ticks the engine until ctx is done. Each tick passes the wall-clock time
// since the previous one.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()

	last := time.Now()
	r.logger.Info("Session started", "tick_rate", r.tickRate)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Session stopped")
			return ctx.Err()
		case req := <-r.reloads:
			req.reply <- r.reload(req.script)
		case now := <-ticker.C:
			r.step(now.Sub(last))
			last = now
		}
	}
}

// ReloadScript hands a new script to the loop. It is applied at once when no
// conversation is running; otherwise it is parked, applied when the
// conversation ends, and ErrConversationActive is returned.
func (r *Runner) ReloadScript(ctx context.Context, script dialogue.Script) error {
	if script == nil {
		return state.ErrNoScript
	}
	req := reloadRequest{script: script, reply: make(chan error, 1)}
	select {
	case r.reloads <- req:
	case <-ctx.Done():
		return fmt.Errorf("reload script: %w", ctx.Err())
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("reload script: %w", ctx.Err())
	}
}

func (r *Runner) reload(script dialogue.Script) error {
	err := r.engine.SetScript(script)
	switch {
	case err == nil:
		r.parked = nil
		r.logger.Info("Script reloaded", "scenes", len(script))
	case errors.Is(err, state.ErrConversationActive):
		r.parked = script
		r.logger.Info("Script reload parked until the conversation ends")
	}
	return err
}

func (r *Runner) step(dt time.Duration) {
	for drained := false; !drained; {
		select {
		case cmd := <-r.commands:
			r.engine.Submit(cmd)
		default:
			drained = true
		}
	}

	r.engine.Tick(dt)

	if r.parked != nil && !r.engine.View().Active {
		_ = r.reload(r.parked)
	}
	r.snapshot()
}

func (r *Runner) snapshot() {
	// r.log is only appended here, on the loop goroutine.
	view := r.engine.View()
	fresh := r.engine.LogSince(len(r.log))

	r.mu.Lock()
	r.view = view
	r.log = append(r.log, fresh...)
	r.mu.Unlock()
}

// View returns the state as of the last tick.
func (r *Runner) View() state.View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Log returns the transcript as of the last tick.
func (r *Runner) Log() []state.LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]state.LogEntry(nil), r.log...)
}

// Transcript renders Log as plain text.
func (r *Runner) Transcript() string {
	return state.FormatTranscript(r.Log())
}
