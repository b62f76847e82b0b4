package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis Pub/Sub channel effects are published on.
const Channel = "dialogue-events"

const defaultBuffer = 256

// Broadcaster publishes engine effects to Redis Pub/Sub for SSE distribution.
// Observe never blocks the engine: effects are buffered and published by Run,
// and dropped with a warning when the buffer is full.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
	channel     string
	pending     chan state.Effect
	dropped     atomic.Int64
}

var _ state.Observer = (*Broadcaster)(nil)

// NewBroadcaster creates a new effect broadcaster. A buffer of 0 uses the default.
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
		channel:     Channel,
		pending:     make(chan state.Effect, buffer),
	}
}

// Observe queues an effect for publishing.
func (b *Broadcaster) Observe(eff state.Effect) {
	select {
	case b.pending <- eff:
	default:
		b.dropped.Add(1)
		b.logger.Warn("Effect dropped, broadcast buffer full", "event_type", eff.Type, "run_id", eff.RunID)
	}
}

// Dropped returns how many effects were discarded because the buffer was full.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Run publishes queued effects until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case eff := <-b.pending:
			// Failures are logged in Publish; the engine never waits on them.
			_ = b.Publish(ctx, eff)
		}
	}
}

// Publish sends one effect immediately.
func (b *Broadcaster) Publish(ctx context.Context, eff state.Effect) error {
	data, err := json.Marshal(eff)
	if err != nil {
		b.logger.Error("Failed to marshal effect", "error", err, "event_type", eff.Type)
		return fmt.Errorf("failed to marshal effect: %w", err)
	}

	if err := b.redisClient.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish effect", "error", err, "channel", b.channel)
		return fmt.Errorf("failed to publish effect: %w", err)
	}

	b.logger.Debug("Effect published",
		"channel", b.channel,
		"event_type", eff.Type,
		"run_id", eff.RunID,
	)
	return nil
}

// Subscribe opens a subscription to the effect channel. Callers close it.
func (b *Broadcaster) Subscribe(ctx context.Context) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, b.channel)
}
