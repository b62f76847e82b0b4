package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func receive(t *testing.T, sub *redis.PubSub) state.Effect {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		assert.Equal(t, Channel, msg.Channel)
		var eff state.Effect
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &eff))
		return eff
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return state.Effect{}
	}
}

func TestBroadcaster_RunPublishesInOrder(t *testing.T) {
	client := setupTestRedis(t)
	b := NewBroadcaster(client, testLogger(), 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	go b.Run(ctx)

	run := uuid.New()
	b.Observe(state.Effect{Type: state.EffectConversationStarted, RunID: run, Scene: "intro"})
	b.Observe(state.Effect{Type: state.EffectLine, RunID: run, Scene: "intro",
		Entry: &state.LogEntry{Kind: state.LogEntryLine, Speaker: "Peter Griffin", Text: "Hey Lois."}})

	first := receive(t, sub)
	assert.Equal(t, state.EffectConversationStarted, first.Type)
	assert.Equal(t, run, first.RunID)

	second := receive(t, sub)
	assert.Equal(t, state.EffectLine, second.Type)
	require.NotNil(t, second.Entry)
	assert.Equal(t, "Hey Lois.", second.Entry.Text)
}

func TestBroadcaster_ObserveNeverBlocks(t *testing.T) {
	client := setupTestRedis(t)
	b := NewBroadcaster(client, testLogger(), 2)

	done := make(chan struct{})
	go func() {
		for range 5 {
			b.Observe(state.Effect{Type: state.EffectAutoToggled})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked with no publisher running")
	}
	assert.Equal(t, int64(3), b.Dropped())
}

func TestBroadcaster_PublishError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	b := NewBroadcaster(client, testLogger(), 0)
	err = b.Publish(context.Background(), state.Effect{Type: state.EffectConversationEnded})
	assert.Error(t, err)
}
