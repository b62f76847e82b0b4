package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `{"intro": [
	{"speaker": "Peter Griffin", "text": "Hey Cleveland.", "auto_time": 0.05},
	{"speaker": "Cleveland Brown", "text": "Oh, that's nice."}
]}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func parse(t *testing.T, src string) dialogue.Script {
	t.Helper()
	s, err := dialogue.Parse([]byte(src), dialogue.FormatJSON)
	require.NoError(t, err)
	return s
}

func newRunner(t *testing.T, queue int) *Runner {
	t.Helper()
	stage := scene.NewRegistry()
	stage.Spawn("camera", scene.At(scene.Vec3{Y: 2, Z: 8}), scene.Camera())
	e, err := state.NewEngine(state.Config{Script: parse(t, script), Stage: stage, Logger: testLogger()})
	require.NoError(t, err)
	return NewRunner(e, Options{TickRate: time.Millisecond, QueueSize: queue, Logger: testLogger()})
}

func TestRunner_StepAppliesCommandsAndSnapshots(t *testing.T) {
	r := newRunner(t, 8)
	assert.False(t, r.View().Active)

	require.NoError(t, r.Submit(state.StartCommand("intro")))
	require.NoError(t, r.Submit(state.Command{Type: state.CmdAdvance}))
	assert.False(t, r.View().Active, "nothing runs before a tick")

	r.step(0)
	v := r.View()
	assert.True(t, v.Active)
	assert.Equal(t, "Oh, that's nice.", v.Text)
	assert.Len(t, r.Log(), 2)
	assert.Equal(t, "Peter Griffin: Hey Cleveland.\nCleveland Brown: Oh, that's nice.\n", r.Transcript())

	require.NoError(t, r.Submit(state.Command{Type: state.CmdAdvance}))
	r.step(0)
	assert.False(t, r.View().Active)
	assert.Len(t, r.Log(), 2)
}

func TestRunner_SubmitRejects(t *testing.T) {
	r := newRunner(t, 1)

	assert.ErrorIs(t, r.Submit(state.Command{Type: "dance"}), state.ErrUnknownCommand)
	require.NoError(t, r.Submit(state.Command{Type: state.CmdToggleAuto}))
	assert.ErrorIs(t, r.Submit(state.Command{Type: state.CmdToggleAuto}), ErrQueueFull)
}

func TestRunner_RunDrivesAutoAdvance(t *testing.T) {
	r := newRunner(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.NoError(t, r.Submit(state.Command{Type: state.CmdToggleAuto}))
	require.NoError(t, r.Submit(state.StartCommand("intro")))

	require.Eventually(t, func() bool {
		return r.View().Text == "Oh, that's nice."
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
}

func TestRunner_ReloadParkedWhileActive(t *testing.T) {
	r := newRunner(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	next := parse(t, `{"intro": [{"speaker": "Glenn Quagmire", "text": "Giggity."}]}`)

	require.NoError(t, r.Submit(state.StartCommand("intro")))
	require.Eventually(t, func() bool { return r.View().Active }, time.Second, time.Millisecond)

	err := r.ReloadScript(ctx, next)
	assert.ErrorIs(t, err, ErrConversationActive)

	require.NoError(t, r.Submit(state.Command{Type: state.CmdAdvance}))
	require.NoError(t, r.Submit(state.Command{Type: state.CmdAdvance}))
	require.Eventually(t, func() bool { return !r.View().Active }, time.Second, time.Millisecond)

	require.NoError(t, r.Submit(state.StartCommand("intro")))
	require.Eventually(t, func() bool { return r.View().Text == "Giggity." }, time.Second, time.Millisecond)
}

func TestRunner_ReloadWithoutLoopHonoursContext(t *testing.T) {
	r := newRunner(t, 8)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := r.ReloadScript(ctx, parse(t, script))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, r.ReloadScript(ctx, nil), state.ErrNoScript)
}

func TestRunner_WatchScript(t *testing.T) {
	r := newRunner(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	next := parse(t, `{"intro": [{"speaker": "Glenn Quagmire", "text": "Giggity."}]}`)
	loads := map[string]dialogue.Script{"good.json": next}
	load := func(_ context.Context, path string) (dialogue.Script, error) {
		if s, ok := loads[path]; ok {
			return s, nil
		}
		return nil, dialogue.ErrMalformedScript
	}

	changes := make(chan string)
	watchDone := make(chan struct{})
	go func() {
		r.WatchScript(ctx, changes, load)
		close(watchDone)
	}()

	changes <- "bad.json"
	changes <- "good.json"
	close(changes)
	<-watchDone

	require.NoError(t, r.Submit(state.StartCommand("intro")))
	require.Eventually(t, func() bool { return r.View().Text == "Giggity." }, time.Second, time.Millisecond)
}

func TestRunner_WatchScriptLogsRejectedReload(t *testing.T) {
	var buf bytes.Buffer
	stage := scene.NewRegistry()
	e, err := state.NewEngine(state.Config{Script: parse(t, script), Stage: stage, Logger: testLogger()})
	require.NoError(t, err)
	r := NewRunner(e, Options{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	changes := make(chan string, 1)
	changes <- "bad.json"
	close(changes)
	r.WatchScript(context.Background(), changes, func(context.Context, string) (dialogue.Script, error) {
		return nil, dialogue.ErrMalformedScript
	})

	out := buf.String()
	assert.Contains(t, out, "Script reload rejected")
	assert.Contains(t, out, "path=bad.json")
	assert.Contains(t, out, "error=")
	assert.Contains(t, out, dialogue.ErrMalformedScript.Error())
}
