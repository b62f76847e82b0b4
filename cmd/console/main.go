package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/jwebster45206/dialogue-engine/pkg/trigger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logPath := filepath.Join(os.TempDir(), "dialogue-console.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.SetupWriter(cfg, logFile)

	ctx := context.Background()
	store := storage.NewStore(cfg.DataDir, log)
	script, err := store.LoadScript(ctx, cfg.Script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dialogue script: %v\n", err)
		os.Exit(1)
	}
	stageSpec, err := store.LoadStage(ctx, cfg.Stage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load stage: %v\n", err)
		os.Exit(1)
	}
	stage := stageSpec.Build()
	for _, w := range script.Lint(stage.Names()) {
		log.Warn("Script lint", "warning", w)
	}

	startScene, err := selectScene(script, cfg.StartScene, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	movement := scene.NewMovementSystem()
	engine, err := state.NewEngine(state.Config{
		Script:     script,
		Stage:      stage,
		Triggers:   trigger.NewStandard(stage, log),
		PlayerName: cfg.PlayerName,
		Logger:     log,
		Systems: []state.System{state.SystemFunc(func(dt time.Duration) {
			movement.Update(stage, dt)
		})},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create engine: %v\n", err)
		os.Exit(1)
	}

	opts := UIOptions{
		StartScene: startScene,
		TickRate:   cfg.TickRate,
		Logger:     log,
	}
	if cfg.WatchScript {
		watcher, err := storage.NewWatcher(cfg.ScriptPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch script: %v\n", err)
			os.Exit(1)
		}
		defer watcher.Close()
		go drainErrors(log, watcher.Errors)
		opts.Changes = watcher.Events
		opts.Load = store.LoadScript
	}

	p := tea.NewProgram(NewConsoleUI(engine, stage, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// selectScene lists the script's scenes and reads a pick. An empty answer keeps
// def when the script has it.
func selectScene(script dialogue.Script, def string, in io.Reader, out io.Writer) (string, error) {
	ids := script.SceneIDs()
	if len(ids) == 0 {
		return "", fmt.Errorf("script has no scenes")
	}
	if len(ids) == 1 {
		return ids[0], nil
	}

	fmt.Fprintln(out, "Available Scenes:")
	for i, id := range ids {
		fmt.Fprintf(out, "  %d - %s (%d lines)\n", i+1, id, len(script.Scene(id)))
	}
	if script.HasScene(def) {
		fmt.Fprintf(out, "\nSelect a scene by number [%s]: ", def)
	} else {
		fmt.Fprint(out, "\nSelect a scene by number: ")
	}

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" && script.HasScene(def) {
		return def, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(ids) {
		return "", fmt.Errorf("invalid selection %q", answer)
	}
	return ids[n-1], nil
}

func drainErrors(log *slog.Logger, errs <-chan error) {
	for err := range errs {
		logger.WithError(log, err).Warn("Script watcher error")
	}
}
