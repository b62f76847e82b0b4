package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/handlers"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/middleware"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/internal/session"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/jwebster45206/dialogue-engine/pkg/trigger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Dialogue Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"script", cfg.ScriptPath(),
		"stage", cfg.StagePath())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.NewStore(cfg.DataDir, log)
	script, err := store.LoadScript(ctx, cfg.Script)
	if err != nil {
		log.Error("Failed to load dialogue script", "error", err)
		os.Exit(1)
	}
	stageSpec, err := store.LoadStage(ctx, cfg.Stage)
	if err != nil {
		log.Error("Failed to load stage", "error", err)
		os.Exit(1)
	}
	stage := stageSpec.Build()
	for _, w := range script.Lint(stage.Names()) {
		log.Warn("Script lint", "warning", w)
	}

	var (
		redisService *services.RedisService
		broadcaster  *events.Broadcaster
		observers    []state.Observer
	)
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL, log)
		if err != nil {
			log.Error("Invalid Redis configuration", "error", err)
			os.Exit(1)
		}
		waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Minute)
		err = redisService.WaitForConnection(waitCtx)
		waitCancel()
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		broadcaster = events.NewBroadcaster(redisService.GetClient(), log, cfg.QueueSize*4)
		observers = append(observers, broadcaster)
		go broadcaster.Run(ctx)
	} else {
		log.Info("REDIS_URL not set, effect broadcasting disabled")
	}

	movement := scene.NewMovementSystem()
	engine, err := state.NewEngine(state.Config{
		Script:     script,
		Stage:      stage,
		Triggers:   trigger.NewStandard(stage, log),
		PlayerName: cfg.PlayerName,
		Logger:     log,
		Observers:  observers,
		Systems: []state.System{state.SystemFunc(func(dt time.Duration) {
			movement.Update(stage, dt)
		})},
	})
	if err != nil {
		log.Error("Failed to create engine", "error", err)
		os.Exit(1)
	}

	runner := session.NewRunner(engine, session.Options{
		TickRate:  cfg.TickRate,
		QueueSize: cfg.QueueSize,
		Logger:    log,
	})
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Session loop stopped", "error", err)
		}
	}()

	if cfg.WatchScript {
		watcher, err := storage.NewWatcher(cfg.ScriptPath())
		if err != nil {
			log.Error("Failed to watch script", "error", err)
			os.Exit(1)
		}
		defer watcher.Close()
		go runner.WatchScript(ctx, watcher.Events, store.LoadScript)
		go logWatchErrors(ctx, log, watcher.Errors)
		log.Info("Watching script for changes", "path", cfg.ScriptPath())
	}

	mux := http.NewServeMux()

	var pinger services.Pinger
	var subscriber handlers.Subscriber
	if redisService != nil {
		pinger = redisService
		subscriber = broadcaster
	}

	mux.Handle("/health", handlers.NewHealthHandler(runner, pinger, log))
	mux.Handle("/v1/commands", handlers.NewCommandsHandler(runner, log))
	mux.Handle("/v1/state", handlers.NewStateHandler(runner, log))
	mux.Handle("/v1/log", handlers.NewLogHandler(runner, log))
	mux.Handle("/v1/events", handlers.NewEventsHandler(subscriber, log))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /v1/events streams for as long as the client stays.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if redisService != nil {
		if err := redisService.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}

	log.Info("Server exited")
}

func logWatchErrors(ctx context.Context, log *slog.Logger, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.WithError(log, err).Warn("Script watcher error")
		}
	}
}
