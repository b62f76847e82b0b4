package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	Environment string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string        `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level    `env:"-"`
	DataDir     string        `env:"DATA_DIR" envDefault:"./data"`
	Script      string        `env:"DIALOGUE_SCRIPT" envDefault:"dialogue.json"`
	Stage       string        `env:"STAGE_FILE" envDefault:"stage.yaml"`
	StartScene  string        `env:"START_SCENE" envDefault:"intro"`
	PlayerName  string        `env:"PLAYER_NAME" envDefault:"Joe Swanson"`
	TickRate    time.Duration `env:"TICK_RATE" envDefault:"16ms"`
	QueueSize   int           `env:"COMMAND_BUFFER" envDefault:"64"`
	RedisURL    string        `env:"REDIS_URL"`
	WatchScript bool          `env:"WATCH_SCRIPTS" envDefault:"false"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("TICK_RATE must be positive, got %s", c.TickRate))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("COMMAND_BUFFER must be positive, got %d", c.QueueSize))
	}
	if strings.TrimSpace(c.PlayerName) == "" {
		errs = append(errs, errors.New("PLAYER_NAME must not be blank"))
	}
	return errors.Join(errs...)
}

// ScriptPath resolves the dialogue script against DataDir unless it is absolute.
func (c *Config) ScriptPath() string {
	return c.resolve(c.Script)
}

// StagePath resolves the stage file against DataDir unless it is absolute.
func (c *Config) StagePath() string {
	return c.resolve(c.Stage)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
