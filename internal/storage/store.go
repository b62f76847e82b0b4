package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

var ErrNotFound = errors.New("not found")

// Store reads dialogue scripts and stage files from a data directory.
type Store struct {
	dataDir string
	logger  *slog.Logger
}

// ScriptInfo describes a loadable script file.
type ScriptInfo struct {
	File   string   `json:"file"`
	Scenes []string `json:"scenes"`
}

func NewStore(dataDir string, logger *slog.Logger) *Store {
	if dataDir == "" {
		dataDir = "./data"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dataDir: dataDir, logger: logger}
}

// Path resolves name against the data directory unless it is absolute.
func (s *Store) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dataDir, name)
}

// ListScripts returns every file under the data directory that parses as a
// dialogue script, sorted by path. Files that do not parse are skipped.
func (s *Store) ListScripts(ctx context.Context) ([]ScriptInfo, error) {
	var scripts []ScriptInfo

	err := filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isScriptFile(path) {
			return nil
		}

		script, err := s.readScript(path)
		if err != nil {
			s.logger.Debug("Skipping non-script file", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(s.dataDir, path)
		if err != nil {
			rel = path
		}
		scripts = append(scripts, ScriptInfo{File: rel, Scenes: script.SceneIDs()})
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to walk data directory", "error", err)
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	sort.Slice(scripts, func(i, j int) bool { return scripts[i].File < scripts[j].File })
	return scripts, nil
}

// LoadScript reads and validates a dialogue script. The format follows the
// file extension.
func (s *Store) LoadScript(ctx context.Context, name string) (dialogue.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(name)
	s.logger.Debug("Loading script", "name", name, "full_path", path)

	script, err := s.readScript(path)
	if err != nil {
		return nil, err
	}
	return script, nil
}

// LoadStage reads a stage spec.
func (s *Store) LoadStage(ctx context.Context, name string) (scene.StageSpec, error) {
	if err := ctx.Err(); err != nil {
		return scene.StageSpec{}, err
	}
	path := s.Path(name)
	s.logger.Debug("Loading stage", "name", name, "full_path", path)

	data, err := readFile(path)
	if err != nil {
		return scene.StageSpec{}, err
	}
	spec, err := scene.LoadStageSpec(data)
	if err != nil {
		return scene.StageSpec{}, fmt.Errorf("stage %s: %w", name, err)
	}
	return spec, nil
}

func (s *Store) readScript(path string) (dialogue.Script, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	script, err := dialogue.Parse(data, dialogue.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", filepath.Base(path), err)
	}
	return script, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func isScriptFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
