package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run validates a script (and optionally a stage to check names against). With
// no arguments it validates every script under DATA_DIR against STAGE_FILE.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 2 {
		fmt.Fprintf(stderr, "Usage: validate [<script.json|script.yaml> [stage.yaml]]\n")
		return 2
	}

	v := &ScriptValidator{out: stdout}
	if len(args) > 0 {
		stage := ""
		if len(args) == 2 {
			stage = args[1]
		}
		if err := v.validateFile(args[0], stage); err != nil {
			fmt.Fprintf(stderr, "Validation failed: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "Script file is valid!")
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Config: %v\n", err)
		return 1
	}
	store := storage.NewStore(cfg.DataDir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	scripts, err := store.ListScripts(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Validation failed: %v\n", err)
		return 1
	}
	if len(scripts) == 0 {
		fmt.Fprintf(stderr, "No scripts found in %s\n", cfg.DataDir)
		return 1
	}

	stage := cfg.StagePath()
	if _, err := os.Stat(stage); err != nil {
		stage = ""
	}
	failed := 0
	for _, s := range scripts {
		if err := v.validateFile(store.Path(s.File), stage); err != nil {
			fmt.Fprintf(stderr, "Validation failed: %v\n", err)
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	fmt.Fprintf(stdout, "%d script file(s) valid!\n", len(scripts))
	return 0
}

type ScriptValidator struct {
	out      io.Writer
	errors   []string
	warnings []string
}

func (v *ScriptValidator) validateFile(filename, stageFile string) error {
	fmt.Fprintf(v.out, "Validating %s...\n", filename)
	v.errors = nil
	v.warnings = nil

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("script file must have a .json, .yaml or .yml extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	script, err := dialogue.Parse(data, dialogue.FormatFromPath(filename))
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	var names []string
	if stageFile != "" {
		names, err = stageNames(stageFile)
		if err != nil {
			return err
		}
	}

	v.validateScript(script, names)
	for _, w := range v.warnings {
		fmt.Fprintln(v.out, "  warning: "+w)
	}
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ScriptValidator) validateScript(script dialogue.Script, names []string) {
	if len(script) == 0 {
		v.addError("script has no scenes")
	}
	for _, id := range script.SceneIDs() {
		v.validateIDFormat("scene ID", id)
		if len(script.Scene(id)) == 0 {
			v.warnings = append(v.warnings, fmt.Sprintf("scene %q has no lines and ends immediately", id))
		}
	}
	v.warnings = append(v.warnings, script.Lint(names)...)
}

func (v *ScriptValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		v.addError(fieldName + " must not be empty")
		return
	}
	if !isValidID(id) {
		v.warnings = append(v.warnings, fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ScriptValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func stageNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage %s: %w", path, err)
	}
	spec, err := scene.LoadStageSpec(data)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}
	return spec.Build().Names(), nil
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
