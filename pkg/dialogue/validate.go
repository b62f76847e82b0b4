package dialogue

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/cases"
)

// KnownTriggerKinds lists trigger kinds the engine ships handlers for. Others are
// legal but have no effect.
var KnownTriggerKinds = []string{"move_to"}

// Validate reports problems that make the script unplayable. All problems are
// joined into a single error.
func (s Script) Validate() error {
	var errs []error
	for _, sceneID := range s.SceneIDs() {
		for i, line := range s[sceneID] {
			where := fmt.Sprintf("scene %q line %d", sceneID, i)
			if err := checkSeconds("auto_time", line.AutoTime); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
			if line.Choices != nil && len(line.Choices) == 0 {
				errs = append(errs, fmt.Errorf("%s: choices is present but empty", where))
			}
			errs = append(errs, validateTriggers(where, line.Triggers)...)
			for j, c := range line.Choices {
				cw := fmt.Sprintf("%s choice %d", where, j)
				if c.Text == "" {
					errs = append(errs, fmt.Errorf("%s: text is required", cw))
				}
				if err := checkSeconds("player_text_auto_time", c.PlayerTextAutoTime); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", cw, err))
				}
				if c.NextLine != nil && *c.NextLine < 0 {
					errs = append(errs, fmt.Errorf("%s: next_line must be >= 0, got %d", cw, *c.NextLine))
				}
				errs = append(errs, validateTriggers(cw, c.Triggers)...)
			}
		}
	}
	return errors.Join(errs...)
}

func checkSeconds(field string, v *float64) error {
	switch {
	case v == nil:
		return nil
	case !(*v > 0):
		return fmt.Errorf("%s must be > 0, got %v", field, *v)
	case *v > MaxAutoTime:
		return fmt.Errorf("%s must be <= %.0f, got %v", field, MaxAutoTime, *v)
	}
	return nil
}

func validateTriggers(where string, triggers []Trigger) []error {
	var errs []error
	for k, t := range triggers {
		if t.Kind == "" {
			errs = append(errs, fmt.Errorf("%s trigger %d: type is required", where, k))
		}
	}
	return errs
}

// Lint returns non-fatal warnings: dangling branch targets, unknown trigger kinds,
// and names that only match a known stage name when case is ignored. Names are
// resolved by exact match at runtime, so a case mismatch silently does nothing.
func (s Script) Lint(knownNames []string) []string {
	var warnings []string
	fold := cases.Fold()

	exact := make(map[string]struct{}, len(knownNames))
	folded := make(map[string]string, len(knownNames))
	for _, n := range knownNames {
		exact[n] = struct{}{}
		folded[fold.String(n)] = n
	}
	checkName := func(where, field, name string) {
		if len(knownNames) == 0 || name == "" {
			return
		}
		if _, ok := exact[name]; ok {
			return
		}
		if match, ok := folded[fold.String(name)]; ok {
			warnings = append(warnings, fmt.Sprintf("%s: %s %q differs only in case from %q", where, field, name, match))
			return
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s %q is not a known name", where, field, name))
	}
	checkTriggers := func(where string, triggers []Trigger) {
		for k, t := range triggers {
			tw := fmt.Sprintf("%s trigger %d", where, k)
			if !slices.Contains(KnownTriggerKinds, t.Kind) {
				warnings = append(warnings, fmt.Sprintf("%s: unknown trigger type %q will be ignored", tw, t.Kind))
			}
			checkName(tw, "target", t.Target)
		}
	}

	for _, sceneID := range s.SceneIDs() {
		for i, line := range s[sceneID] {
			where := fmt.Sprintf("scene %q line %d", sceneID, i)
			if target, ok := line.CameraTargetName(); ok {
				checkName(where, "camera_target", target)
			}
			if line.HasChoices() && line.AutoTime != nil {
				warnings = append(warnings, fmt.Sprintf("%s: auto_time is ignored on a line with choices", where))
			}
			checkTriggers(where, line.Triggers)

			for j, c := range line.Choices {
				cw := fmt.Sprintf("%s choice %d", where, j)
				checkTriggers(cw, c.Triggers)

				targetScene := sceneID
				if c.NextScene != nil {
					targetScene = *c.NextScene
					if !s.HasScene(targetScene) {
						warnings = append(warnings, fmt.Sprintf("%s: next_scene %q does not exist, conversation will end", cw, targetScene))
						continue
					}
					if c.NextLine != nil {
						warnings = append(warnings, fmt.Sprintf("%s: next_line is ignored because next_scene is set", cw))
					}
					continue
				}
				if c.NextLine != nil && *c.NextLine >= len(s[targetScene]) {
					warnings = append(warnings, fmt.Sprintf("%s: next_line %d is past the end of scene %q, conversation will end", cw, *c.NextLine, targetScene))
				}
			}
		}
	}
	return warnings
}
