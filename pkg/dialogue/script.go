package dialogue

import (
	"math"
	"sort"
	"time"
)

// Script maps scene IDs to their ordered lines. It is read-only once loaded.
type Script map[string][]Line

// Line is one unit of dialogue.
type Line struct {
	Speaker      string    `json:"speaker" yaml:"speaker"`
	Text         string    `json:"text" yaml:"text"`
	AutoTime     *float64  `json:"auto_time,omitempty" yaml:"auto_time,omitempty"`         // seconds before auto-advance, honored only without choices
	CameraTarget *string   `json:"camera_target,omitempty" yaml:"camera_target,omitempty"` // speaker name to frame
	Choices      []Choice  `json:"choices,omitempty" yaml:"choices,omitempty"`             // present => progression pauses
	Triggers     []Trigger `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// Choice is a player-selectable branch attached to a line.
type Choice struct {
	Text               string    `json:"text" yaml:"text"`                                                       // prompt shown on the button
	PlayerText         *string   `json:"player_text,omitempty" yaml:"player_text,omitempty"`                     // spoken by the player; defaults to Text
	PlayerTextAutoTime *float64  `json:"player_text_auto_time,omitempty" yaml:"player_text_auto_time,omitempty"` // seconds for the player's line
	NextScene          *string   `json:"next_scene,omitempty" yaml:"next_scene,omitempty"`                       // wins over NextLine
	NextLine           *int      `json:"next_line,omitempty" yaml:"next_line,omitempty"`
	Triggers           []Trigger `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// Trigger is a declarative side effect. Kind is interpreted by the trigger dispatcher.
type Trigger struct {
	Kind   string `json:"type" yaml:"type"`
	Target string `json:"target" yaml:"target"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// HasChoices reports whether the line pauses for a player decision.
func (l Line) HasChoices() bool {
	return l.Choices != nil
}

// AutoDuration returns the line's auto-advance delay. Lines with choices never auto-advance.
func (l Line) AutoDuration() (time.Duration, bool) {
	if l.HasChoices() {
		return 0, false
	}
	return seconds(l.AutoTime)
}

// CameraTargetName returns the camera target, if declared.
func (l Line) CameraTargetName() (string, bool) {
	if l.CameraTarget == nil {
		return "", false
	}
	return *l.CameraTarget, true
}

// SpokenText is what the player says when this choice is taken.
func (c Choice) SpokenText() string {
	if c.PlayerText != nil {
		return *c.PlayerText
	}
	return c.Text
}

// Scene returns the lines of a scene, or nil if the scene does not exist.
func (s Script) Scene(id string) []Line {
	return s[id]
}

// HasScene reports whether the scene exists.
func (s Script) HasScene(id string) bool {
	_, ok := s[id]
	return ok
}

// LineAt returns the line at (scene, index). Missing scenes are out of bounds.
func (s Script) LineAt(sceneID string, index int) (Line, bool) {
	lines, ok := s[sceneID]
	if !ok || index < 0 || index >= len(lines) {
		return Line{}, false
	}
	return lines[index], true
}

// SceneIDs returns the scene IDs in sorted order.
func (s Script) SceneIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Speakers returns every distinct speaker name used in the script, sorted.
func (s Script) Speakers() []string {
	seen := make(map[string]struct{})
	for _, lines := range s {
		for _, l := range lines {
			if l.Speaker != "" {
				seen[l.Speaker] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MaxAutoTime is the longest duration, in seconds, a time.Duration can hold.
const MaxAutoTime = float64(math.MaxInt64 / int64(time.Second))

func seconds(v *float64) (time.Duration, bool) {
	if v == nil || !(*v > 0) {
		return 0, false
	}
	if *v >= MaxAutoTime {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(*v * float64(time.Second)), true
}
