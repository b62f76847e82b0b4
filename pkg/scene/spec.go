package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// StageSpec describes the scene the dialogue plays on: a camera and tagged entities.
type StageSpec struct {
	Camera   CameraSpec   `yaml:"camera"`
	Entities []EntitySpec `yaml:"entities"`
}

// CameraSpec is the camera's starting framing.
type CameraSpec struct {
	Position Vec3  `yaml:"position"`
	LookAt   *Vec3 `yaml:"look_at"`
}

// EntitySpec is one tagged scene object. Speaker and Actor are shorthands for the
// matching tags; Target adds the camera-target tag.
type EntitySpec struct {
	Label    string `yaml:"label"`
	Position Vec3   `yaml:"position"`
	Speaker  string `yaml:"speaker"`
	Actor    string `yaml:"actor"`
	Target   bool   `yaml:"target"`
}

// LoadStageSpec decodes a YAML stage. Unknown fields are rejected.
func LoadStageSpec(data []byte) (StageSpec, error) {
	var spec StageSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return StageSpec{}, fmt.Errorf("scene: unmarshal stage: %w", err)
	}
	for i, e := range spec.Entities {
		if e.Speaker == "" && e.Actor == "" && !e.Target {
			return StageSpec{}, fmt.Errorf("scene: entity %d (%q) has no tags", i, e.Label)
		}
	}
	return spec, nil
}

// Build spawns the camera and every entity into a new registry.
func (s StageSpec) Build() *Registry {
	r := NewRegistry()

	cam := At(s.Camera.Position)
	if s.Camera.LookAt != nil {
		cam = cam.LookingAt(*s.Camera.LookAt)
	}
	r.Spawn("camera", cam, Camera())

	for _, e := range s.Entities {
		var tags []Tag
		if e.Target {
			tags = append(tags, CameraTarget())
		}
		if e.Speaker != "" {
			tags = append(tags, Speaker(e.Speaker))
		}
		if e.Actor != "" {
			tags = append(tags, Actor(e.Actor))
		}
		label := e.Label
		if label == "" {
			label = e.Speaker
		}
		if label == "" {
			label = e.Actor
		}
		r.Spawn(label, At(e.Position), tags...)
	}
	return r
}
