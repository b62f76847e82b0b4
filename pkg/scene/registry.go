package scene

import (
	"sort"
	"strconv"
)

// Entity is a handle to a scene object. The zero value is invalid.
type Entity uint32

func (e Entity) Valid() bool {
	return e > 0
}

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// TagKind names a capability an entity has.
type TagKind string

const (
	TagSpeaker      TagKind = "speaker"       // can speak lines; Name is the speaker name
	TagActor        TagKind = "actor"         // can be moved by triggers; Name is the actor name
	TagCameraTarget TagKind = "camera_target" // can be framed by the dialogue camera
	TagCamera       TagKind = "camera"        // the dialogue camera itself
)

// Tag is a capability attached to an entity.
type Tag struct {
	Kind TagKind `json:"kind" yaml:"kind"`
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
}

func Speaker(name string) Tag { return Tag{Kind: TagSpeaker, Name: name} }
func Actor(name string) Tag   { return Tag{Kind: TagActor, Name: name} }
func CameraTarget() Tag       { return Tag{Kind: TagCameraTarget} }
func Camera() Tag             { return Tag{Kind: TagCamera} }

type record struct {
	id        Entity
	label     string
	transform Transform
	origin    Transform
	tags      []Tag
	goal      *MovementGoal
}

func (rec *record) has(kind TagKind) bool {
	for _, t := range rec.tags {
		if t.Kind == kind {
			return true
		}
	}
	return false
}

func (rec *record) named(kind TagKind, name string) bool {
	for _, t := range rec.tags {
		if t.Kind == kind && t.Name == name {
			return true
		}
	}
	return false
}

// Registry owns the scene entities the dialogue engine reads from and drives.
// Queries walk entities in spawn order, so the first match is the earliest spawned.
// It is not safe for concurrent use.
type Registry struct {
	records []*record
	nextID  Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Spawn adds an entity. Its spawn transform becomes its origin for ResetActors.
func (r *Registry) Spawn(label string, t Transform, tags ...Tag) Entity {
	r.nextID++
	r.records = append(r.records, &record{
		id:        r.nextID,
		label:     label,
		transform: t,
		origin:    t,
		tags:      append([]Tag(nil), tags...),
	})
	return r.nextID
}

func (r *Registry) get(e Entity) *record {
	if r == nil || !e.Valid() {
		return nil
	}
	for _, rec := range r.records {
		if rec.id == e {
			return rec
		}
	}
	return nil
}

func (r *Registry) first(match func(*record) bool) *record {
	if r == nil {
		return nil
	}
	for _, rec := range r.records {
		if match(rec) {
			return rec
		}
	}
	return nil
}

// Len returns the number of entities.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Label returns the entity's descriptive label.
func (r *Registry) Label(e Entity) string {
	if rec := r.get(e); rec != nil {
		return rec.label
	}
	return ""
}

// Transform returns the entity's current transform.
func (r *Registry) Transform(e Entity) (Transform, bool) {
	if rec := r.get(e); rec != nil {
		return rec.transform, true
	}
	return Transform{}, false
}

// Position returns the entity's current position.
func (r *Registry) Position(e Entity) (Vec3, bool) {
	t, ok := r.Transform(e)
	return t.Position, ok
}

// SpeakerPosition resolves the world position of the camera target whose speaker
// name matches exactly.
func (r *Registry) SpeakerPosition(name string) (Vec3, bool) {
	rec := r.first(func(rec *record) bool {
		return rec.has(TagCameraTarget) && rec.named(TagSpeaker, name)
	})
	if rec == nil {
		return Vec3{}, false
	}
	return rec.transform.Position, true
}

// FindActor returns the first actor with the exact name.
func (r *Registry) FindActor(name string) (Entity, bool) {
	rec := r.first(func(rec *record) bool {
		return rec.named(TagActor, name)
	})
	if rec == nil {
		return 0, false
	}
	return rec.id, true
}

// Actors returns every actor entity in spawn order.
func (r *Registry) Actors() []Entity {
	var out []Entity
	if r == nil {
		return out
	}
	for _, rec := range r.records {
		if rec.has(TagActor) {
			out = append(out, rec.id)
		}
	}
	return out
}

// Names returns the distinct speaker and actor names, sorted.
func (r *Registry) Names() []string {
	seen := make(map[string]struct{})
	if r != nil {
		for _, rec := range r.records {
			for _, t := range rec.tags {
				if (t.Kind == TagSpeaker || t.Kind == TagActor) && t.Name != "" {
					seen[t.Name] = struct{}{}
				}
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

func (r *Registry) camera() *record {
	return r.first(func(rec *record) bool { return rec.has(TagCamera) })
}

// CameraFraming returns the camera's current transform.
func (r *Registry) CameraFraming() (Transform, bool) {
	if cam := r.camera(); cam != nil {
		return cam.transform, true
	}
	return Transform{}, false
}

// FrameCamera applies a reframe cue to the camera.
func (r *Registry) FrameCamera(cue CameraCue) {
	if cam := r.camera(); cam != nil {
		cam.transform = cue.Transform()
	}
}

// RestoreCamera puts the camera back to a previously captured framing.
func (r *Registry) RestoreCamera(t Transform) {
	if cam := r.camera(); cam != nil {
		cam.transform = t
	}
}

// ResetActors returns every actor to its spawn transform and cancels its movement.
func (r *Registry) ResetActors() {
	if r == nil {
		return
	}
	for _, rec := range r.records {
		if rec.has(TagActor) {
			rec.transform = rec.origin
			rec.goal = nil
		}
	}
}
