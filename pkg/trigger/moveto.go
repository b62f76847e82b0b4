package trigger

import (
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

const (
	KindMoveTo = "move_to"

	// DefaultMoveSpeed is used when a move_to trigger has no usable speed.
	DefaultMoveSpeed = 5.0
)

// ActorMover is the part of the scene a move_to trigger needs.
type ActorMover interface {
	FindActor(name string) (scene.Entity, bool)
	SetMovementGoal(e scene.Entity, goal scene.MovementGoal) bool
}

// MoveTo sends the named actor toward (x, y, z). All three coordinates must be
// numeric; speed is optional.
type MoveTo struct {
	actors ActorMover
}

func NewMoveTo(actors ActorMover) *MoveTo {
	return &MoveTo{actors: actors}
}

func (m *MoveTo) Handle(t dialogue.Trigger) bool {
	actor, ok := m.actors.FindActor(t.Target)
	if !ok {
		return false
	}

	x, okX := t.Params.Number("x")
	y, okY := t.Params.Number("y")
	z, okZ := t.Params.Number("z")
	if !okX || !okY || !okZ {
		return false
	}

	speed, ok := t.Params.Number("speed")
	if !ok || speed <= 0 {
		speed = DefaultMoveSpeed
	}

	return m.actors.SetMovementGoal(actor, scene.MovementGoal{
		Target: scene.Vec3{X: x, Y: y, Z: z},
		Speed:  speed,
	})
}

// NewStandard returns a dispatcher with every built-in handler registered.
func NewStandard(actors ActorMover, logger *slog.Logger) *Dispatcher {
	d := NewDispatcher(logger)
	d.Register(KindMoveTo, NewMoveTo(actors))
	return d
}
