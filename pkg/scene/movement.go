package scene

import "time"

// MovementGoal sends an entity toward Target at Speed units per second.
type MovementGoal struct {
	Target Vec3    `json:"target"`
	Speed  float64 `json:"speed"`
}

// SetMovementGoal installs or replaces the entity's goal.
func (r *Registry) SetMovementGoal(e Entity, goal MovementGoal) bool {
	rec := r.get(e)
	if rec == nil {
		return false
	}
	g := goal
	rec.goal = &g
	return true
}

// MovementGoal returns the entity's active goal.
func (r *Registry) MovementGoal(e Entity) (MovementGoal, bool) {
	rec := r.get(e)
	if rec == nil || rec.goal == nil {
		return MovementGoal{}, false
	}
	return *rec.goal, true
}

// MovementSystem steps every entity with a goal toward it.
type MovementSystem struct{}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{}
}

// Update advances movement by dt. An entity that can reach its goal this step
// lands exactly on it and the goal is cleared.
func (s *MovementSystem) Update(r *Registry, dt time.Duration) {
	if r == nil {
		return
	}
	for _, rec := range r.records {
		if rec.goal == nil {
			continue
		}

		step := rec.goal.Speed * dt.Seconds()
		if step < 0 {
			step = 0
		}
		direction := rec.goal.Target.Sub(rec.transform.Position)
		if direction.Length() <= step {
			rec.transform.Position = rec.goal.Target
			rec.goal = nil
			continue
		}
		rec.transform.Position = rec.transform.Position.Add(direction.Normalize().Scale(step))
	}
}
