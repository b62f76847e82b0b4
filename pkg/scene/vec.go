package scene

import "math"

// Vec3 is a point or direction in world space. Y is up.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Up is the world up axis.
var Up = Vec3{Y: 1}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector in v's direction, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Transform is an entity's placement: where it is and which way it faces.
type Transform struct {
	Position Vec3 `json:"position" yaml:"position"`
	Forward  Vec3 `json:"forward" yaml:"forward"` // unit facing direction
}

// At returns a transform at p facing -Z.
func At(p Vec3) Transform {
	return Transform{Position: p, Forward: Vec3{Z: -1}}
}

// LookingAt returns t re-oriented to face target. Facing is unchanged when
// target coincides with the position.
func (t Transform) LookingAt(target Vec3) Transform {
	dir := target.Sub(t.Position).Normalize()
	if dir == (Vec3{}) {
		return t
	}
	t.Forward = dir
	return t
}

// CameraCue is a reframe request: where the camera goes and the point it looks at.
type CameraCue struct {
	Position Vec3 `json:"position"`
	LookAt   Vec3 `json:"look_at"`
}

var (
	// FrameOffset places the camera above and behind the framed subject.
	FrameOffset = Vec3{Y: 2, Z: 5}
	// FocusOffset is the point on the subject the camera looks at.
	FocusOffset = Vec3{Y: 1}
)

// FrameSubject computes the cue for framing a subject standing at target.
func FrameSubject(target Vec3) CameraCue {
	return CameraCue{
		Position: target.Add(FrameOffset),
		LookAt:   target.Add(FocusOffset),
	}
}

// Transform returns the camera transform the cue describes.
func (c CameraCue) Transform() Transform {
	return At(c.Position).LookingAt(c.LookAt)
}
