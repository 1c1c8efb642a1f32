package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Intent is one frame of camera input.
type Intent struct {
	// Move is the requested direction in camera space: X right, Y up,
	// Z backward. Components are usually -1, 0 or 1.
	Move mgl32.Vec3
	// Look is the mouse delta in pixels.
	Look mgl32.Vec2
	// Boost multiplies the movement speed.
	Boost bool
	// Dt is the frame time in seconds.
	Dt float32
}

// Controller turns input intents into camera snapshots, fly-camera style:
// yaw turns about world up and pitch about the camera's right axis.
type Controller struct {
	Speed       float32 // units per second
	BoostFactor float32
	Sensitivity float32 // radians per pixel
	// MaxPitch keeps the view from flipping over the poles.
	MaxPitch float32
}

// DefaultController returns a controller with viewer defaults.
func DefaultController() Controller {
	return Controller{
		Speed:       5,
		BoostFactor: 4,
		Sensitivity: 0.003,
		MaxPitch:    mgl32.DegToRad(89),
	}
}

// Apply returns the camera moved and rotated by in.
func (ctl Controller) Apply(c Camera, in Intent) Camera {
	if in.Look[0] != 0 {
		yaw := mgl32.QuatRotate(-in.Look[0]*ctl.Sensitivity, worldUp)
		c.Orientation = yaw.Mul(c.Orientation).Normalize()
	}
	if in.Look[1] != 0 {
		pitch := -in.Look[1] * ctl.Sensitivity
		if limit := ctl.MaxPitch; limit > 0 {
			current := Pitch(c)
			pitch = mgl32.Clamp(current+pitch, -limit, limit) - current
		}
		c = c.LocalRotate(localRight, pitch)
	}

	if in.Move.Len() > 0 && in.Dt > 0 {
		speed := ctl.Speed * in.Dt
		if in.Boost && ctl.BoostFactor > 0 {
			speed *= ctl.BoostFactor
		}
		c = c.LocalTranslate(in.Move.Normalize().Mul(speed))
	}
	return c
}

// Pitch returns the angle of the view direction above the horizon.
func Pitch(c Camera) float32 {
	y := mgl32.Clamp(c.Forward()[1], -1, 1)
	return float32(gomath.Asin(float64(y)))
}
