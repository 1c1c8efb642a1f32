// Package camera provides a value-type perspective camera and a controller
// that maps input to new camera snapshots.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
)

var (
	worldUp      = mgl32.Vec3{0, 1, 0}
	localForward = mgl32.Vec3{0, 0, -1}
	localRight   = mgl32.Vec3{1, 0, 0}
)

// Camera is a perspective camera. Matrices are computed from the value on
// every call and mutators return a modified copy.
type Camera struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	FovY        float32 // radians
	Near        float32
	Far         float32
	Width       int
	Height      int
}

// New returns a camera at (0, 0, 5) looking down -Z.
func New(width, height int) Camera {
	return Camera{
		Position:    mgl32.Vec3{0, 0, 5},
		Orientation: mgl32.QuatIdent(),
		FovY:        mgl32.DegToRad(60),
		Near:        0.1,
		Far:         1000,
		Width:       width,
		Height:      height,
	}
}

// Aspect returns width/height, or 1 for a degenerate viewport.
func (c Camera) Aspect() float32 {
	if c.Width <= 0 || c.Height <= 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// Forward returns the viewing direction in world space.
func (c Camera) Forward() mgl32.Vec3 {
	return c.Orientation.Rotate(localForward)
}

// Right returns the camera's right axis in world space.
func (c Camera) Right() mgl32.Vec3 {
	return c.Orientation.Rotate(localRight)
}

// Up returns the camera's up axis in world space.
func (c Camera) Up() mgl32.Vec3 {
	return c.Orientation.Rotate(worldUp)
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl32.Mat4 {
	rot := c.Orientation.Normalize().Conjugate().Mat4()
	return rot.Mul4(mgl32.Translate3D(-c.Position[0], -c.Position[1], -c.Position[2]))
}

// Projection returns the perspective projection for the viewport.
func (c Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, c.Aspect(), c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// LocalRotate rotates the camera by angle radians about an axis in its own
// frame.
func (c Camera) LocalRotate(axis mgl32.Vec3, angle float32) Camera {
	if axis.Len() == 0 {
		return c
	}
	c.Orientation = c.Orientation.Mul(mgl32.QuatRotate(angle, axis.Normalize())).Normalize()
	return c
}

// LocalTranslate moves the camera by d expressed in its own frame.
func (c Camera) LocalTranslate(d mgl32.Vec3) Camera {
	c.Position = c.Position.Add(c.Orientation.Rotate(d))
	return c
}

// LookAt orients the camera toward target. A target at the camera position
// leaves the orientation unchanged.
func (c Camera) LookAt(target, up mgl32.Vec3) Camera {
	dir := target.Sub(c.Position)
	if dir.Len() < 1e-6 {
		return c
	}
	if up.Len() < 1e-6 || abs32(dir.Normalize().Dot(up.Normalize())) > 0.9999 {
		up = localRight.Cross(dir)
	}
	view := mgl32.LookAtV(c.Position, target, up)
	c.Orientation = mgl32.Mat4ToQuat(view).Conjugate().Normalize()
	return c
}

// WithViewport returns the camera resized to a new viewport.
func (c Camera) WithViewport(width, height int) Camera {
	c.Width, c.Height = width, height
	return c
}

// Fit places the camera in front of b, looking at its center, far enough to
// see the whole box. Near and far planes follow the box size.
func (c Camera) Fit(b mesh.Bounds) Camera {
	center := b.Center()
	radius := b.Size().Len() / 2
	if radius < 1e-3 {
		radius = 1
	}

	dist := radius / float32(gomath.Sin(float64(c.FovY)/2))
	// Look down at about 20 degrees, like an orbit view.
	offset := mgl32.Vec3{0, 0.35, 1}.Normalize().Mul(dist * 1.1)
	c.Position = center.Add(offset)
	c.Near = dist / 100
	c.Far = dist * 10
	return c.LookAt(center, worldUp)
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
