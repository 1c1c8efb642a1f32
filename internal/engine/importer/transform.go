package importer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-meshview/pkg/formats"
)

// BuildNodeMatrix builds the transformation matrix for an RSM node: the
// inherited hierarchy matrix followed by the node's own offset and 3x3
// matrix, which children do not inherit.
func BuildNodeMatrix(node *formats.RSMNode, rsm *formats.RSM, animTimeMs float32) mgl32.Mat4 {
	visited := make(map[string]bool)
	m := hierarchyMatrix(node, rsm, animTimeMs, visited)
	m = m.Mul4(mgl32.Translate3D(node.Offset[0], node.Offset[1], node.Offset[2]))
	return m.Mul4(mgl32.Mat3(node.Matrix).Mat4())
}

// hierarchyMatrix returns parent * Position * Rotation * Scale.
func hierarchyMatrix(node *formats.RSMNode, rsm *formats.RSM, animTimeMs float32, visited map[string]bool) mgl32.Mat4 {
	if visited[node.Name] {
		return mgl32.Ident4()
	}
	visited[node.Name] = true

	local := mgl32.Translate3D(node.Position[0], node.Position[1], node.Position[2])

	// Keyframes replace the static axis-angle rotation.
	if len(node.RotKeys) > 0 {
		local = local.Mul4(InterpolateRotKeys(node.RotKeys, animTimeMs).Mat4())
	} else if node.RotAngle != 0 {
		axis := mgl32.Vec3(node.RotAxis)
		if axis.Len() > 1e-6 {
			local = local.Mul4(mgl32.HomogRotate3D(node.RotAngle, axis.Normalize()))
		}
	}

	local = local.Mul4(mgl32.Scale3D(node.Scale[0], node.Scale[1], node.Scale[2]))
	if len(node.ScaleKeys) > 0 {
		s := InterpolateScaleKeys(node.ScaleKeys, animTimeMs)
		local = local.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}

	if node.Parent != "" && node.Parent != node.Name {
		if parent := rsm.GetNodeByName(node.Parent); parent != nil {
			return hierarchyMatrix(parent, rsm, animTimeMs, visited).Mul4(local)
		}
	}
	return local
}

func rotKeyQuat(k formats.RSMRotKeyframe) mgl32.Quat {
	q := k.Quaternion
	return mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}
}

// surroundingKeys finds the keys on either side of timeMs and the blend
// factor between them. Keys are assumed sorted by frame.
func surroundingKeys(frames func(i int) int32, n int, timeMs float32) (prev, next int, t float32) {
	for i := 0; i < n; i++ {
		if float32(frames(i)) > timeMs {
			next = i
			break
		}
		prev, next = i, i
	}
	if prev == next {
		return prev, next, 0
	}
	f0, f1 := frames(prev), frames(next)
	if f1 != f0 {
		t = (timeMs - float32(f0)) / float32(f1-f0)
	}
	return prev, next, t
}

// InterpolateRotKeys interpolates rotation keyframes at the given time.
func InterpolateRotKeys(keys []formats.RSMRotKeyframe, timeMs float32) mgl32.Quat {
	if len(keys) == 0 {
		return mgl32.QuatIdent()
	}
	prev, next, t := surroundingKeys(func(i int) int32 { return keys[i].Frame }, len(keys), timeMs)
	q0 := rotKeyQuat(keys[prev]).Normalize()
	if prev == next {
		return q0
	}
	return mgl32.QuatSlerp(q0, rotKeyQuat(keys[next]).Normalize(), t)
}

// InterpolateScaleKeys interpolates scale keyframes at the given time.
func InterpolateScaleKeys(keys []formats.RSMScaleKeyframe, timeMs float32) mgl32.Vec3 {
	if len(keys) == 0 {
		return mgl32.Vec3{1, 1, 1}
	}
	prev, next, t := surroundingKeys(func(i int) int32 { return keys[i].Frame }, len(keys), timeMs)
	s0 := mgl32.Vec3(keys[prev].Scale)
	if prev == next {
		return s0
	}
	s1 := mgl32.Vec3(keys[next].Scale)
	return s0.Add(s1.Sub(s0).Mul(t))
}
