package mesh

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// TangentOptions controls normal and tangent synthesis.
type TangentOptions struct {
	// SmoothAcrossSubmeshes sums contributions of every vertex copy seeded
	// from the same position. When false, copies only smooth with copies
	// owned by the same submesh, keeping hard seams at material boundaries.
	// A seam is only hard where deduplication split the vertex: a vertex
	// whose (position, uv, normal) key is used by two submeshes is a single
	// vertex and still averages the faces of both.
	SmoothAcrossSubmeshes bool
	// UseSourceNormals keeps non-zero normals supplied by the soup and only
	// derives tangents against them.
	UseSourceNormals bool
}

// frame accumulates unnormalized face contributions.
type frame struct {
	normal, tangent, bitangent mgl32.Vec3
}

func (f frame) add(o frame) frame {
	return frame{
		normal:    f.normal.Add(o.normal),
		tangent:   f.tangent.Add(o.tangent),
		bitangent: f.bitangent.Add(o.bitangent),
	}
}

// SynthesizeTangents fills every vertex normal and tangent of a deduplicated
// mesh. Tangent W holds the handedness sign, always +1 or -1, so shaders can
// rebuild the bitangent as W * cross(N, T).
//
// Vertices no triangle references, or whose faces all cancel, keep a zero
// normal; their tangent is an arbitrary unit vector.
func SynthesizeTangents(res *Result, opts TangentOptions) {
	m := res.Mesh
	perVertex := make([]frame, len(m.Vertices))

	for i := 0; i+2 < len(m.Indices); i += 3 {
		idx := [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		face := faceFrame(&m.Vertices[idx[0]], &m.Vertices[idx[1]], &m.Vertices[idx[2]])
		for _, v := range idx {
			perVertex[v] = perVertex[v].add(face)
		}
	}

	groupOf, groupCount := smoothingGroups(res, opts.SmoothAcrossSubmeshes)
	groups := make([]frame, groupCount)
	for v := range perVertex {
		g := groupOf[v]
		groups[g] = groups[g].add(perVertex[v])
	}

	for v := range m.Vertices {
		sum := groups[groupOf[v]]
		n := sum.normal
		if opts.UseSourceNormals && m.Vertices[v].Normal.Len() > 0 {
			n = m.Vertices[v].Normal
		}
		n = normalizeOrZero(n)

		t := normalizeOrZero(sum.tangent.Sub(n.Mul(n.Dot(sum.tangent))))
		if t == (mgl32.Vec3{}) {
			t = perpendicular(n)
		}

		w := float32(1)
		if n.Cross(t).Dot(sum.bitangent) < 0 {
			w = -1
		}

		m.Vertices[v].Normal = n
		m.Vertices[v].Tangent = t.Vec4(w)
	}
}

// faceFrame computes a triangle's face normal and its tangent and bitangent
// from the UV-space system [e0; e1] = [du0 dv0; du1 dv1] * [T; B].
// Tangent and bitangent are zero when the UV mapping is degenerate.
func faceFrame(v0, v1, v2 *Vertex) frame {
	e0 := v1.Position.Sub(v0.Position)
	e1 := v2.Position.Sub(v0.Position)
	out := frame{normal: e0.Cross(e1)}
	if !finite(out.normal) {
		out.normal = mgl32.Vec3{}
	}

	d0 := v1.UV.Sub(v0.UV)
	d1 := v2.UV.Sub(v0.UV)
	det := d0[0]*d1[1] - d1[0]*d0[1]
	if det == 0 {
		return out
	}
	f := 1 / det
	t := e0.Mul(d1[1]).Sub(e1.Mul(d0[1])).Mul(f)
	b := e1.Mul(d0[0]).Sub(e0.Mul(d1[0])).Mul(f)
	if !finite(t) || !finite(b) {
		return out
	}
	out.tangent = t
	out.bitangent = b
	return out
}

// smoothingGroups assigns each vertex a dense group id.
func smoothingGroups(res *Result, acrossSubmeshes bool) ([]int, int) {
	n := len(res.Mesh.Vertices)
	groupOf := make([]int, n)

	if acrossSubmeshes {
		for v := 0; v < n; v++ {
			groupOf[v] = int(res.Origin[v])
		}
		return groupOf, n
	}

	type key struct {
		origin uint32
		owner  int32
	}
	ids := make(map[key]int)
	for v := 0; v < n; v++ {
		k := key{origin: res.Origin[v], owner: res.Owner[v]}
		id, ok := ids[k]
		if !ok {
			id = len(ids)
			ids[k] = id
		}
		groupOf[v] = id
	}
	return groupOf, len(ids)
}

// normalizeOrZero returns v scaled to unit length, or the zero vector when v
// has no direction.
func normalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || !finite(v) {
		return mgl32.Vec3{}
	}
	out := v.Mul(1 / l)
	if !finite(out) {
		return mgl32.Vec3{}
	}
	return out
}

// perpendicular returns a unit vector orthogonal to n, or +X when n is zero.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	if n == (mgl32.Vec3{}) {
		return mgl32.Vec3{1, 0, 0}
	}
	axis := mgl32.Vec3{1, 0, 0}
	if abs32(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return axis.Sub(n.Mul(n.Dot(axis))).Normalize()
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
