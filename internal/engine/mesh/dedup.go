package mesh

import "github.com/go-gl/mathgl/mgl32"

// DedupOptions controls how soup attributes are written into vertices.
type DedupOptions struct {
	// FlipV stores 1-v, converting a bottom-left UV origin to top-left.
	FlipV bool
}

// Result is a deduplicated mesh plus the topology needed for smoothing.
type Result struct {
	Mesh *Mesh
	// Origin is the position index each vertex was seeded from.
	Origin []uint32
	// Owner is the submesh of the first corner that referenced each vertex,
	// or -1 for positions no face uses.
	Owner []int32
}

// attrKey identifies one unique vertex: a position with its UV and normal
// stream indices (Absent when not supplied).
type attrKey struct {
	pos, uv, normal int32
}

var white = mgl32.Vec3{1, 1, 1}

// Deduplicate converts a polygon soup into a single interleaved vertex buffer
// where each unique (position, uv, normal) tuple appears exactly once.
//
// One vertex is seeded per position. Corners are grouped by position and the
// groups visited in first-seen order; within a group the first distinct
// attribute key keeps the seeded slot and every further key appends a copy.
// Output depends only on input order.
func Deduplicate(soup *Soup, opts DedupOptions) (*Result, error) {
	if err := soup.Validate(); err != nil {
		return nil, err
	}

	nPos := len(soup.Positions)
	hasColors := len(soup.Colors) > 0

	vertices := make([]Vertex, nPos, nPos+nPos/2)
	origin := make([]uint32, nPos, cap(vertices))
	owner := make([]int32, nPos, cap(vertices))
	for i, p := range soup.Positions {
		vertices[i] = Vertex{Position: p, Color: white}
		if hasColors {
			vertices[i].Color = soup.Colors[i]
		}
		origin[i] = uint32(i)
		owner[i] = -1
	}

	m := &Mesh{}
	for _, ref := range soup.Materials {
		m.Materials = append(m.Materials, Material{Name: ref.Name})
	}

	// Flatten faces into corners, splitting groups into submeshes whenever
	// the face material changes.
	nCorners := soup.TriangleCount() * 3
	corners := make([]Corner, 0, nCorners)
	cornerSub := make([]int32, 0, nCorners)
	for gi := range soup.Groups {
		g := &soup.Groups[gi]
		cur := -1
		for _, f := range g.Faces {
			if cur < 0 || m.SubMeshes[cur].Material != f.Material {
				m.SubMeshes = append(m.SubMeshes, SubMesh{
					Name:        g.Name,
					IndexOffset: len(corners),
					Material:    f.Material,
				})
				cur = len(m.SubMeshes) - 1
			}
			corners = append(corners, f.Corners[:]...)
			cornerSub = append(cornerSub, int32(cur), int32(cur), int32(cur))
			m.SubMeshes[cur].IndexCount += 3
		}
	}

	// Position groups as array-indexed linked lists over corners.
	head := make([]int32, nPos)
	tail := make([]int32, nPos)
	for i := range head {
		head[i] = -1
	}
	next := make([]int32, len(corners))
	order := make([]int32, 0, nPos)
	for c := range corners {
		p := corners[c].Position
		next[c] = -1
		if head[p] < 0 {
			head[p] = int32(c)
			order = append(order, p)
		} else {
			next[tail[p]] = int32(c)
		}
		tail[p] = int32(c)
	}

	m.Indices = make([]uint32, len(corners))
	slots := make(map[attrKey]uint32, len(corners))
	for _, p := range order {
		seeded := false
		for c := head[p]; c >= 0; c = next[c] {
			corner := corners[c]
			key := attrKey{pos: p, uv: corner.UV, normal: corner.Normal}
			idx, ok := slots[key]
			if !ok {
				if !seeded {
					idx = uint32(p)
					seeded = true
				} else {
					idx = uint32(len(vertices))
					vertices = append(vertices, vertices[p])
					origin = append(origin, uint32(p))
					owner = append(owner, -1)
				}
				applyAttributes(&vertices[idx], soup, corner, opts)
				owner[idx] = cornerSub[c]
				slots[key] = idx
			}
			m.Indices[c] = idx
		}
	}

	m.Vertices = vertices
	m.computeBounds()

	return &Result{Mesh: m, Origin: origin, Owner: owner}, nil
}

// applyAttributes writes a corner's UV and normal into a vertex slot.
func applyAttributes(v *Vertex, soup *Soup, c Corner, opts DedupOptions) {
	v.UV = mgl32.Vec2{}
	if c.UV != Absent {
		uv := soup.UVs[c.UV]
		if opts.FlipV {
			uv[1] = 1 - uv[1]
		}
		v.UV = uv
	}
	v.Normal = mgl32.Vec3{}
	if c.Normal != Absent {
		v.Normal = soup.Normals[c.Normal]
	}
}
