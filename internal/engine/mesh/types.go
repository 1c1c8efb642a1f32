// Package mesh provides the render-ready mesh model, vertex deduplication and
// tangent-space synthesis for imported polygon soups.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// Mesh errors.
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidMesh     = errors.New("invalid mesh")
)

// Vertex is one complete GPU attribute tuple.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4 // XYZ tangent, W handedness (+1 or -1)
	Color    mgl32.Vec3
	UV       mgl32.Vec2
}

// SubMesh is a contiguous slice of the index buffer drawn with one material.
type SubMesh struct {
	Name         string
	IndexOffset  int
	IndexCount   int
	VertexOffset int
	Material     int // index into Mesh.Materials, -1 for none
}

// Material binds up to two textures while drawing a submesh.
type Material struct {
	Name   string
	Albedo texture.ID
	Detail texture.ID
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent on each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Mesh holds the complete mesh data ready for GPU upload.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	SubMeshes []SubMesh
	Materials []Material
	Bounds    Bounds
}

// Reset empties the mesh, leaving it valid for rendering (nothing is drawn).
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
	m.SubMeshes = m.SubMeshes[:0]
	m.Materials = m.Materials[:0]
	m.Bounds = Bounds{}
}

// Empty reports whether the mesh has nothing to draw.
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks index validity and submesh ranges.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d references vertex %d of %d", ErrIndexOutOfRange, i, idx, len(m.Vertices))
		}
	}
	for i, sm := range m.SubMeshes {
		if sm.IndexOffset < 0 || sm.IndexCount < 0 || sm.IndexOffset+sm.IndexCount > len(m.Indices) {
			return fmt.Errorf("%w: submesh %d (%s) range [%d,+%d) exceeds %d indices",
				ErrInvalidMesh, i, sm.Name, sm.IndexOffset, sm.IndexCount, len(m.Indices))
		}
		if sm.Material < -1 || sm.Material >= len(m.Materials) {
			return fmt.Errorf("%w: submesh %d (%s) material %d of %d",
				ErrIndexOutOfRange, i, sm.Name, sm.Material, len(m.Materials))
		}
	}
	return nil
}

// computeBounds recalculates the bounding box from vertex positions.
func (m *Mesh) computeBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for i := 1; i < len(m.Vertices); i++ {
		p := m.Vertices[i].Position
		for a := 0; a < 3; a++ {
			if p[a] < b.Min[a] {
				b.Min[a] = p[a]
			}
			if p[a] > b.Max[a] {
				b.Max[a] = p[a]
			}
		}
	}
	m.Bounds = b
}
