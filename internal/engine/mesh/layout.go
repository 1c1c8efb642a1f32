package mesh

import (
	"encoding/binary"
	"math"
)

// VertexStride is the size of one packed Vertex in bytes.
const VertexStride = 15 * 4

// Attribute describes one interleaved vertex attribute for the renderer.
type Attribute struct {
	Name       string
	Location   uint32
	Components int
	Offset     int
	Normalized bool
}

// Layout lists the vertex attributes in shader location order.
var Layout = []Attribute{
	{Name: "position", Location: 0, Components: 3, Offset: 0},
	{Name: "normal", Location: 1, Components: 3, Offset: 12, Normalized: true},
	{Name: "tangent", Location: 2, Components: 4, Offset: 24},
	{Name: "color", Location: 3, Components: 3, Offset: 40},
	{Name: "uv", Location: 4, Components: 2, Offset: 52},
}

// VertexBytes packs the vertex buffer as little-endian float32 in Layout order.
func (m *Mesh) VertexBytes() []byte {
	buf := make([]byte, len(m.Vertices)*VertexStride)
	off := 0
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		for _, f := range v.Position {
			put(f)
		}
		for _, f := range v.Normal {
			put(f)
		}
		for _, f := range v.Tangent {
			put(f)
		}
		for _, f := range v.Color {
			put(f)
		}
		for _, f := range v.UV {
			put(f)
		}
	}
	return buf
}

// IndexBytes packs the index buffer as little-endian uint32.
func (m *Mesh) IndexBytes() []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
