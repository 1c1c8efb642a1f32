package mesh

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// makeCubeSoup builds a unit cube with 8 shared positions and 4 private UV
// indices per face (24 UV-distinct corners).
func makeCubeSoup() *Soup {
	soup := &Soup{
		Positions: []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
	}
	quads := [6][4]int32{
		{4, 5, 6, 7}, // front
		{1, 0, 3, 2}, // back
		{5, 1, 2, 6}, // right
		{0, 4, 7, 3}, // left
		{7, 6, 2, 3}, // top
		{0, 1, 5, 4}, // bottom
	}
	quadUV := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	group := Group{Name: "cube"}
	for q, quad := range quads {
		base := int32(q * 4)
		soup.UVs = append(soup.UVs, quadUV[:]...)
		c := func(k int) Corner {
			return Corner{Position: quad[k], Normal: Absent, UV: base + int32(k)}
		}
		group.Faces = append(group.Faces,
			Face{Corners: [3]Corner{c(0), c(1), c(2)}, Material: -1},
			Face{Corners: [3]Corner{c(0), c(2), c(3)}, Material: -1},
		)
	}
	soup.Groups = []Group{group}
	return soup
}

func makeTriangleSoup() *Soup {
	return &Soup{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		UVs:       []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
		Groups: []Group{{
			Name: "tri",
			Faces: []Face{{
				Corners: [3]Corner{
					{Position: 0, Normal: Absent, UV: 0},
					{Position: 1, Normal: Absent, UV: 1},
					{Position: 2, Normal: Absent, UV: 2},
				},
				Material: -1,
			}},
		}},
	}
}

func TestDeduplicate_Cube(t *testing.T) {
	res, err := Deduplicate(makeCubeSoup(), DedupOptions{})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	m := res.Mesh

	if len(m.Vertices) != 24 {
		t.Errorf("expected 24 vertices, got %d", len(m.Vertices))
	}
	if len(m.Indices) != 36 {
		t.Errorf("expected 36 indices, got %d", len(m.Indices))
	}

	perPosition := make(map[uint32]int)
	for _, o := range res.Origin {
		perPosition[o]++
	}
	for p := uint32(0); p < 8; p++ {
		if perPosition[p] != 3 {
			t.Errorf("position %d: expected 3 vertex variants, got %d", p, perPosition[p])
		}
	}

	if err := m.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestDeduplicate_SharingInvariant(t *testing.T) {
	soup := makeCubeSoup()
	res, err := Deduplicate(soup, DedupOptions{})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	m := res.Mesh

	var corners []Corner
	for _, f := range soup.Groups[0].Faces {
		corners = append(corners, f.Corners[:]...)
	}

	for i := range corners {
		for j := range corners {
			a, b := corners[i], corners[j]
			if a.Position != b.Position {
				continue
			}
			same := m.Indices[i] == m.Indices[j]
			if a.UV == b.UV && !same {
				t.Errorf("corners %d and %d share (pos %d, uv %d) but resolve to %d and %d",
					i, j, a.Position, a.UV, m.Indices[i], m.Indices[j])
			}
			if a.UV != b.UV && same {
				t.Errorf("corners %d and %d differ in uv (%d vs %d) but share vertex %d",
					i, j, a.UV, b.UV, m.Indices[i])
			}
			if m.Vertices[m.Indices[i]].Position != m.Vertices[m.Indices[j]].Position {
				t.Errorf("corners %d and %d resolved to different positions", i, j)
			}
		}
	}
}

func TestDeduplicate_Triangle(t *testing.T) {
	res, err := Deduplicate(makeTriangleSoup(), DedupOptions{})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	m := res.Mesh

	if len(m.Vertices) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(m.Vertices))
	}
	want := []uint32{0, 1, 2}
	for i, idx := range want {
		if m.Indices[i] != idx {
			t.Errorf("index %d: got %d, want %d", i, m.Indices[i], idx)
		}
	}
	if m.Vertices[1].UV != (mgl32.Vec2{1, 0}) {
		t.Errorf("vertex 1 uv: got %v", m.Vertices[1].UV)
	}
	if m.Vertices[0].Color != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("default color should be white, got %v", m.Vertices[0].Color)
	}
}

func TestDeduplicate_FirstSeenOrder(t *testing.T) {
	soup := &Soup{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		UVs:       make([]mgl32.Vec2, 6),
		Groups: []Group{{
			Name: "g",
			Faces: []Face{
				{Corners: [3]Corner{{0, Absent, 0}, {1, Absent, 1}, {2, Absent, 2}}, Material: -1},
				{Corners: [3]Corner{{2, Absent, 3}, {1, Absent, 4}, {0, Absent, 5}}, Material: -1},
			},
		}},
	}

	res, err := Deduplicate(soup, DedupOptions{})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}

	want := []uint32{0, 1, 2, 5, 4, 3}
	for i, idx := range want {
		if res.Mesh.Indices[i] != idx {
			t.Errorf("index %d: got %d, want %d (all: %v)", i, res.Mesh.Indices[i], idx, res.Mesh.Indices)
		}
	}
	wantOrigin := []uint32{0, 1, 2, 0, 1, 2}
	for i, o := range wantOrigin {
		if res.Origin[i] != o {
			t.Errorf("origin %d: got %d, want %d", i, res.Origin[i], o)
		}
	}
}

func TestDeduplicate_NormalIsPartOfKey(t *testing.T) {
	soup := &Soup{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, -1}},
		UVs:       []mgl32.Vec2{{0, 0}},
		Groups: []Group{{
			Name: "g",
			Faces: []Face{
				{Corners: [3]Corner{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, Material: -1},
				{Corners: [3]Corner{{0, 1, 0}, {2, 1, 0}, {1, 1, 0}}, Material: -1},
			},
		}},
	}

	res, err := Deduplicate(soup, DedupOptions{})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	if len(res.Mesh.Vertices) != 6 {
		t.Errorf("expected 6 vertices, got %d", len(res.Mesh.Vertices))
	}
	if res.Mesh.Indices[0] == res.Mesh.Indices[3] {
		t.Error("corners with different normals must not share a vertex")
	}
}

func TestDeduplicate_SubmeshSplit(t *testing.T) {
	tri := [3]Corner{{0, Absent, Absent}, {1, Absent, Absent}, {2, Absent, Absent}}
	soup := &Soup{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Materials: []MaterialRef{{Name: "stone"}, {Name: "wood"}},
		Groups: []Group{
			{Name: "wall", Faces: []Face{
				{Corners: tri, Material: 0},
				{Corners: tri, Material: 0},
				{Corners: tri, Material: 1},
				{Corners: tri, Material: 1},
				{Corners: tri, Material: 0},
			}},
			{Name: "empty"},
			{Name: "roof", Faces: []Face{{Corners: tri, Material: -1}}},
		},
	}

	res, err := Deduplicate(soup, DedupOptions{})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}

	want := []SubMesh{
		{Name: "wall", IndexOffset: 0, IndexCount: 6, Material: 0},
		{Name: "wall", IndexOffset: 6, IndexCount: 6, Material: 1},
		{Name: "wall", IndexOffset: 12, IndexCount: 3, Material: 0},
		{Name: "roof", IndexOffset: 15, IndexCount: 3, Material: -1},
	}
	got := res.Mesh.SubMeshes
	if len(got) != len(want) {
		t.Fatalf("expected %d submeshes, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("submesh %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(res.Mesh.Materials) != 2 || res.Mesh.Materials[1].Name != "wood" {
		t.Errorf("unexpected materials: %+v", res.Mesh.Materials)
	}
}

func TestDeduplicate_FlipVAndColors(t *testing.T) {
	soup := makeTriangleSoup()
	soup.UVs[2] = mgl32.Vec2{0.25, 0.75}
	soup.Colors = []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	res, err := Deduplicate(soup, DedupOptions{FlipV: true})
	if err != nil {
		t.Fatalf("Deduplicate failed: %v", err)
	}
	v := res.Mesh.Vertices[2]
	if v.UV != (mgl32.Vec2{0.25, 0.25}) {
		t.Errorf("flipped uv: got %v, want [0.25 0.25]", v.UV)
	}
	if v.Color != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("color: got %v", v.Color)
	}
}

func TestDeduplicate_OutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Soup)
	}{
		{"position", func(s *Soup) { s.Groups[0].Faces[0].Corners[1].Position = 3 }},
		{"negative position", func(s *Soup) { s.Groups[0].Faces[0].Corners[0].Position = -1 }},
		{"uv", func(s *Soup) { s.Groups[0].Faces[0].Corners[2].UV = 9 }},
		{"normal", func(s *Soup) { s.Groups[0].Faces[0].Corners[0].Normal = 0 }},
		{"material", func(s *Soup) { s.Groups[0].Faces[0].Material = 2 }},
		{"colors", func(s *Soup) { s.Colors = []mgl32.Vec3{{1, 1, 1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			soup := makeTriangleSoup()
			tt.mutate(soup)
			_, err := Deduplicate(soup, DedupOptions{})
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("expected ErrIndexOutOfRange, got %v", err)
			}
		})
	}
}

func TestDeduplicate_Deterministic(t *testing.T) {
	opts := DefaultBuildOptions()

	first, err := Build(makeCubeSoup(), opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(makeCubeSoup(), opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !bytes.Equal(first.VertexBytes(), second.VertexBytes()) {
		t.Error("vertex bytes differ between identical builds")
	}
	if !bytes.Equal(first.IndexBytes(), second.IndexBytes()) {
		t.Error("index bytes differ between identical builds")
	}
}

func TestMesh_Validate(t *testing.T) {
	m := &Mesh{
		Vertices:  make([]Vertex, 3),
		Indices:   []uint32{0, 1, 2},
		SubMeshes: []SubMesh{{Name: "a", IndexCount: 3, Material: -1}},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid mesh rejected: %v", err)
	}

	m.Indices = []uint32{0, 1, 3}
	if err := m.Validate(); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	m.Indices = []uint32{0, 1}
	if err := m.Validate(); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("expected ErrInvalidMesh, got %v", err)
	}

	m.Indices = []uint32{0, 1, 2}
	m.SubMeshes[0].IndexCount = 6
	if err := m.Validate(); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("expected ErrInvalidMesh for submesh range, got %v", err)
	}

	m.SubMeshes[0].IndexCount = 3
	for _, material := range []int{-2, 0} {
		m.SubMeshes[0].Material = material
		if err := m.Validate(); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("material %d with no materials: expected ErrIndexOutOfRange, got %v", material, err)
		}
	}
}

func TestMesh_Reset(t *testing.T) {
	m, err := Build(makeCubeSoup(), DefaultBuildOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	m.Reset()
	if len(m.Vertices) != 0 || len(m.Indices) != 0 || len(m.SubMeshes) != 0 || !m.Empty() {
		t.Errorf("Reset left data behind: %d vertices, %d indices, %d submeshes",
			len(m.Vertices), len(m.Indices), len(m.SubMeshes))
	}
	if err := m.Validate(); err != nil {
		t.Errorf("empty mesh should validate: %v", err)
	}
}

func TestMesh_Layout(t *testing.T) {
	m := &Mesh{Vertices: []Vertex{{UV: mgl32.Vec2{0.5, 0.25}}}, Indices: []uint32{7}}
	vb := m.VertexBytes()
	if len(vb) != VertexStride {
		t.Fatalf("expected %d vertex bytes, got %d", VertexStride, len(vb))
	}
	last := Layout[len(Layout)-1]
	if last.Offset+last.Components*4 != VertexStride {
		t.Errorf("layout does not cover the stride: %+v", last)
	}
	// 0.5 little-endian at the uv offset
	if !bytes.Equal(vb[52:56], []byte{0x00, 0x00, 0x00, 0x3f}) {
		t.Errorf("unexpected uv bytes: %x", vb[52:56])
	}
	if !bytes.Equal(m.IndexBytes(), []byte{7, 0, 0, 0}) {
		t.Errorf("unexpected index bytes: %x", m.IndexBytes())
	}
}
