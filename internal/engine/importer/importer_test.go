package importer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
	"github.com/Faultbox/midgard-meshview/pkg/encoding"
)

const panelOBJ = `mtllib scene.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
g panel
usemtl brick
f 1/1 2/2 3/3 4/4
g trim
usemtl brick_copy
f 1/1 3/3 4/4
usemtl ghost
f 1/1 2/2 3/3
`

const panelMTL = `newmtl brick
map_Kd brick.png
map_bump brick_n.png

newmtl brick_copy
map_Kd brick.png
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func writePanel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "panel.obj"), []byte(panelOBJ))
	writeFile(t, filepath.Join(dir, "scene.mtl"), []byte(panelMTL))

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "brick.png"), buf.Bytes())
	return filepath.Join(dir, "panel.obj")
}

func modelDirOptions() Options {
	opts := DefaultOptions()
	opts.TextureDir = ""
	return opts
}

func TestImport_OBJ(t *testing.T) {
	path := writePanel(t)
	im := New(nil, modelDirOptions(), nil)

	soup, err := im.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(soup.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(soup.Groups))
	}
	if n := len(soup.Groups[0].Faces); n != 2 {
		t.Errorf("quad should fan into 2 triangles, got %d", n)
	}
	if soup.TriangleCount() != 4 {
		t.Errorf("TriangleCount() = %d, want 4", soup.TriangleCount())
	}
	if soup.HasNormals() {
		t.Error("soup without vn should report no normals")
	}

	second := soup.Groups[0].Faces[1].Corners
	want := [3]int32{0, 2, 3}
	for k := range want {
		if second[k].Position != want[k] || second[k].UV != want[k] || second[k].Normal != mesh.Absent {
			t.Errorf("fan corner %d = %+v", k, second[k])
		}
	}

	if len(soup.Materials) != 3 {
		t.Fatalf("materials = %d, want 3", len(soup.Materials))
	}
	if soup.Materials[0].AlbedoPath != "brick.png" || soup.Materials[0].DetailPath != "brick_n.png" {
		t.Errorf("brick = %+v", soup.Materials[0])
	}
	if soup.Materials[2] != (mesh.MaterialRef{Name: "ghost"}) {
		t.Errorf("undefined material = %+v", soup.Materials[2])
	}
}

func TestLoad_OBJ(t *testing.T) {
	path := writePanel(t)
	store := texture.NewStore(texture.StoreOptions{})
	im := New(store, modelDirOptions(), nil)

	var m mesh.Mesh
	if err := im.Load(path, &m); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("loaded mesh invalid: %v", err)
	}

	if len(m.Vertices) != 4 || len(m.Indices) != 12 {
		t.Errorf("got %d vertices / %d indices, want 4 / 12", len(m.Vertices), len(m.Indices))
	}

	wantSubs := []mesh.SubMesh{
		{Name: "panel", IndexOffset: 0, IndexCount: 6, Material: 0},
		{Name: "trim", IndexOffset: 6, IndexCount: 3, Material: 1},
		{Name: "trim", IndexOffset: 9, IndexCount: 3, Material: 2},
	}
	if len(m.SubMeshes) != len(wantSubs) {
		t.Fatalf("submeshes = %+v", m.SubMeshes)
	}
	for i := range wantSubs {
		if m.SubMeshes[i] != wantSubs[i] {
			t.Errorf("submesh %d = %+v, want %+v", i, m.SubMeshes[i], wantSubs[i])
		}
	}

	brick, copyMat, ghost := m.Materials[0], m.Materials[1], m.Materials[2]
	if brick.Albedo == texture.None {
		t.Error("brick albedo not loaded")
	}
	if brick.Detail != texture.None {
		t.Error("missing detail texture should resolve to None")
	}
	if copyMat.Albedo != brick.Albedo {
		t.Errorf("shared texture loaded twice: %d vs %d", copyMat.Albedo, brick.Albedo)
	}
	if ghost.Albedo != texture.None || ghost.Detail != texture.None {
		t.Errorf("undefined material has textures: %+v", ghost)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d textures, want 1", store.Len())
	}

	// OBJ v=0 is the bottom edge; flipped it becomes the top.
	if uv := m.Vertices[0].UV; uv != (mgl32.Vec2{0, 1}) {
		t.Errorf("vertex 0 uv = %v, want [0 1]", uv)
	}
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5) {
			t.Errorf("vertex %d normal = %v", i, v.Normal)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	badIndex := filepath.Join(dir, "bad_index.obj")
	writeFile(t, badIndex, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"))
	hugeIndex := filepath.Join(dir, "huge_index.obj")
	writeFile(t, hugeIndex, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4294967297\n"))
	badSyntax := filepath.Join(dir, "bad_syntax.obj")
	writeFile(t, badSyntax, []byte("v 0 0 zero\n"))
	unsupported := filepath.Join(dir, "model.fbx")
	writeFile(t, unsupported, []byte("fbx"))

	tests := []struct {
		name string
		path string
		kind error
	}{
		{"nonexistent", filepath.Join(dir, "missing.obj"), ErrFileNotFound},
		{"out of range index", badIndex, ErrValidation},
		{"index wider than int32", hugeIndex, ErrValidation},
		{"syntax", badSyntax, ErrParse},
		{"unsupported", unsupported, ErrUnsupported},
	}

	im := New(nil, DefaultOptions(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mesh.Mesh{
				Vertices:  make([]mesh.Vertex, 3),
				Indices:   []uint32{0, 1, 2},
				SubMeshes: []mesh.SubMesh{{Name: "stale", IndexCount: 3, Material: -1}},
			}

			err := im.Load(tt.path, &m)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			var ie *Error
			if !errors.As(err, &ie) || ie.Op != "load" || ie.Path != tt.path {
				t.Errorf("expected *Error for load %s, got %#v", tt.path, err)
			}
			if len(m.Vertices) != 0 || len(m.Indices) != 0 || len(m.SubMeshes) != 0 {
				t.Errorf("failed load left data in destination: %d vertices, %d indices",
					len(m.Vertices), len(m.Indices))
			}
		})
	}

	for _, path := range []string{badIndex, hugeIndex} {
		if _, err := im.Import(path); !errors.Is(err, mesh.ErrIndexOutOfRange) {
			t.Errorf("Import(%s) should expose the cause, got %v", filepath.Base(path), err)
		}
	}
}

// rsmTriangle builds a v1.5 RSM with one node holding one triangle.
func rsmTriangle(texName string, position [3]float32, scale [3]float32) []byte {
	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }
	name := func(s string) {
		b := make([]byte, 40)
		copy(b, s)
		buf.Write(b)
	}

	buf.WriteString("GRSM")
	w([2]uint8{1, 5})
	w(int32(0))    // animation length
	w(int32(2))    // shading
	w(uint8(255))  // alpha
	w([16]byte{})  // reserved
	w(int32(1))    // textures
	name(texName)
	name("root")
	w(int32(1)) // nodes

	name("root")
	name("")
	w(int32(1)) // node textures
	w(int32(0))
	w([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
	w([3]float32{}) // offset
	w(position)
	w(float32(0))   // rotation angle
	w([3]float32{}) // rotation axis
	w(scale)

	w(int32(3))
	w([3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	w(int32(3))
	for _, uv := range [][2]float32{{0, 0}, {1, 0}, {0, 1}} {
		w([4]uint8{255, 255, 255, 255})
		w(uv)
	}
	w(int32(1))
	w([3]uint16{0, 1, 2})
	w([3]uint16{0, 1, 2})
	w(uint16(0)) // texture
	w(uint16(0)) // padding
	w(int32(0))  // two-sided
	w(int32(0))  // smooth group

	w(int32(0)) // rotation keys
	w(int32(0)) // scale keys
	w(int32(0)) // volume boxes
	return buf.Bytes()
}

func TestImport_RSM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.rsm")
	texName := string(encoding.UTF8ToEUCKR("나무\\tree.bmp"))
	writeFile(t, path, rsmTriangle(texName, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}))

	im := New(nil, DefaultOptions(), nil)
	soup, err := im.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(soup.Materials) != 1 || soup.Materials[0].AlbedoPath != "나무/tree.bmp" {
		t.Errorf("materials = %+v", soup.Materials)
	}
	wantPos := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, -1, 0}}
	for i, p := range wantPos {
		if !soup.Positions[i].ApproxEqual(p) {
			t.Errorf("position %d = %v, want %v", i, soup.Positions[i], p)
		}
	}

	face := soup.Groups[0].Faces[0]
	if face.Material != 0 {
		t.Errorf("face material = %d, want 0", face.Material)
	}
	if face.Corners[1].Position != 2 || face.Corners[2].Position != 1 {
		t.Errorf("winding not reversed after Y flip: %+v", face.Corners)
	}

	var m mesh.Mesh
	if err := im.Load(path, &m); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5) {
			t.Errorf("vertex %d normal = %v, want [0 0 1]", i, v.Normal)
		}
	}
	if m.Materials[0].Albedo != texture.None {
		t.Error("missing RSM texture should resolve to None")
	}
}

func TestImport_RSMMirroredNode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mirror.rsm")
	writeFile(t, path, rsmTriangle("a.bmp", [3]float32{2, 0, 0}, [3]float32{-1, 1, 1}))

	soup, err := New(nil, DefaultOptions(), nil).Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !soup.Positions[1].ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("mirrored position = %v, want [1 0 0]", soup.Positions[1])
	}
	if c := soup.Groups[0].Faces[0].Corners; c[1].Position != 1 || c[2].Position != 2 {
		t.Errorf("mirroring transform should keep source winding: %+v", c)
	}
}

func TestTexturePath(t *testing.T) {
	im := New(nil, Options{TextureDir: "textures"}, nil)
	if got := im.TexturePath("models/a.obj", "wood/oak.png"); got != filepath.Join("textures", "wood", "oak.png") {
		t.Errorf("TexturePath = %q", got)
	}

	local := New(nil, Options{}, nil)
	if got := local.TexturePath(filepath.Join("models", "a.obj"), "oak.png"); got != filepath.Join("models", "oak.png") {
		t.Errorf("model-relative TexturePath = %q", got)
	}
}
