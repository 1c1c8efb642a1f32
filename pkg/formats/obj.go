// Wavefront OBJ parser for polygonal models.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrOBJSyntax reports a malformed OBJ statement.
var ErrOBJSyntax = errors.New("OBJ syntax error")

// DefaultOBJGroup names faces that appear before any o/g statement.
const DefaultOBJGroup = "default"

// OBJIndex references one face corner's attributes. Indices are zero-based;
// -1 marks an attribute the corner does not supply.
type OBJIndex struct {
	Vertex   int
	TexCoord int
	Normal   int
}

// OBJFace is a polygon with three or more corners.
type OBJFace struct {
	Corners  []OBJIndex
	Material int // index into OBJ.Materials, -1 for none
}

// OBJGroup is a named run of faces started by an o or g statement.
type OBJGroup struct {
	Name  string
	Faces []OBJFace
}

// OBJ represents a parsed Wavefront OBJ file.
type OBJ struct {
	Positions [][3]float32
	Colors    [][3]float32 // per position; empty when the file has none
	TexCoords [][2]float32
	Normals   [][3]float32
	Groups    []OBJGroup

	MaterialLibs []string // mtllib file names, in order
	Materials    []string // usemtl names in first-use order
}

// FaceCount returns the number of polygons across all groups.
func (o *OBJ) FaceCount() int {
	n := 0
	for _, g := range o.Groups {
		n += len(g.Faces)
	}
	return n
}

type objParser struct {
	obj       *OBJ
	line      int
	material  int
	materials map[string]int
	anyColor  bool
}

// ParseOBJ parses OBJ text. Polygons are kept as-is; triangulation is left
// to the caller.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	p := &objParser{
		obj:       &OBJ{},
		material:  -1,
		materials: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	if !p.anyColor {
		p.obj.Colors = nil
	}
	// Drop the implicit default group when nothing was added to it.
	groups := p.obj.Groups[:0]
	for _, g := range p.obj.Groups {
		if len(g.Faces) > 0 {
			groups = append(groups, g)
		}
	}
	p.obj.Groups = groups

	return p.obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

func (p *objParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrOBJSyntax, p.line, fmt.Sprintf(format, args...))
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	switch fields[0] {
	case "v":
		vals, err := p.floats(args, 3, 7)
		if err != nil {
			return err
		}
		p.obj.Positions = append(p.obj.Positions, [3]float32{vals[0], vals[1], vals[2]})
		color := [3]float32{1, 1, 1}
		if len(vals) >= 6 {
			color = [3]float32{vals[3], vals[4], vals[5]}
			p.anyColor = true
		}
		p.obj.Colors = append(p.obj.Colors, color)

	case "vt":
		vals, err := p.floats(args, 1, 3)
		if err != nil {
			return err
		}
		var uv [2]float32
		copy(uv[:], vals)
		p.obj.TexCoords = append(p.obj.TexCoords, uv)

	case "vn":
		vals, err := p.floats(args, 3, 3)
		if err != nil {
			return err
		}
		p.obj.Normals = append(p.obj.Normals, [3]float32{vals[0], vals[1], vals[2]})

	case "f":
		if len(args) < 3 {
			return p.errorf("face needs at least 3 corners, got %d", len(args))
		}
		face := OBJFace{Corners: make([]OBJIndex, len(args)), Material: p.material}
		for i, tok := range args {
			idx, err := p.corner(tok)
			if err != nil {
				return err
			}
			face.Corners[i] = idx
		}
		g := p.currentGroup()
		g.Faces = append(g.Faces, face)

	case "o", "g":
		name := DefaultOBJGroup
		if len(args) > 0 {
			name = strings.Join(args, " ")
		}
		p.startGroup(name)

	case "usemtl":
		if len(args) == 0 {
			return p.errorf("usemtl without a name")
		}
		name := strings.Join(args, " ")
		id, ok := p.materials[name]
		if !ok {
			id = len(p.obj.Materials)
			p.materials[name] = id
			p.obj.Materials = append(p.obj.Materials, name)
		}
		p.material = id

	case "mtllib":
		if len(args) == 0 {
			return p.errorf("mtllib without a file name")
		}
		p.obj.MaterialLibs = append(p.obj.MaterialLibs, strings.Join(args, " "))
	}
	// s, l, p, vp and other statements are ignored.

	return nil
}

func (p *objParser) currentGroup() *OBJGroup {
	if len(p.obj.Groups) == 0 {
		p.obj.Groups = append(p.obj.Groups, OBJGroup{Name: DefaultOBJGroup})
	}
	return &p.obj.Groups[len(p.obj.Groups)-1]
}

// startGroup begins a new group, renaming the current one if it has no faces.
func (p *objParser) startGroup(name string) {
	if n := len(p.obj.Groups); n > 0 && len(p.obj.Groups[n-1].Faces) == 0 {
		p.obj.Groups[n-1].Name = name
		return
	}
	p.obj.Groups = append(p.obj.Groups, OBJGroup{Name: name})
}

func (p *objParser) floats(args []string, minN, maxN int) ([]float32, error) {
	if len(args) < minN {
		return nil, p.errorf("expected at least %d values, got %d", minN, len(args))
	}
	if len(args) > maxN {
		args = args[:maxN]
	}
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, p.errorf("invalid number %q", a)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// corner parses v, v/vt, v//vn or v/vt/vn.
func (p *objParser) corner(tok string) (OBJIndex, error) {
	parts := strings.Split(tok, "/")
	if len(parts) > 3 || parts[0] == "" {
		return OBJIndex{}, p.errorf("invalid face corner %q", tok)
	}

	idx := OBJIndex{Vertex: -1, TexCoord: -1, Normal: -1}
	var err error
	if idx.Vertex, err = p.index(parts[0], len(p.obj.Positions)); err != nil {
		return OBJIndex{}, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if idx.TexCoord, err = p.index(parts[1], len(p.obj.TexCoords)); err != nil {
			return OBJIndex{}, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if idx.Normal, err = p.index(parts[2], len(p.obj.Normals)); err != nil {
			return OBJIndex{}, err
		}
	}
	return idx, nil
}

// index converts a one-based or negative (relative) OBJ index to zero-based.
// Positive indices are not range-checked here.
func (p *objParser) index(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf("invalid index %q", s)
	}
	switch {
	case n > 0:
		return n - 1, nil
	case n < 0 && count+n >= 0:
		return count + n, nil
	default:
		return 0, p.errorf("index %d out of range", n)
	}
}
