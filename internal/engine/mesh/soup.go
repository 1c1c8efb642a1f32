package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Absent marks a corner attribute the source did not supply.
const Absent int32 = -1

// Corner references one triangle corner's attributes. Each attribute stream is
// indexed independently; Normal and UV may be Absent.
type Corner struct {
	Position int32
	Normal   int32
	UV       int32
}

// Face is a triangle with its material assignment (-1 for none).
type Face struct {
	Corners  [3]Corner
	Material int
}

// Group is a named set of faces that becomes one or more submeshes.
type Group struct {
	Name  string
	Faces []Face
}

// MaterialRef is a material as named by the source file, textures unresolved.
type MaterialRef struct {
	Name       string
	AlbedoPath string
	DetailPath string
}

// Soup is unstructured triangle geometry with independently indexed
// attribute streams, as produced by an importer.
type Soup struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Colors    []mgl32.Vec3 // per position, empty when the source has none
	Groups    []Group
	Materials []MaterialRef
}

// TriangleCount returns the total number of faces across all groups.
func (s *Soup) TriangleCount() int {
	n := 0
	for i := range s.Groups {
		n += len(s.Groups[i].Faces)
	}
	return n
}

// HasNormals reports whether any corner references a source normal.
func (s *Soup) HasNormals() bool {
	if len(s.Normals) == 0 {
		return false
	}
	for i := range s.Groups {
		for _, f := range s.Groups[i].Faces {
			for _, c := range f.Corners {
				if c.Normal != Absent {
					return true
				}
			}
		}
	}
	return false
}

// Validate rejects any reference outside its attribute stream.
func (s *Soup) Validate() error {
	nPos := int32(len(s.Positions))
	nUV := int32(len(s.UVs))
	nNorm := int32(len(s.Normals))

	if len(s.Colors) > 0 && len(s.Colors) != len(s.Positions) {
		return fmt.Errorf("%w: %d colors for %d positions", ErrIndexOutOfRange, len(s.Colors), len(s.Positions))
	}

	for gi := range s.Groups {
		g := &s.Groups[gi]
		for fi, f := range g.Faces {
			if f.Material < -1 || f.Material >= len(s.Materials) {
				return fmt.Errorf("%w: group %q face %d material %d of %d",
					ErrIndexOutOfRange, g.Name, fi, f.Material, len(s.Materials))
			}
			for ci, c := range f.Corners {
				if c.Position < 0 || c.Position >= nPos {
					return fmt.Errorf("%w: group %q face %d corner %d position %d of %d",
						ErrIndexOutOfRange, g.Name, fi, ci, c.Position, nPos)
				}
				if c.UV != Absent && (c.UV < 0 || c.UV >= nUV) {
					return fmt.Errorf("%w: group %q face %d corner %d uv %d of %d",
						ErrIndexOutOfRange, g.Name, fi, ci, c.UV, nUV)
				}
				if c.Normal != Absent && (c.Normal < 0 || c.Normal >= nNorm) {
					return fmt.Errorf("%w: group %q face %d corner %d normal %d of %d",
						ErrIndexOutOfRange, g.Name, fi, ci, c.Normal, nNorm)
				}
			}
		}
	}
	return nil
}
