package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/pkg/formats"
)

// importOBJ parses a Wavefront OBJ file and its material libraries.
// Polygons are fan-triangulated.
func (im *Importer) importOBJ(path string) (*mesh.Soup, error) {
	obj, err := formats.ParseOBJFile(path)
	if err != nil {
		return nil, err
	}

	soup := &mesh.Soup{
		Positions: make([]mgl32.Vec3, len(obj.Positions)),
		Normals:   make([]mgl32.Vec3, len(obj.Normals)),
		UVs:       make([]mgl32.Vec2, len(obj.TexCoords)),
	}
	for i, p := range obj.Positions {
		soup.Positions[i] = mgl32.Vec3(p)
	}
	for i, n := range obj.Normals {
		soup.Normals[i] = mgl32.Vec3(n)
	}
	for i, uv := range obj.TexCoords {
		soup.UVs[i] = mgl32.Vec2(uv)
	}
	if len(obj.Colors) > 0 {
		soup.Colors = make([]mgl32.Vec3, len(obj.Colors))
		for i, c := range obj.Colors {
			soup.Colors[i] = mgl32.Vec3(c)
		}
	}

	soup.Materials = im.objMaterials(path, obj)

	for _, g := range obj.Groups {
		group := mesh.Group{Name: g.Name}
		for fi, f := range g.Faces {
			corners := make([]mesh.Corner, len(f.Corners))
			for i, c := range f.Corners {
				if corners[i], err = objCorner(c); err != nil {
					return nil, newError("import", path, ErrValidation,
						fmt.Errorf("group %q face %d: %w", g.Name, fi, err))
				}
			}
			for k := 1; k+1 < len(corners); k++ {
				group.Faces = append(group.Faces, mesh.Face{
					Corners:  [3]mesh.Corner{corners[0], corners[k], corners[k+1]},
					Material: f.Material,
				})
			}
		}
		soup.Groups = append(soup.Groups, group)
	}

	return soup, nil
}

// objMaterials builds one material per usemtl name, taking texture maps from
// the first library that defines it. Missing libraries and undefined names
// are logged and produce materials without textures.
func (im *Importer) objMaterials(path string, obj *formats.OBJ) []mesh.MaterialRef {
	if len(obj.Materials) == 0 {
		return nil
	}

	var libs []*formats.MTL
	for _, lib := range obj.MaterialLibs {
		libPath := filepath.Join(filepath.Dir(path), filepath.FromSlash(lib))
		mtl, err := formats.ParseMTLFile(libPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				im.log.Warn("material library not found", zap.String("path", libPath))
			} else {
				im.log.Warn("material library unreadable", zap.String("path", libPath), zap.Error(err))
			}
			continue
		}
		libs = append(libs, mtl)
	}

	refs := make([]mesh.MaterialRef, len(obj.Materials))
	for i, name := range obj.Materials {
		refs[i].Name = name
		var def *formats.MTLMaterial
		for _, lib := range libs {
			if def = lib.Find(name); def != nil {
				break
			}
		}
		if def == nil {
			im.log.Warn("material not defined", zap.String("material", name))
			continue
		}
		refs[i].AlbedoPath = def.DiffuseMap
		refs[i].DetailPath = def.BumpMap
	}
	return refs
}

// objCorner narrows parsed indices to soup indices. An index too large for
// int32 cannot reference anything and is reported rather than wrapped.
func objCorner(idx formats.OBJIndex) (mesh.Corner, error) {
	for _, i := range []int{idx.Vertex, idx.TexCoord, idx.Normal} {
		if i > math.MaxInt32 {
			return mesh.Corner{}, fmt.Errorf("%w: corner index %d", mesh.ErrIndexOutOfRange, i)
		}
	}
	c := mesh.Corner{Position: int32(idx.Vertex), Normal: mesh.Absent, UV: mesh.Absent}
	if idx.TexCoord >= 0 {
		c.UV = int32(idx.TexCoord)
	}
	if idx.Normal >= 0 {
		c.Normal = int32(idx.Normal)
	}
	return c, nil
}
