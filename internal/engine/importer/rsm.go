package importer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/pkg/encoding"
	"github.com/Faultbox/midgard-meshview/pkg/formats"
)

// importRSM parses a Ragnarok Online RSM model. Node transforms are baked
// into positions at Options.AnimTimeMs, one group per node, one material per
// RSM texture.
func (im *Importer) importRSM(path string) (*mesh.Soup, error) {
	rsm, err := formats.ParseRSMFile(path)
	if err != nil {
		return nil, err
	}

	soup := &mesh.Soup{
		Materials: make([]mesh.MaterialRef, len(rsm.Textures)),
	}
	for i, name := range rsm.Textures {
		p := encoding.AssetPath(name)
		soup.Materials[i] = mesh.MaterialRef{Name: p, AlbedoPath: p}
	}

	twoSided := 0
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		group, err := rsmNodeGroup(soup, rsm, node, im.opts.AnimTimeMs)
		if err != nil {
			return nil, newError("import", path, ErrValidation, fmt.Errorf("node %q: %w", node.Name, err))
		}
		soup.Groups = append(soup.Groups, group)
		for _, f := range node.Faces {
			if f.TwoSide != 0 {
				twoSided++
			}
		}
	}

	if twoSided > 0 {
		im.log.Debug("two-sided faces imported single-sided",
			zap.String("path", path), zap.Int("faces", twoSided))
	}
	return soup, nil
}

// rsmNodeGroup appends a node's transformed vertices and texture coordinates
// to the soup and returns its faces.
func rsmNodeGroup(soup *mesh.Soup, rsm *formats.RSM, node *formats.RSMNode, animTimeMs float32) (mesh.Group, error) {
	m := BuildNodeMatrix(node, rsm, animTimeMs)
	// Y is flipped into the viewer's up axis, which mirrors the mesh.
	// Winding is reversed to compensate, and again for mirroring transforms.
	reverse := m.Mat3().Det() > 0

	posBase := int32(len(soup.Positions))
	for _, v := range node.Vertices {
		p := m.Mul4x1(mgl32.Vec3(v).Vec4(1)).Vec3()
		p[1] = -p[1]
		soup.Positions = append(soup.Positions, p)
	}
	uvBase := int32(len(soup.UVs))
	for _, tc := range node.TexCoords {
		soup.UVs = append(soup.UVs, mgl32.Vec2{tc.U, tc.V})
	}

	group := mesh.Group{Name: node.Name, Faces: make([]mesh.Face, 0, len(node.Faces))}
	for fi, f := range node.Faces {
		var face mesh.Face
		for k := 0; k < 3; k++ {
			vid, tid := f.VertexIDs[k], f.TexCoordIDs[k]
			if int(vid) >= len(node.Vertices) {
				return group, fmt.Errorf("face %d vertex %d of %d: %w", fi, vid, len(node.Vertices), mesh.ErrIndexOutOfRange)
			}
			if int(tid) >= len(node.TexCoords) {
				return group, fmt.Errorf("face %d texcoord %d of %d: %w", fi, tid, len(node.TexCoords), mesh.ErrIndexOutOfRange)
			}
			face.Corners[k] = mesh.Corner{
				Position: posBase + int32(vid),
				Normal:   mesh.Absent,
				UV:       uvBase + int32(tid),
			}
		}
		if reverse {
			face.Corners[1], face.Corners[2] = face.Corners[2], face.Corners[1]
		}

		face.Material = -1
		if int(f.TextureID) < len(node.TextureIDs) {
			if tex := node.TextureIDs[f.TextureID]; tex >= 0 && int(tex) < len(rsm.Textures) {
				face.Material = int(tex)
			}
		}
		group.Faces = append(group.Faces, face)
	}
	return group, nil
}
