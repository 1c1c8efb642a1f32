package gpu

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// boundMaterial holds the device textures for one mesh material.
type boundMaterial struct {
	albedo Handle
	detail Handle
}

// MeshBuffers owns the device resources of one uploaded mesh.
type MeshBuffers struct {
	dev      Device
	textures TextureSource
	log      *zap.Logger

	mesh      Handle
	subMeshes []mesh.SubMesh
	materials []boundMaterial
	// uploaded is keyed by texture id so materials sharing a texture share
	// one device texture.
	uploaded map[texture.ID]Handle
}

// NewMeshBuffers creates empty buffers for dev. A nil logger discards output.
func NewMeshBuffers(dev Device, textures TextureSource, log *zap.Logger) *MeshBuffers {
	if log == nil {
		log = zap.NewNop()
	}
	return &MeshBuffers{
		dev:      dev,
		textures: textures,
		log:      log,
		uploaded: make(map[texture.ID]Handle),
	}
}

// Create uploads m. An empty mesh creates nothing and draws nothing.
// Textures that are missing or in a format the device cannot sample are
// bound as NoHandle.
func (b *MeshBuffers) Create(m *mesh.Mesh) error {
	if b.mesh != NoHandle {
		return fmt.Errorf("%w: buffers already created", mesh.ErrInvalidMesh)
	}
	if m.Empty() {
		return nil
	}
	if err := m.Validate(); err != nil {
		return err
	}

	h, err := b.dev.CreateMesh(m.VertexBytes(), mesh.VertexStride, mesh.Layout, m.Indices)
	if err != nil {
		return fmt.Errorf("creating mesh buffers: %w", err)
	}
	b.mesh = h
	b.subMeshes = append(b.subMeshes[:0], m.SubMeshes...)

	b.materials = make([]boundMaterial, len(m.Materials))
	for i, mat := range m.Materials {
		b.materials[i] = boundMaterial{
			albedo: b.uploadTexture(mat.Name, mat.Albedo),
			detail: b.uploadTexture(mat.Name, mat.Detail),
		}
	}

	b.log.Debug("mesh uploaded",
		zap.Uint32("handle", uint32(h)),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("submeshes", len(m.SubMeshes)),
		zap.Int("textures", len(b.uploaded)),
	)
	return nil
}

func (b *MeshBuffers) uploadTexture(material string, id texture.ID) Handle {
	if id == texture.None || b.textures == nil {
		return NoHandle
	}
	if h, ok := b.uploaded[id]; ok {
		return h
	}

	img, ok := b.textures.Get(id)
	if !ok {
		b.log.Warn("texture not in store", zap.String("material", material), zap.Uint32("texture", uint32(id)))
		return NoHandle
	}
	h, err := b.dev.CreateTexture(img)
	if err != nil {
		b.log.Warn("texture upload failed", zap.String("material", material), zap.Uint32("texture", uint32(id)), zap.Error(err))
		// Remember the failure so shared textures are not retried per material.
		b.uploaded[id] = NoHandle
		return NoHandle
	}
	b.uploaded[id] = h
	return h
}

// Destroy releases every device resource. It is safe to call on buffers
// that were never created.
func (b *MeshBuffers) Destroy() {
	if b.mesh != NoHandle {
		b.dev.DeleteMesh(b.mesh)
		b.mesh = NoHandle
	}
	for id, h := range b.uploaded {
		if h != NoHandle {
			b.dev.DeleteTexture(h)
		}
		delete(b.uploaded, id)
	}
	b.subMeshes = b.subMeshes[:0]
	b.materials = b.materials[:0]
}

// Reload replaces the uploaded mesh, after a hot reload or a lost context.
// On error the buffers are left empty.
func (b *MeshBuffers) Reload(m *mesh.Mesh) error {
	b.Destroy()
	return b.Create(m)
}

// Created reports whether a mesh is uploaded.
func (b *MeshBuffers) Created() bool {
	return b.mesh != NoHandle
}

// Draw issues one indexed draw per submesh with its material's textures
// bound. It returns the number of draws.
func (b *MeshBuffers) Draw() int {
	if b.mesh == NoHandle {
		return 0
	}
	draws := 0
	for _, sub := range b.subMeshes {
		if sub.IndexCount == 0 {
			continue
		}
		var mat boundMaterial
		if sub.Material >= 0 && sub.Material < len(b.materials) {
			mat = b.materials[sub.Material]
		}
		b.dev.BindTexture(AlbedoUnit, mat.albedo)
		b.dev.BindTexture(DetailUnit, mat.detail)
		b.dev.DrawIndexed(b.mesh, sub.IndexOffset, sub.IndexCount)
		draws++
	}
	return draws
}
