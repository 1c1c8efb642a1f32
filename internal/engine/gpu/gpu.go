// Package gpu uploads render-ready meshes through an abstract device and
// issues one draw per submesh.
package gpu

import (
	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// Handle names a device-side resource.
type Handle uint32

// NoHandle is bound for a texture slot that has nothing to show. Backends
// substitute a neutral texture for it.
const NoHandle Handle = 0

// Texture units used while drawing a submesh.
const (
	AlbedoUnit = 0
	DetailUnit = 1
)

// Device is the GPU upload capability. Calls must be made from the thread
// owning the graphics context.
type Device interface {
	CreateMesh(vertexData []byte, stride int, layout []mesh.Attribute, indices []uint32) (Handle, error)
	DeleteMesh(h Handle)
	// CreateTexture returns an error wrapping texture.ErrUnsupportedTextureFormat
	// for layouts the device cannot sample.
	CreateTexture(img *texture.Image) (Handle, error)
	DeleteTexture(h Handle)
	BindTexture(unit int, h Handle)
	DrawIndexed(h Handle, offset, count int)
}

// TextureSource resolves texture ids to decoded images. *texture.Store
// implements it.
type TextureSource interface {
	Get(id texture.ID) (*texture.Image, bool)
}
