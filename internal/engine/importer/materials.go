package importer

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// resolveMaterials loads every referenced texture through the store. A
// texture that cannot be loaded leaves its slot at texture.None.
func (im *Importer) resolveMaterials(log *zap.Logger, modelPath string, refs []mesh.MaterialRef, dst []mesh.Material) {
	for i := range refs {
		ref := &refs[i]
		dst[i].Albedo = im.loadTexture(log, modelPath, ref.Name, "albedo", ref.AlbedoPath)
		dst[i].Detail = im.loadTexture(log, modelPath, ref.Name, "detail", ref.DetailPath)
	}
}

func (im *Importer) loadTexture(log *zap.Logger, modelPath, material, slot, name string) texture.ID {
	if name == "" {
		return texture.None
	}
	path := im.TexturePath(modelPath, name)
	id, err := im.store.Load(path)
	if err != nil {
		log.Warn("texture unavailable",
			zap.String("material", material),
			zap.String("slot", slot),
			zap.String("texture", path),
			zap.Error(err),
		)
		return texture.None
	}
	return id
}

// TexturePath resolves a texture name referenced by a model file.
func (im *Importer) TexturePath(modelPath, name string) string {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	dir := im.opts.TextureDir
	if dir == "" {
		dir = filepath.Dir(modelPath)
	}
	return filepath.Join(dir, name)
}
