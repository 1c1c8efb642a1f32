package viewer

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/assets"
	"github.com/Faultbox/midgard-meshview/internal/config"
	"github.com/Faultbox/midgard-meshview/internal/engine/gpu"
	"github.com/Faultbox/midgard-meshview/internal/engine/importer"
	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// Session is the model currently on screen: its imported mesh and the
// device buffers drawing it.
type Session struct {
	log      *zap.Logger
	assets   *assets.Manager
	store    *texture.Store
	importer *importer.Importer
	buffers  *gpu.MeshBuffers

	modelPath string
	mesh      mesh.Mesh
}

// ImportOptions maps the import section of the config.
func ImportOptions(cfg config.ImportConfig) importer.Options {
	return importer.Options{
		TextureDir:            cfg.TextureDir,
		FlipV:                 cfg.FlipV,
		SmoothAcrossSubmeshes: cfg.SmoothAcrossSubmeshes,
		UseSourceNormals:      cfg.UseSourceNormals,
		AnimTimeMs:            cfg.AnimTimeMs,
	}
}

// NewSession creates an empty session drawing through dev.
func NewSession(dev gpu.Device, cfg *config.Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	manager := assets.NewManager(cfg.Assets.Roots...)
	store := texture.NewStore(texture.StoreOptions{
		Source:     manager,
		MagentaKey: cfg.Import.MagentaKey,
	})
	return &Session{
		log:      log,
		assets:   manager,
		store:    store,
		importer: importer.New(store, ImportOptions(cfg.Import), log.Named("importer")),
		buffers:  gpu.NewMeshBuffers(dev, store, log.Named("gpu")),
	}
}

// Open imports a model and uploads it. The model path is resolved against
// the asset roots. On error the session draws nothing.
func (s *Session) Open(name string) error {
	path, err := s.assets.Resolve(name)
	if err != nil {
		// Let the importer report the missing file in its own terms.
		path = name
	}
	s.modelPath = path

	loadErr := s.importer.Load(path, &s.mesh)
	if err := s.buffers.Reload(&s.mesh); err != nil {
		s.mesh.Reset()
		s.buffers.Destroy()
		return err
	}
	return loadErr
}

// Reload imports the current model again.
func (s *Session) Reload() error {
	if s.modelPath == "" {
		return nil
	}
	return s.Open(s.modelPath)
}

// HandleChanges reacts to changed files. Textures used by the mesh are
// evicted so they are read again, then the model is reloaded. It reports
// whether a reload happened.
func (s *Session) HandleChanges(changed []string) (bool, error) {
	if s.modelPath == "" || len(changed) == 0 {
		return false, nil
	}

	set := make(map[string]bool, len(changed))
	for _, p := range changed {
		set[absPath(p)] = true
	}

	for _, mat := range s.mesh.Materials {
		for _, id := range []texture.ID{mat.Albedo, mat.Detail} {
			if id == texture.None {
				continue
			}
			p := s.store.Path(id)
			if p != "" && set[absPath(p)] {
				s.store.Evict(p)
				s.assets.Invalidate(p)
			}
		}
	}

	s.log.Info("reloading after change", zap.Strings("files", changed))
	return true, s.Reload()
}

// WatchTargets returns the directories whose files affect the model: its
// own directory (model and material libraries) and the texture directory.
func (s *Session) WatchTargets(textureDir string) []string {
	if s.modelPath == "" {
		return nil
	}
	dirs := []string{filepath.Dir(s.modelPath)}
	if textureDir != "" {
		if p, err := filepath.Abs(textureDir); err == nil && p != absPath(dirs[0]) {
			dirs = append(dirs, textureDir)
		}
	}
	return dirs
}

// Mesh returns the mesh on screen.
func (s *Session) Mesh() *mesh.Mesh {
	return &s.mesh
}

// ModelPath returns the resolved path of the open model.
func (s *Session) ModelPath() string {
	return s.modelPath
}

// Draw draws the mesh and returns the number of draw calls.
func (s *Session) Draw() int {
	return s.buffers.Draw()
}

// Close releases device buffers and cached data.
func (s *Session) Close() {
	s.buffers.Destroy()
	s.store.Clear()
	s.assets.Close()
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}
