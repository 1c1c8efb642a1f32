// Package importer reads model files into polygon soups and runs them through
// deduplication, tangent synthesis and material resolution.
package importer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// DefaultTextureDir is where texture references are resolved when no other
// directory is configured.
const DefaultTextureDir = "assets/models/textures/"

// Options configures an Importer.
type Options struct {
	// TextureDir is joined with every relative texture name. When empty,
	// textures resolve next to the model file.
	TextureDir string
	// FlipV converts bottom-left UV origins (OBJ) to top-left.
	FlipV bool
	// SmoothAcrossSubmeshes shares normals between submeshes at a position.
	SmoothAcrossSubmeshes bool
	// UseSourceNormals keeps normals supplied by the file.
	UseSourceNormals bool
	// AnimTimeMs selects the RSM animation pose baked into positions.
	AnimTimeMs float32
}

// DefaultOptions returns the standard import settings.
func DefaultOptions() Options {
	return Options{
		TextureDir:            DefaultTextureDir,
		FlipV:                 true,
		SmoothAcrossSubmeshes: true,
	}
}

// Importer loads model files. It is not safe for concurrent use; the
// texture store it shares is.
type Importer struct {
	store *texture.Store
	opts  Options
	log   *zap.Logger
}

// New creates an importer that resolves textures through store.
// A nil store gets a private one; a nil logger discards output.
func New(store *texture.Store, opts Options, log *zap.Logger) *Importer {
	if store == nil {
		store = texture.NewStore(texture.StoreOptions{})
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, opts: opts, log: log}
}

// Store returns the texture store materials resolve through.
func (im *Importer) Store() *texture.Store {
	return im.store
}

// format is a supported model file type.
type format struct {
	name string
	// flipV reports whether the format stores bottom-left UVs.
	flipV bool
	parse func(im *Importer, path string) (*mesh.Soup, error)
}

var importers = map[string]format{
	".obj": {name: "obj", flipV: true, parse: (*Importer).importOBJ},
	".rsm": {name: "rsm", flipV: false, parse: (*Importer).importRSM},
}

// Formats returns the supported file extensions.
func Formats() []string {
	return []string{".obj", ".rsm"}
}

// Import reads a model file into a validated polygon soup.
func (im *Importer) Import(path string) (*mesh.Soup, error) {
	soup, _, err := im.importSoup("import", path)
	return soup, err
}

func (im *Importer) importSoup(op, path string) (*mesh.Soup, format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := importers[ext]
	if !ok {
		return nil, format{}, newError(op, path, ErrUnsupported, nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, f, newError(op, path, ErrFileNotFound, err)
		}
		return nil, f, newError(op, path, ErrParse, err)
	}
	if info.IsDir() {
		return nil, f, newError(op, path, ErrUnsupported, errors.New("is a directory"))
	}

	soup, err := f.parse(im, path)
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			ie.Op = op
			return nil, f, ie
		}
		return nil, f, newError(op, path, ErrParse, err)
	}
	if err := soup.Validate(); err != nil {
		return nil, f, newError(op, path, ErrValidation, err)
	}
	return soup, f, nil
}

// Load imports path and builds a render-ready mesh into dst. On any error
// dst is reset to an empty mesh.
func (im *Importer) Load(path string, dst *mesh.Mesh) error {
	start := time.Now()
	log := im.log.With(
		zap.String("import_id", uuid.NewString()),
		zap.String("path", path),
	)

	soup, f, err := im.importSoup("load", path)
	if err != nil {
		dst.Reset()
		log.Warn("import failed", zap.Error(err))
		return err
	}

	res, err := mesh.Deduplicate(soup, mesh.DedupOptions{FlipV: f.flipV && im.opts.FlipV})
	if err != nil {
		dst.Reset()
		err = newError("load", path, ErrValidation, err)
		log.Warn("import failed", zap.Error(err))
		return err
	}
	mesh.SynthesizeTangents(res, mesh.TangentOptions{
		SmoothAcrossSubmeshes: im.opts.SmoothAcrossSubmeshes,
		UseSourceNormals:      im.opts.UseSourceNormals,
	})

	m := res.Mesh
	im.resolveMaterials(log, path, soup.Materials, m.Materials)

	*dst = *m

	log.Info("model loaded",
		zap.String("format", f.name),
		zap.Int("positions", len(soup.Positions)),
		zap.Int("vertices", len(dst.Vertices)),
		zap.Int("triangles", dst.TriangleCount()),
		zap.Int("submeshes", len(dst.SubMeshes)),
		zap.Int("materials", len(dst.Materials)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
