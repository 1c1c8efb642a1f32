// meshtool is a CLI utility for inspecting models the viewer loads.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/Faultbox/midgard-meshview/internal/config"
	"github.com/Faultbox/midgard-meshview/internal/engine/importer"
	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
	"github.com/Faultbox/midgard-meshview/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "check":
		cmdCheck(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - model inspection utility

Usage:
  meshtool <command> [options] <model>

Commands:
  info <model>           Show soup and mesh statistics
  dump <model>           Print vertices, indices and submeshes
  check <model>...       Import models and report failures

Common options:
  -config <file>         Read import settings from a config file
  -texture-dir <dir>     Directory texture names resolve against
  -v                     Log import details

Examples:
  meshtool info assets/models/crate.obj
  meshtool dump -n 10 data/model/tree.rsm
  meshtool check -texture-dir data/texture models/*.rsm`)
}

// importFlags registers the options shared by every command.
type importFlags struct {
	config     *string
	textureDir *string
	verbose    *bool
}

func newFlagSet(name string) (*flag.FlagSet, importFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, importFlags{
		config:     fs.String("config", "", "Config file to read import settings from"),
		textureDir: fs.String("texture-dir", "", "Directory texture names resolve against"),
		verbose:    fs.Bool("v", false, "Log import details"),
	}
}

// newImporter builds an importer from defaults, the optional config file
// and the command-line overrides, in that order.
func newImporter(f importFlags) *importer.Importer {
	cfg := config.Default()
	if *f.config != "" {
		loaded, err := config.LoadFile(*f.config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *f.textureDir != "" {
		cfg.Import.TextureDir = *f.textureDir
	}

	if *f.verbose {
		if err := logger.Init("debug", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		}
	}

	store := texture.NewStore(texture.StoreOptions{MagentaKey: cfg.Import.MagentaKey})
	return importer.New(store, importer.Options{
		TextureDir:            cfg.Import.TextureDir,
		FlipV:                 cfg.Import.FlipV,
		SmoothAcrossSubmeshes: cfg.Import.SmoothAcrossSubmeshes,
		UseSourceNormals:      cfg.Import.UseSourceNormals,
		AnimTimeMs:            cfg.Import.AnimTimeMs,
	}, logger.Named("importer"))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs, f := newFlagSet("info")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info [options] <model>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	im := newImporter(f)

	soup, err := im.Import(path)
	if err != nil {
		fail(err)
	}
	var m mesh.Mesh
	if err := im.Load(path, &m); err != nil {
		fail(err)
	}

	fmt.Printf("Model:      %s\n", path)
	fmt.Printf("Positions:  %d\n", len(soup.Positions))
	fmt.Printf("Normals:    %d\n", len(soup.Normals))
	fmt.Printf("UVs:        %d\n", len(soup.UVs))
	fmt.Printf("Triangles:  %d\n", soup.TriangleCount())
	fmt.Printf("Vertices:   %d (%.2fx positions)\n", len(m.Vertices), ratio(len(m.Vertices), len(soup.Positions)))
	fmt.Printf("Indices:    %d\n", len(m.Indices))
	fmt.Printf("GPU size:   %.1f KB\n", float64(len(m.Vertices)*mesh.VertexStride+len(m.Indices)*4)/1024)
	fmt.Printf("Bounds:     min %v max %v\n", m.Bounds.Min, m.Bounds.Max)
	fmt.Println()

	fmt.Println("Submeshes:")
	for _, sm := range m.SubMeshes {
		mat := "(none)"
		if sm.Material >= 0 {
			mat = m.Materials[sm.Material].Name
		}
		fmt.Printf("  %-20s %6d triangles  material %s\n", sm.Name, sm.IndexCount/3, mat)
	}
	fmt.Println()

	fmt.Println("Materials:")
	store := im.Store()
	for i, ref := range soup.Materials {
		fmt.Printf("  %-20s albedo %s  detail %s\n", ref.Name,
			textureStatus(store, ref.AlbedoPath, m.Materials[i].Albedo),
			textureStatus(store, ref.DetailPath, m.Materials[i].Detail))
	}
}

func textureStatus(store *texture.Store, name string, id texture.ID) string {
	switch {
	case name == "":
		return "-"
	case id == texture.None:
		return name + " (missing)"
	}
	img, _ := store.Get(id)
	return fmt.Sprintf("%s (%dx%d)", name, img.Width, img.Height)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func cmdDump(args []string) {
	fs, f := newFlagSet("dump")
	limit := fs.Int("n", 0, "Limit output to N vertices and triangles (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool dump [options] <model>")
		os.Exit(1)
	}

	var m mesh.Mesh
	if err := newImporter(f).Load(fs.Arg(0), &m); err != nil {
		fail(err)
	}

	fmt.Printf("Vertices (%d):\n", len(m.Vertices))
	for i, v := range m.Vertices {
		if *limit > 0 && i >= *limit {
			fmt.Printf("  ... %d more\n", len(m.Vertices)-i)
			break
		}
		fmt.Printf("  %5d pos %7.3f %7.3f %7.3f  n %6.3f %6.3f %6.3f  t %6.3f %6.3f %6.3f %+.0f  uv %.3f %.3f\n",
			i, v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.Tangent[0], v.Tangent[1], v.Tangent[2], v.Tangent[3],
			v.UV[0], v.UV[1])
	}

	fmt.Printf("\nTriangles (%d):\n", m.TriangleCount())
	for t := 0; t*3 < len(m.Indices); t++ {
		if *limit > 0 && t >= *limit {
			fmt.Printf("  ... %d more\n", m.TriangleCount()-t)
			break
		}
		fmt.Printf("  %5d  %d %d %d\n", t, m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2])
	}

	fmt.Printf("\nSubmeshes (%d):\n", len(m.SubMeshes))
	for _, sm := range m.SubMeshes {
		fmt.Printf("  %-20s offset %6d count %6d material %d\n", sm.Name, sm.IndexOffset, sm.IndexCount, sm.Material)
	}
}

func cmdCheck(args []string) {
	fs, f := newFlagSet("check")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool check [options] <model>...")
		os.Exit(1)
	}
	im := newImporter(f)

	byKind := make(map[string]int)
	failed := 0
	for _, path := range fs.Args() {
		var m mesh.Mesh
		err := im.Load(path, &m)
		if err == nil {
			err = m.Validate()
		}
		if err != nil {
			failed++
			byKind[errorKind(err)]++
			fmt.Printf("FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Printf("ok   %s (%d vertices, %d triangles)\n", path, len(m.Vertices), m.TriangleCount())
	}

	fmt.Printf("\n%d checked, %d failed\n", fs.NArg(), failed)
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-12s %d\n", k, byKind[k])
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, importer.ErrFileNotFound):
		return "not found"
	case errors.Is(err, importer.ErrParse):
		return "parse"
	case errors.Is(err, importer.ErrValidation):
		return "validation"
	case errors.Is(err, importer.ErrUnsupported):
		return "unsupported"
	default:
		return "other"
	}
}
