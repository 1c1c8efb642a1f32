package mesh

// BuildOptions combines deduplication and tangent synthesis options.
type BuildOptions struct {
	Dedup    DedupOptions
	Tangents TangentOptions
}

// DefaultBuildOptions returns the settings used for OBJ assets.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Dedup:    DedupOptions{FlipV: true},
		Tangents: TangentOptions{SmoothAcrossSubmeshes: true},
	}
}

// Build runs deduplication then tangent synthesis on a soup.
func Build(soup *Soup, opts BuildOptions) (*Mesh, error) {
	res, err := Deduplicate(soup, opts.Dedup)
	if err != nil {
		return nil, err
	}
	SynthesizeTangents(res, opts.Tangents)
	return res.Mesh, nil
}
