// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MeshVertexShader transforms interleaved mesh vertices.
//
//go:embed mesh.vert
var MeshVertexShader string

// MeshFragmentShader shades a submesh from its albedo and detail textures.
//
//go:embed mesh.frag
var MeshFragmentShader string
