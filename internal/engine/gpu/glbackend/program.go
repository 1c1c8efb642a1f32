package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-meshview/internal/engine/gpu"
	"github.com/Faultbox/midgard-meshview/internal/engine/gpu/glbackend/shaders"
)

// Lighting is the directional light applied to every submesh.
type Lighting struct {
	Direction mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
}

// DefaultLighting is a light from above and slightly in front.
var DefaultLighting = Lighting{
	Direction: mgl32.Vec3{-0.3, -1, -0.5},
	Ambient:   mgl32.Vec3{0.35, 0.35, 0.35},
	Diffuse:   mgl32.Vec3{0.75, 0.75, 0.75},
}

// Program is the linked mesh shader and its uniform locations.
type Program struct {
	id uint32

	locMVP      int32
	locModel    int32
	locLightDir int32
	locAmbient  int32
	locDiffuse  int32
	locAlbedo   int32
	locDetail   int32
}

// NewProgram compiles the embedded mesh shaders.
func NewProgram() (*Program, error) {
	id, err := CompileProgram(shaders.MeshVertexShader, shaders.MeshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	return &Program{
		id:          id,
		locMVP:      uniform(id, "uMVP"),
		locModel:    uniform(id, "uModel"),
		locLightDir: uniform(id, "uLightDir"),
		locAmbient:  uniform(id, "uAmbient"),
		locDiffuse:  uniform(id, "uDiffuse"),
		locAlbedo:   uniform(id, "uAlbedo"),
		locDetail:   uniform(id, "uDetail"),
	}, nil
}

// Use activates the program for one frame.
func (p *Program) Use(model, view, projection mgl32.Mat4, light Lighting) {
	gl.UseProgram(p.id)

	mvp := projection.Mul4(view).Mul4(model)
	gl.UniformMatrix4fv(p.locMVP, 1, false, &mvp[0])
	gl.UniformMatrix4fv(p.locModel, 1, false, &model[0])

	dir := light.Direction.Normalize()
	gl.Uniform3f(p.locLightDir, dir[0], dir[1], dir[2])
	gl.Uniform3f(p.locAmbient, light.Ambient[0], light.Ambient[1], light.Ambient[2])
	gl.Uniform3f(p.locDiffuse, light.Diffuse[0], light.Diffuse[1], light.Diffuse[2])

	gl.Uniform1i(p.locAlbedo, gpu.AlbedoUnit)
	gl.Uniform1i(p.locDetail, gpu.DetailUnit)
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log[:logLen]))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log[:logLen]))
	}

	return shader, nil
}

// uniform returns the location of name, or -1 when it is inactive.
func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
