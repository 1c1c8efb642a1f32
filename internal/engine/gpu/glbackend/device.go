// Package glbackend implements gpu.Device on OpenGL 4.1 core.
package glbackend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/engine/gpu"
	"github.com/Faultbox/midgard-meshview/internal/engine/mesh"
	"github.com/Faultbox/midgard-meshview/internal/engine/texture"
)

// glMesh holds the buffer objects behind a mesh handle.
type glMesh struct {
	vao uint32
	vbo uint32
	ebo uint32
}

// Device uploads meshes and textures to the current OpenGL context.
type Device struct {
	log    *zap.Logger
	meshes map[gpu.Handle]glMesh

	// Substituted for gpu.NoHandle: white albedo, flat detail normal.
	fallback [2]uint32
}

// New initializes OpenGL. It must be called after the context is created,
// on the thread that owns it.
func New(log *zap.Logger) (*Device, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	d := &Device{
		log:    log,
		meshes: make(map[gpu.Handle]glMesh),
	}
	d.fallback[gpu.AlbedoUnit] = solidTexture(255, 255, 255, 255)
	d.fallback[gpu.DetailUnit] = solidTexture(128, 128, 255, 255)
	return d, nil
}

// Close releases the fallback textures and any meshes still alive.
func (d *Device) Close() {
	for h := range d.meshes {
		d.DeleteMesh(h)
	}
	gl.DeleteTextures(int32(len(d.fallback)), &d.fallback[0])
}

// Resize sets the viewport.
func (d *Device) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	d.log.Debug("viewport resized", zap.Int("width", width), zap.Int("height", height))
}

// Begin clears the frame.
func (d *Device) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// CreateMesh uploads interleaved vertices and 32-bit indices.
func (d *Device) CreateMesh(vertexData []byte, stride int, layout []mesh.Attribute, indices []uint32) (gpu.Handle, error) {
	if len(vertexData) == 0 || len(indices) == 0 {
		return gpu.NoHandle, fmt.Errorf("%w: empty buffers", mesh.ErrInvalidMesh)
	}

	var m glMesh
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertexData), unsafe.Pointer(&vertexData[0]), gl.STATIC_DRAW)

	for _, a := range layout {
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Components), gl.FLOAT, false, int32(stride), uintptr(a.Offset))
		gl.EnableVertexAttribArray(a.Location)
	}

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	h := gpu.Handle(m.vao)
	d.meshes[h] = m
	return h, nil
}

// DeleteMesh releases a mesh's buffer objects.
func (d *Device) DeleteMesh(h gpu.Handle) {
	m, ok := d.meshes[h]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	delete(d.meshes, h)
}

// textureFormats maps pixel layouts to internal and client formats.
var textureFormats = map[texture.PixelLayout]struct {
	internal int32
	format   uint32
	swizzle  [4]int32
}{
	texture.LayoutR:    {gl.R8, gl.RED, [4]int32{gl.RED, gl.RED, gl.RED, gl.ONE}},
	texture.LayoutRG:   {gl.RG8, gl.RG, [4]int32{gl.RED, gl.RED, gl.RED, gl.GREEN}},
	texture.LayoutRGB:  {gl.RGB8, gl.RGB, [4]int32{gl.RED, gl.GREEN, gl.BLUE, gl.ONE}},
	texture.LayoutRGBA: {gl.RGBA8, gl.RGBA, [4]int32{gl.RED, gl.GREEN, gl.BLUE, gl.ALPHA}},
}

// CreateTexture uploads an image with mipmaps. One and two channel images
// are swizzled to gray and gray-alpha.
func (d *Device) CreateTexture(img *texture.Image) (gpu.Handle, error) {
	layout, err := img.Layout()
	if err != nil {
		return gpu.NoHandle, err
	}
	f := textureFormats[layout]

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal, int32(img.Width), int32(img.Height), 0,
		f.format, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.TexParameteriv(gl.TEXTURE_2D, gl.TEXTURE_SWIZZLE_RGBA, &f.swizzle[0])
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return gpu.Handle(tex), nil
}

// DeleteTexture releases a texture.
func (d *Device) DeleteTexture(h gpu.Handle) {
	tex := uint32(h)
	gl.DeleteTextures(1, &tex)
}

// BindTexture binds h to a texture unit, or the unit's fallback for NoHandle.
func (d *Device) BindTexture(unit int, h gpu.Handle) {
	tex := uint32(h)
	if h == gpu.NoHandle && unit < len(d.fallback) {
		tex = d.fallback[unit]
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

// DrawIndexed draws count indices starting at offset.
func (d *Device) DrawIndexed(h gpu.Handle, offset, count int) {
	m, ok := d.meshes[h]
	if !ok {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, uintptr(offset*4))
	gl.BindVertexArray(0)
}

// ReadPixels returns the current framebuffer as RGBA rows, bottom row first.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

func solidTexture(r, g, b, a uint8) uint32 {
	pix := [4]uint8{r, g, b, a}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pix[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

var _ gpu.Device = (*Device)(nil)
