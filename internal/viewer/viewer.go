// Package viewer implements the interactive mesh viewer main loop.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-meshview/internal/assets"
	"github.com/Faultbox/midgard-meshview/internal/config"
	"github.com/Faultbox/midgard-meshview/internal/engine/camera"
	"github.com/Faultbox/midgard-meshview/internal/engine/gpu/glbackend"
	"github.com/Faultbox/midgard-meshview/internal/engine/input"
	"github.com/Faultbox/midgard-meshview/internal/engine/window"
)

const title = "Midgard Meshview"

// Viewer owns the window, the device and the session on screen.
type Viewer struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window  *window.Window
	device  *glbackend.Device
	program *glbackend.Program
	input   *input.Input
	session *Session
	watcher *assets.Watcher
	shots   *Screenshots
	capture bool

	camera     camera.Camera
	controller camera.Controller
}

// New creates the window and GPU resources and opens the configured model.
// A model that fails to load is logged; the viewer starts empty.
func New(cfg *config.Config, log *zap.Logger) (*Viewer, error) {
	log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	v := &Viewer{cfg: cfg, log: log}

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       cfg.Graphics.MSAA,
	}, log.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Device AFTER window, since OpenGL context must exist
	v.device, err = glbackend.New(log.Named("gl"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	v.program, err = glbackend.NewProgram()
	if err != nil {
		v.device.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	v.input = input.New()
	v.session = NewSession(v.device, cfg, log)
	v.shots = NewScreenshots(cfg.Graphics.ScreenshotDir)

	w, h := v.window.Size()
	v.device.Resize(w, h)
	v.camera = camera.New(w, h)
	v.camera.FovY = mgl32.DegToRad(cfg.Camera.FovDegrees)
	v.controller = camera.DefaultController()
	v.controller.Speed = cfg.Camera.Speed
	v.controller.Sensitivity = cfg.Camera.Sensitivity

	if cfg.Assets.Model != "" {
		v.open(cfg.Assets.Model)
	}

	log.Info("viewer initialized")
	return v, nil
}

// open loads a model, frames it and starts watching its files.
func (v *Viewer) open(name string) {
	if err := v.session.Open(name); err != nil {
		v.log.Error("failed to open model", zap.String("model", name), zap.Error(err))
	}
	v.frame()
	v.updateTitle()
	v.shots.SetModel(v.session.ModelPath())

	if !v.cfg.Assets.Watch || v.session.ModelPath() == "" {
		return
	}
	if v.watcher == nil {
		w, err := assets.NewWatcher(time.Duration(v.cfg.Assets.DebounceMs)*time.Millisecond, v.log.Named("watch"))
		if err != nil {
			v.log.Warn("hot reload disabled", zap.Error(err))
			return
		}
		v.watcher = w
	}
	textureDir := v.cfg.Import.TextureDir
	if textureDir != "" && !filepath.IsAbs(textureDir) {
		if p, err := v.session.assets.Resolve(textureDir); err == nil {
			textureDir = p
		}
	}
	for _, dir := range v.session.WatchTargets(textureDir) {
		if err := v.watcher.AddDir(dir); err != nil {
			v.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}
}

// frame points the camera at the mesh.
func (v *Viewer) frame() {
	if m := v.session.Mesh(); !m.Empty() {
		v.camera = v.camera.Fit(m.Bounds)
	}
}

func (v *Viewer) updateTitle() {
	m := v.session.Mesh()
	if m.Empty() {
		v.window.SetTitle(title)
		return
	}
	v.window.SetTitle(fmt.Sprintf("%s - %s (%d vertices, %d triangles)",
		title, filepath.Base(v.session.ModelPath()), len(m.Vertices), m.TriangleCount()))
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var minFrame time.Duration
	if v.cfg.Graphics.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	}

	v.log.Info("starting main loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		// 2. Update camera and pick up file changes
		v.camera = v.controller.Apply(v.camera, v.input.Intent(float32(dt), v.window.HasMouse()))
		v.pollChanges()

		// 3. Render
		v.render()
		if v.capture {
			v.screenshot()
			v.capture = false
		}

		// 4. Present (swap buffers)
		v.window.Present()

		if minFrame > 0 {
			if spent := time.Since(now); spent < minFrame {
				time.Sleep(minFrame - spent)
			}
		}

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			w, h := v.window.Size()
			v.device.Resize(w, h)
			v.camera = v.camera.WithViewport(w, h)
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_LEFT {
				v.window.GrabMouse()
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				if v.window.HasMouse() {
					v.window.ReleaseMouse()
					v.input.Clear()
				} else {
					v.running = false
				}
			case sdl.SCANCODE_F:
				v.frame()
			case sdl.SCANCODE_R:
				if err := v.session.Reload(); err != nil {
					v.log.Error("reload failed", zap.Error(err))
				}
				v.updateTitle()
			case sdl.SCANCODE_F12:
				v.capture = true
			}
		}
	}
}

// screenshot saves the frame just rendered, before it is presented.
func (v *Viewer) screenshot() {
	w, h := v.window.Size()
	path, err := v.shots.Save(v.device.ReadPixels(w, h), w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// pollChanges applies pending hot reload batches without blocking.
func (v *Viewer) pollChanges() {
	if v.watcher == nil {
		return
	}
	select {
	case changed, ok := <-v.watcher.Changes():
		if !ok {
			v.watcher = nil
			return
		}
		if _, err := v.session.HandleChanges(changed); err != nil {
			v.log.Error("hot reload failed", zap.Error(err))
		}
		v.updateTitle()
	default:
	}
}

func (v *Viewer) render() {
	v.device.Begin()
	v.program.Use(mgl32.Ident4(), v.camera.View(), v.camera.Projection(), glbackend.DefaultLighting)
	v.session.Draw()
}

// Close releases every resource in reverse creation order.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.session != nil {
		v.session.Close()
	}
	if v.program != nil {
		v.program.Delete()
	}
	if v.device != nil {
		v.device.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
