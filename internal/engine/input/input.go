// Package input handles SDL2 input events.
package input

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/midgard-meshview/internal/engine/camera"
)

// EventType identifies a processed input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
}

// Input collects the events of one frame plus held keys and relative mouse
// motion.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool
	dx, dy int32
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events. Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.dx, i.dy = 0, 0

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			quit = true
		}
	}
	return quit
}

// handle records one SDL event and reports whether it asks to quit.
func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		sc := e.Keysym.Scancode
		if e.Type == sdl.KEYDOWN {
			if e.Repeat == 0 {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: sc})
			}
			i.held[sc] = true
		} else if e.Type == sdl.KEYUP {
			i.events = append(i.events, Event{Type: EventKeyUp, Key: sc})
			delete(i.held, sc)
		}

	case *sdl.MouseMotionEvent:
		i.dx += e.XRel
		i.dy += e.YRel
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
		})

	case *sdl.MouseButtonEvent:
		typ := EventMouseUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			typ = EventMouseDown
		}
		i.events = append(i.events, Event{
			Type:   typ,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		})
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsKeyDown reports whether a key is held.
func (i *Input) IsKeyDown(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// MouseDelta returns the relative mouse motion of the last Update.
func (i *Input) MouseDelta() (dx, dy int) {
	return int(i.dx), int(i.dy)
}

// Clear forgets held keys, for example when the window loses focus.
func (i *Input) Clear() {
	clear(i.held)
	i.dx, i.dy = 0, 0
}

// Intent maps WASD/QE movement, shift boost and mouse motion to a camera
// intent. Mouse motion is ignored unless look is set.
func (i *Input) Intent(dt float32, look bool) camera.Intent {
	var move mgl32.Vec3
	axis := func(neg, pos sdl.Scancode) float32 {
		var v float32
		if i.held[neg] {
			v--
		}
		if i.held[pos] {
			v++
		}
		return v
	}
	move[0] = axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	move[1] = axis(sdl.SCANCODE_Q, sdl.SCANCODE_E)
	move[2] = axis(sdl.SCANCODE_W, sdl.SCANCODE_S)

	in := camera.Intent{
		Move:  move,
		Boost: i.held[sdl.SCANCODE_LSHIFT] || i.held[sdl.SCANCODE_RSHIFT],
		Dt:    dt,
	}
	if look {
		in.Look = mgl32.Vec2{float32(i.dx), float32(i.dy)}
	}
	return in
}
