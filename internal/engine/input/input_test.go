package input

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
)

func key(typ uint32, sc sdl.Scancode, repeat uint8) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{Type: typ, Repeat: repeat, Keysym: sdl.Keysym{Scancode: sc}}
}

func TestInput_Keys(t *testing.T) {
	in := New()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_W, 0))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_W, 1))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_D, 0))
	in.handle(key(sdl.KEYUP, sdl.SCANCODE_D, 0))

	if !in.IsKeyPressed(sdl.SCANCODE_W) || !in.IsKeyDown(sdl.SCANCODE_W) {
		t.Error("W should be pressed and held")
	}
	if in.IsKeyDown(sdl.SCANCODE_D) {
		t.Error("D was released")
	}
	downs := 0
	for _, e := range in.Events() {
		if e.Type == EventKeyDown {
			downs++
		}
	}
	if downs != 2 {
		t.Errorf("key repeat recorded as press: %d downs", downs)
	}

	in.Clear()
	if in.IsKeyDown(sdl.SCANCODE_W) {
		t.Error("Clear kept held keys")
	}
}

func TestInput_Intent(t *testing.T) {
	in := New()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_W, 0))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_A, 0))
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_LSHIFT, 0))
	in.handle(&sdl.MouseMotionEvent{XRel: 3, YRel: -2})
	in.handle(&sdl.MouseMotionEvent{XRel: 1, YRel: 0})

	got := in.Intent(0.25, true)
	if got.Move != (mgl32.Vec3{-1, 0, -1}) {
		t.Errorf("Move = %v", got.Move)
	}
	if got.Look != (mgl32.Vec2{4, -2}) {
		t.Errorf("Look = %v", got.Look)
	}
	if !got.Boost || got.Dt != 0.25 {
		t.Errorf("intent = %+v", got)
	}

	if noLook := in.Intent(0.25, false); noLook.Look != (mgl32.Vec2{}) {
		t.Errorf("look disabled but got %v", noLook.Look)
	}
}

func TestInput_QuitAndResize(t *testing.T) {
	in := New()
	if !in.handle(&sdl.QuitEvent{}) {
		t.Error("quit event not reported")
	}
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 640, Data2: 480})

	events := in.Events()
	if len(events) != 2 || events[1].Type != EventWindowResize || events[1].Width != 640 || events[1].Height != 480 {
		t.Errorf("events = %+v", events)
	}
}
