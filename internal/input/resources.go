// Package input routes pointer, keyboard and touch events to the client
// surface they belong to. Devices keep focus and grab state, stamp events
// with display serials and deliver them to the per-client resources of the
// focused surface's client only.
//
// Everything here runs on the reactor goroutine.
package input

import "github.com/bnema/wayfold/internal/core"

// ButtonState is wl_pointer.button_state.
type ButtonState uint32

const (
	ButtonReleased ButtonState = 0
	ButtonPressed  ButtonState = 1
)

// KeyState is wl_keyboard.key_state.
type KeyState uint32

const (
	KeyReleased KeyState = 0
	KeyPressed  KeyState = 1
)

// Axis is wl_pointer.axis.
type Axis uint32

const (
	AxisVertical   Axis = 0
	AxisHorizontal Axis = 1
)

// PointerResource is a client's wl_pointer.
type PointerResource interface {
	core.ClientResource
	Enter(serial uint32, surface *core.Surface, x, y float64)
	Leave(serial uint32, surface *core.Surface)
	Motion(time uint32, x, y float64)
	Button(serial, time, button uint32, state ButtonState)
	Axis(time uint32, axis Axis, value float64)
	Frame()
}

// KeyboardResource is a client's wl_keyboard.
type KeyboardResource interface {
	core.ClientResource
	Enter(serial uint32, surface *core.Surface, keys []uint32)
	Leave(serial uint32, surface *core.Surface)
	Key(serial, time, key uint32, state KeyState)
}

// TouchResource is a client's wl_touch.
type TouchResource interface {
	core.ClientResource
	Down(serial, time uint32, surface *core.Surface, id int32, x, y float64)
	Up(serial, time uint32, id int32)
	Motion(time uint32, id int32, x, y float64)
	Frame()
	Cancel()
}

// forClient keeps the resources owned by client, in order.
func forClient[R core.ClientResource](resources []R, client core.ClientID) []R {
	var out []R
	for _, r := range resources {
		if r.Client() == client {
			out = append(out, r)
		}
	}
	return out
}

// sameSurface reports whether two optional views show the same surface.
func sameSurface(a, b *core.SurfaceView) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Handle() == b.Handle()
}
