package input

import (
	"slices"
	"strings"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/signal"
)

// Capability is the wl_seat.capability bitmask.
type Capability uint32

const (
	CapabilityPointer  Capability = 1
	CapabilityKeyboard Capability = 2
	CapabilityTouch    Capability = 4
)

func (c Capability) String() string {
	var parts []string
	if c&CapabilityPointer != 0 {
		parts = append(parts, "pointer")
	}
	if c&CapabilityKeyboard != 0 {
		parts = append(parts, "keyboard")
	}
	if c&CapabilityTouch != 0 {
		parts = append(parts, "touch")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Seat groups one pointer, keyboard and touch device with the client
// resources bound to them.
type Seat struct {
	name     string
	pointer  *Pointer
	keyboard *Keyboard
	touch    *Touch

	pointers  []PointerResource
	keyboards []KeyboardResource
	touches   []TouchResource

	capabilities        Capability
	capabilitiesChanged signal.Signal[Capability]
}

// NewSeat builds the devices of a seat on top of the compositor's display,
// scene and output layout.
func NewSeat(name string, c *core.Compositor) *Seat {
	return &Seat{
		name:     name,
		pointer:  NewPointer(c.Display(), c.Scene(), c.OutputRegion),
		keyboard: NewKeyboard(c.Display()),
		touch:    NewTouch(c.Display(), c.Scene()),
	}
}

func (s *Seat) Name() string             { return s.name }
func (s *Seat) Pointer() *Pointer        { return s.pointer }
func (s *Seat) Keyboard() *Keyboard      { return s.keyboard }
func (s *Seat) Touch() *Touch            { return s.touch }
func (s *Seat) Capabilities() Capability { return s.capabilities }

func (s *Seat) CapabilitiesChanged() *signal.Signal[Capability] { return &s.capabilitiesChanged }

// AddCapabilities adds caps, emitting CapabilitiesChanged when the set grows.
func (s *Seat) AddCapabilities(caps Capability) {
	if s.capabilities|caps == s.capabilities {
		return
	}
	s.capabilities |= caps
	s.capabilitiesChanged.Emit(s.capabilities)
}

func (s *Seat) AddPointerResource(r PointerResource)   { s.pointers = append(s.pointers, r) }
func (s *Seat) AddKeyboardResource(r KeyboardResource) { s.keyboards = append(s.keyboards, r) }
func (s *Seat) AddTouchResource(r TouchResource)       { s.touches = append(s.touches, r) }

func (s *Seat) RemovePointerResource(r PointerResource) {
	s.pointers = slices.DeleteFunc(s.pointers, func(x PointerResource) bool { return x == r })
}

func (s *Seat) RemoveKeyboardResource(r KeyboardResource) {
	s.keyboards = slices.DeleteFunc(s.keyboards, func(x KeyboardResource) bool { return x == r })
}

func (s *Seat) RemoveTouchResource(r TouchResource) {
	s.touches = slices.DeleteFunc(s.touches, func(x TouchResource) bool { return x == r })
}

// RemoveClient drops every resource of a disconnected client.
func (s *Seat) RemoveClient(client core.ClientID) {
	s.pointers = slices.DeleteFunc(s.pointers, func(x PointerResource) bool { return x.Client() == client })
	s.keyboards = slices.DeleteFunc(s.keyboards, func(x KeyboardResource) bool { return x.Client() == client })
	s.touches = slices.DeleteFunc(s.touches, func(x TouchResource) bool { return x.Client() == client })
}

// Resources returns how many pointer, keyboard and touch resources are bound.
func (s *Seat) Resources() (pointers, keyboards, touches int) {
	return len(s.pointers), len(s.keyboards), len(s.touches)
}

// FocusKeyboard moves keyboard focus to view.
func (s *Seat) FocusKeyboard(view *core.SurfaceView) {
	s.keyboard.SetFocus(s.keyboards, view)
}

// Dispatch routes backend events to the devices in order.
func (s *Seat) Dispatch(events ...Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case PointerMotionEvent:
			s.pointer.Motion(s.pointers, e.Time, e.X, e.Y)
		case PointerRelativeEvent:
			s.pointer.MotionRelative(s.pointers, e.Time, e.DX, e.DY)
		case PointerButtonEvent:
			s.pointer.Button(s.pointers, e.Time, e.Button, e.State)
		case PointerAxisEvent:
			s.pointer.Axis(s.pointers, e.Time, e.Axis, e.Value)
		case PointerFrameEvent:
			s.pointer.Frame(s.pointers)
		case KeyboardKeyEvent:
			s.keyboard.Key(s.keyboards, e.Time, e.Key, e.State)
		case TouchDownEvent:
			s.touch.Down(s.touches, e.ID, e.Time, e.X, e.Y)
		case TouchUpEvent:
			s.touch.Up(s.touches, e.ID, e.Time)
		case TouchMotionEvent:
			s.touch.Motion(s.touches, e.ID, e.Time, e.X, e.Y)
		case TouchFrameEvent:
			s.touch.Frame(s.touches)
		case TouchCancelEvent:
			s.touch.Cancel(s.touches)
		}
	}
}
