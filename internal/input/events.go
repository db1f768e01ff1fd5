package input

// Event is a device event produced by an input backend (evdev or the X11
// windows) and consumed by Seat.Dispatch on the reactor.
type Event interface {
	isEvent()
}

// PointerMotionEvent is an absolute pointer position in global coordinates.
type PointerMotionEvent struct {
	Time uint32
	X, Y int
}

// PointerRelativeEvent is a relative pointer movement.
type PointerRelativeEvent struct {
	Time   uint32
	DX, DY int
}

type PointerButtonEvent struct {
	Time   uint32
	Button uint32
	State  ButtonState
}

type PointerAxisEvent struct {
	Time  uint32
	Axis  Axis
	Value float64
}

type PointerFrameEvent struct{}

type KeyboardKeyEvent struct {
	Time  uint32
	Key   uint32
	State KeyState
}

type TouchDownEvent struct {
	Time uint32
	ID   int32
	X, Y int
}

type TouchUpEvent struct {
	Time uint32
	ID   int32
}

type TouchMotionEvent struct {
	Time uint32
	ID   int32
	X, Y int
}

type TouchFrameEvent struct{}

type TouchCancelEvent struct{}

func (PointerMotionEvent) isEvent()   {}
func (PointerRelativeEvent) isEvent() {}
func (PointerButtonEvent) isEvent()   {}
func (PointerAxisEvent) isEvent()     {}
func (PointerFrameEvent) isEvent()    {}
func (KeyboardKeyEvent) isEvent()     {}
func (TouchDownEvent) isEvent()       {}
func (TouchUpEvent) isEvent()         {}
func (TouchMotionEvent) isEvent()     {}
func (TouchFrameEvent) isEvent()      {}
func (TouchCancelEvent) isEvent()     {}
