package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/input"
	evdev "github.com/gvalkov/golang-evdev"
)

// scrollStep is the axis value of one wheel click, matching the evdev backend.
const scrollStep = 10

// keycodeOffset separates X keycodes from evdev key codes.
const keycodeOffset = 8

// Translate converts an X input event on an output window into seat events.
// origin is the global position of the output the window shows, so window
// coordinates become layout coordinates. Events the seat does not consume
// return nil.
func Translate(ev xgb.Event, origin geo.Point) []input.Event {
	switch e := ev.(type) {
	case xproto.MotionNotifyEvent:
		return motion(uint32(e.Time), e.EventX, e.EventY, origin)
	case xproto.EnterNotifyEvent:
		return motion(uint32(e.Time), e.EventX, e.EventY, origin)
	case xproto.ButtonPressEvent:
		return button(uint32(e.Time), byte(e.Detail), true)
	case xproto.ButtonReleaseEvent:
		return button(uint32(e.Time), byte(e.Detail), false)
	case xproto.KeyPressEvent:
		return key(uint32(e.Time), byte(e.Detail), input.KeyPressed)
	case xproto.KeyReleaseEvent:
		return key(uint32(e.Time), byte(e.Detail), input.KeyReleased)
	}
	return nil
}

// EventWindow returns the window an input event was delivered to.
func EventWindow(ev xgb.Event) (xproto.Window, bool) {
	switch e := ev.(type) {
	case xproto.MotionNotifyEvent:
		return e.Event, true
	case xproto.EnterNotifyEvent:
		return e.Event, true
	case xproto.ButtonPressEvent:
		return e.Event, true
	case xproto.ButtonReleaseEvent:
		return e.Event, true
	case xproto.KeyPressEvent:
		return e.Event, true
	case xproto.KeyReleaseEvent:
		return e.Event, true
	}
	return 0, false
}

// IsDeleteRequest reports whether ev is a WM_DELETE_WINDOW client message.
func IsDeleteRequest(ev xgb.Event, deleteWindow xproto.Atom) (xproto.Window, bool) {
	cm, ok := ev.(xproto.ClientMessageEvent)
	if !ok || cm.Format != 32 || len(cm.Data.Data32) == 0 {
		return 0, false
	}
	return cm.Window, xproto.Atom(cm.Data.Data32[0]) == deleteWindow
}

func motion(time uint32, x, y int16, origin geo.Point) []input.Event {
	return []input.Event{
		input.PointerMotionEvent{Time: time, X: origin.X + int(x), Y: origin.Y + int(y)},
		input.PointerFrameEvent{},
	}
}

// ButtonCode maps an X pointer button to its evdev code. Wheel buttons and
// unknown buttons return false.
func ButtonCode(detail byte) (uint32, bool) {
	switch detail {
	case 1:
		return evdev.BTN_LEFT, true
	case 2:
		return evdev.BTN_MIDDLE, true
	case 3:
		return evdev.BTN_RIGHT, true
	}
	return 0, false
}

func button(time uint32, detail byte, pressed bool) []input.Event {
	if code, ok := ButtonCode(detail); ok {
		state := input.ButtonReleased
		if pressed {
			state = input.ButtonPressed
		}
		return []input.Event{
			input.PointerButtonEvent{Time: time, Button: code, State: state},
			input.PointerFrameEvent{},
		}
	}
	// Wheel clicks arrive as press/release pairs; only the press scrolls.
	if !pressed {
		return nil
	}
	var axis input.Axis
	var value float64
	switch detail {
	case 4:
		axis, value = input.AxisVertical, -scrollStep
	case 5:
		axis, value = input.AxisVertical, scrollStep
	case 6:
		axis, value = input.AxisHorizontal, -scrollStep
	case 7:
		axis, value = input.AxisHorizontal, scrollStep
	default:
		return nil
	}
	return []input.Event{
		input.PointerAxisEvent{Time: time, Axis: axis, Value: value},
		input.PointerFrameEvent{},
	}
}

func key(time uint32, keycode byte, state input.KeyState) []input.Event {
	if keycode < keycodeOffset {
		return nil
	}
	return []input.Event{input.KeyboardKeyEvent{Time: time, Key: uint32(keycode - keycodeOffset), State: state}}
}
