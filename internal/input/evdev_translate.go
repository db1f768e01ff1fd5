package input

import (
	"github.com/bnema/wayfold/internal/geo"
	"github.com/gvalkov/golang-evdev"
)

// axisStep is the wl_pointer.axis distance of one wheel detent.
const axisStep = 10.0

// maxSlots bounds the multitouch slots tracked per device.
const maxSlots = 16

type slotChange uint8

const (
	slotIdle slotChange = iota
	slotDown
	slotMotion
	slotUp
)

type touchSlot struct {
	id     int32
	active bool
	x, y   int32
	change slotChange
}

// evdevTranslator turns raw evdev records of one device into seat events.
// Events are buffered until SYN_REPORT closes the hardware frame.
type evdevTranslator struct {
	kind DeviceType

	relX, relY int32
	pending    []Event

	slot  int
	slots [maxSlots]touchSlot
	absX  AbsInfo
	absY  AbsInfo
}

func newEvdevTranslator(kind DeviceType, absX, absY AbsInfo) *evdevTranslator {
	t := &evdevTranslator{kind: kind, absX: absX, absY: absY}
	for i := range t.slots {
		t.slots[i].id = -1
	}
	return t
}

// Feed consumes one record. It returns the completed batch on SYN_REPORT and
// nil otherwise.
func (t *evdevTranslator) Feed(ev evdev.InputEvent) []Event {
	ms := uint32(ev.Time.Sec*1000 + ev.Time.Usec/1000)
	switch ev.Type {
	case evdev.EV_SYN:
		if ev.Code == evdev.SYN_REPORT {
			return t.flush(ms)
		}
	case evdev.EV_REL:
		t.rel(ms, ev.Code, ev.Value)
	case evdev.EV_KEY:
		t.key(ms, ev.Code, ev.Value)
	case evdev.EV_ABS:
		t.abs(ev.Code, ev.Value)
	}
	return nil
}

func (t *evdevTranslator) rel(ms uint32, code uint16, value int32) {
	switch code {
	case evdev.REL_X:
		t.relX += value
	case evdev.REL_Y:
		t.relY += value
	case evdev.REL_WHEEL:
		t.pending = append(t.pending, PointerAxisEvent{Time: ms, Axis: AxisVertical, Value: -float64(value) * axisStep})
	case evdev.REL_HWHEEL:
		t.pending = append(t.pending, PointerAxisEvent{Time: ms, Axis: AxisHorizontal, Value: float64(value) * axisStep})
	}
}

func (t *evdevTranslator) key(ms uint32, code uint16, value int32) {
	// value 2 is autorepeat, clients repeat on their own
	if value != 0 && value != 1 {
		return
	}
	switch {
	case code == evdev.BTN_TOUCH:
		// Touch contact is tracked per slot.
	case code >= evdev.BTN_MOUSE && code <= evdev.BTN_TASK:
		state := ButtonReleased
		if value == 1 {
			state = ButtonPressed
		}
		t.pending = append(t.pending, PointerButtonEvent{Time: ms, Button: uint32(code), State: state})
	case code < evdev.BTN_MISC:
		state := KeyReleased
		if value == 1 {
			state = KeyPressed
		}
		t.pending = append(t.pending, KeyboardKeyEvent{Time: ms, Key: uint32(code), State: state})
	}
}

func (t *evdevTranslator) abs(code uint16, value int32) {
	switch code {
	case evdev.ABS_MT_SLOT:
		if value >= 0 && value < maxSlots {
			t.slot = int(value)
		}
	case evdev.ABS_MT_TRACKING_ID:
		s := &t.slots[t.slot]
		if value < 0 {
			if s.active {
				s.change = slotUp
			}
			return
		}
		s.id = value
		s.active = true
		s.change = slotDown
	case evdev.ABS_MT_POSITION_X:
		s := &t.slots[t.slot]
		s.x = value
		if s.change == slotIdle {
			s.change = slotMotion
		}
	case evdev.ABS_MT_POSITION_Y:
		s := &t.slots[t.slot]
		s.y = value
		if s.change == slotIdle {
			s.change = slotMotion
		}
	}
}

func (t *evdevTranslator) flush(ms uint32) []Event {
	out := t.pending
	t.pending = nil

	if t.relX != 0 || t.relY != 0 {
		out = append(out, PointerRelativeEvent{Time: ms, DX: int(t.relX), DY: int(t.relY)})
		t.relX, t.relY = 0, 0
	}
	pointer := false
	for _, ev := range out {
		switch ev.(type) {
		case PointerRelativeEvent, PointerButtonEvent, PointerAxisEvent:
			pointer = true
		}
	}
	if pointer {
		out = append(out, PointerFrameEvent{})
	}

	touched := false
	for i := range t.slots {
		s := &t.slots[i]
		switch s.change {
		case slotDown:
			out = append(out, TouchDownEvent{Time: ms, ID: s.id, X: int(s.x), Y: int(s.y)})
		case slotMotion:
			if !s.active {
				s.change = slotIdle
				continue
			}
			out = append(out, TouchMotionEvent{Time: ms, ID: s.id, X: int(s.x), Y: int(s.y)})
		case slotUp:
			out = append(out, TouchUpEvent{Time: ms, ID: s.id})
			s.active = false
			s.id = -1
		default:
			continue
		}
		s.change = slotIdle
		touched = true
	}
	if touched {
		out = append(out, TouchFrameEvent{})
	}
	return out
}

// ScaleTouch maps raw touch coordinates of a batch from the device's
// absolute ranges onto area. Other events pass through.
func (t *evdevTranslator) ScaleTouch(events []Event, area geo.Rectangle) []Event {
	for i, ev := range events {
		switch e := ev.(type) {
		case TouchDownEvent:
			e.X, e.Y = t.absX.Scale(e.X, area.X, area.Width), t.absY.Scale(e.Y, area.Y, area.Height)
			events[i] = e
		case TouchMotionEvent:
			e.X, e.Y = t.absX.Scale(e.X, area.X, area.Width), t.absY.Scale(e.Y, area.Y, area.Height)
			events[i] = e
		}
	}
	return events
}
