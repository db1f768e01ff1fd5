package input

import (
	"slices"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/signal"
)

// KeyEvent is emitted after every key event.
type KeyEvent struct {
	Time  uint32
	Key   uint32
	State KeyState
}

// Keyboard tracks pressed keys and the focused surface.
type Keyboard struct {
	display *core.Display
	focus   *core.SurfaceView
	pressed []uint32

	focusChanged signal.Signal[*core.SurfaceView]
	key          signal.Signal[KeyEvent]
}

func NewKeyboard(display *core.Display) *Keyboard {
	return &Keyboard{display: display}
}

func (k *Keyboard) Focus() *core.SurfaceView { return k.focus }

// PressedKeys returns the keys held down, in press order.
func (k *Keyboard) PressedKeys() []uint32 { return slices.Clone(k.pressed) }

func (k *Keyboard) FocusChanged() *signal.Signal[*core.SurfaceView] { return &k.focusChanged }
func (k *Keyboard) KeySignal() *signal.Signal[KeyEvent]             { return &k.key }

// SetFocus moves keyboard focus to view, or clears it with nil. The old
// surface gets leave and loses its focus set; the new one gets enter with the
// keys currently held.
func (k *Keyboard) SetFocus(resources []KeyboardResource, view *core.SurfaceView) {
	if sameSurface(k.focus, view) && (view == nil || view.Alive()) {
		return
	}
	old := k.focus
	k.focus = view

	if old != nil {
		if s, ok := old.Surface(); ok {
			for _, r := range forClient(resources, s.Client()) {
				r.Leave(k.display.NextSerial(), s)
			}
			s.LoseKeyboardFocus()
		}
	}
	if view != nil {
		if s, ok := view.Surface(); ok {
			focused := forClient(resources, s.Client())
			keys := k.PressedKeys()
			gained := make([]core.ClientResource, 0, len(focused))
			for _, r := range focused {
				r.Enter(k.display.NextSerial(), s, keys)
				gained = append(gained, r)
			}
			s.GainKeyboardFocus(gained)
		}
	}
	k.focusChanged.Emit(view)
}

// Key records the key state and delivers it to the focused client.
func (k *Keyboard) Key(resources []KeyboardResource, time, key uint32, state KeyState) {
	switch state {
	case KeyPressed:
		if !slices.Contains(k.pressed, key) {
			k.pressed = append(k.pressed, key)
		}
	case KeyReleased:
		k.pressed = slices.DeleteFunc(k.pressed, func(p uint32) bool { return p == key })
	}

	if k.focus != nil {
		if s, ok := k.focus.Surface(); ok {
			for _, r := range forClient(resources, s.Client()) {
				r.Key(k.display.NextSerial(), time, key, state)
			}
		}
	}
	k.key.Emit(KeyEvent{Time: time, Key: key, State: state})
}
