package input

import (
	"testing"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/stretchr/testify/assert"
)

func TestKeyboardFocus(t *testing.T) {
	w := newTestWorld()
	a, va := w.mapView(1, geo.Pt(0, 0), 100, 100)
	b, vb := w.mapView(2, geo.Pt(200, 0), 100, 100)
	k1 := &testKeyboard{w: w, name: "c1", client: 1}
	k2 := &testKeyboard{w: w, name: "c2", client: 2}
	res := []KeyboardResource{k1, k2}

	var lost []core.KeyboardFocus
	a.KeyboardFocusLost().Connect(func(f core.KeyboardFocus) { lost = append(lost, f) })

	kb := NewKeyboard(w.comp.Display())
	kb.SetFocus(res, va)
	assert.Len(t, a.KeyboardFocuses(), 1)

	kb.Key(res, 0, 30, KeyPressed)
	kb.SetFocus(res, vb)

	assert.Equal(t, []string{
		"c1.enter " + a.Handle().String() + " []",
		"c1.key 30 1",
		"c1.leave " + a.Handle().String(),
		"c2.enter " + b.Handle().String() + " [30]",
	}, w.log)
	assert.Empty(t, a.KeyboardFocuses())
	assert.Len(t, b.KeyboardFocuses(), 1)
	assert.Len(t, lost, 1)
	assert.Same(t, vb, kb.Focus())
}

func TestKeyboardSameFocusIsNoop(t *testing.T) {
	w := newTestWorld()
	_, v := w.mapView(1, geo.Pt(0, 0), 100, 100)
	res := []KeyboardResource{&testKeyboard{w: w, name: "c1", client: 1}}
	kb := NewKeyboard(w.comp.Display())

	var changes int
	kb.FocusChanged().Connect(func(*core.SurfaceView) { changes++ })
	kb.SetFocus(res, v)
	kb.SetFocus(res, v)
	assert.Equal(t, 1, changes)
	assert.Len(t, w.log, 1)
}

func TestKeyboardPressedKeys(t *testing.T) {
	w := newTestWorld()
	kb := NewKeyboard(w.comp.Display())

	var events []KeyEvent
	kb.KeySignal().Connect(func(e KeyEvent) { events = append(events, e) })

	kb.Key(nil, 1, 30, KeyPressed)
	kb.Key(nil, 2, 31, KeyPressed)
	kb.Key(nil, 3, 30, KeyPressed)
	assert.Equal(t, []uint32{30, 31}, kb.PressedKeys())

	kb.Key(nil, 4, 30, KeyReleased)
	assert.Equal(t, []uint32{31}, kb.PressedKeys())
	assert.Len(t, events, 4)
	assert.Empty(t, w.log, "no focus, nothing delivered")
}

func TestKeyboardClearFocus(t *testing.T) {
	w := newTestWorld()
	s, v := w.mapView(1, geo.Pt(0, 0), 100, 100)
	res := []KeyboardResource{&testKeyboard{w: w, name: "c1", client: 1}}
	kb := NewKeyboard(w.comp.Display())

	kb.SetFocus(res, v)
	kb.SetFocus(res, nil)
	assert.Nil(t, kb.Focus())
	assert.Empty(t, s.KeyboardFocuses())
	assert.Equal(t, "c1.leave "+s.Handle().String(), w.log[len(w.log)-1])
}
