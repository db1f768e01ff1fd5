package input

import (
	"testing"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerFocusFollowsMotion(t *testing.T) {
	w := newTestWorld()
	a, _ := w.mapView(1, geo.Pt(0, 0), 100, 100)
	b, _ := w.mapView(2, geo.Pt(200, 0), 100, 100)
	p1 := &testPointer{w: w, name: "c1", client: 1}
	p2 := &testPointer{w: w, name: "c2", client: 2}
	res := []PointerResource{p1, p2}

	ptr := NewPointer(w.comp.Display(), w.comp.Scene(), nil)
	var changes int
	ptr.FocusChanged().Connect(func(*core.SurfaceView) { changes++ })

	ptr.Motion(res, 0, 10, 20)
	ptr.Motion(res, 1, 11, 21)
	ptr.Motion(res, 2, 250, 50)
	ptr.Motion(res, 3, 150, 50)

	assert.Equal(t, []string{
		"c1.enter " + a.Handle().String() + " 10,20",
		"c1.motion 10,20",
		"c1.motion 11,21",
		"c1.leave " + a.Handle().String(),
		"c2.enter " + b.Handle().String() + " 50,50",
		"c2.motion 50,50",
		"c2.leave " + b.Handle().String(),
	}, w.log)
	assert.Equal(t, 3, changes, "focus only changes when the surface differs")
	assert.Nil(t, ptr.Focus())
	assert.Equal(t, geo.Pt(150, 50), ptr.Position())
}

func TestPointerImplicitGrab(t *testing.T) {
	w := newTestWorld()
	a, _ := w.mapView(1, geo.Pt(0, 0), 100, 100)
	w.mapView(2, geo.Pt(200, 0), 100, 100)
	res := []PointerResource{
		&testPointer{w: w, name: "c1", client: 1},
		&testPointer{w: w, name: "c2", client: 2},
	}
	ptr := NewPointer(w.comp.Display(), w.comp.Scene(), nil)

	ptr.Motion(res, 0, 50, 50)
	ptr.Button(res, 1, 0x110, ButtonPressed)
	require.NotNil(t, ptr.Grab())
	assert.Equal(t, a.Handle(), ptr.Grab().Handle())

	// Dragging over another client keeps the grabbed focus.
	w.log = nil
	ptr.Motion(res, 2, 250, 50)
	assert.Equal(t, []string{"c1.motion 250,50"}, w.log)
	assert.Equal(t, []uint32{0x110}, ptr.PressedButtons())

	w.log = nil
	ptr.Button(res, 3, 0x110, ButtonReleased)
	assert.Nil(t, ptr.Grab())
	assert.Equal(t, []string{
		"c1.button 272 0",
		"c1.leave " + a.Handle().String(),
		"c2.enter " + ptr.Focus().Handle().String() + " 50,50",
	}, w.log)
}

func TestPointerGrabEndsOnLastButton(t *testing.T) {
	w := newTestWorld()
	w.mapView(1, geo.Pt(0, 0), 100, 100)
	res := []PointerResource{&testPointer{w: w, name: "c1", client: 1}}
	ptr := NewPointer(w.comp.Display(), w.comp.Scene(), nil)

	ptr.Motion(res, 0, 50, 50)
	ptr.Button(res, 0, 0x110, ButtonPressed)
	ptr.Button(res, 0, 0x111, ButtonPressed)
	ptr.Button(res, 0, 0x110, ButtonReleased)
	assert.NotNil(t, ptr.Grab())
	ptr.Button(res, 0, 0x111, ButtonReleased)
	assert.Nil(t, ptr.Grab())
	assert.Empty(t, ptr.PressedButtons())
}

func TestPointerClampsToLayout(t *testing.T) {
	w := newTestWorld()
	layout := geo.NewRegion(geo.Rect(0, 0, 1920, 1080))
	ptr := NewPointer(w.comp.Display(), w.comp.Scene(), func() *geo.Region { return layout })

	ptr.Motion(nil, 0, 100, 100)
	ptr.Motion(nil, 0, 5000, -30)
	assert.Equal(t, geo.Pt(1920, 0), ptr.Position())

	ptr.MotionRelative(nil, 0, -3000, 10)
	assert.Equal(t, geo.Pt(0, 10), ptr.Position())
}

func TestPointerAxisAndFrame(t *testing.T) {
	w := newTestWorld()
	w.mapView(1, geo.Pt(0, 0), 100, 100)
	res := []PointerResource{
		&testPointer{w: w, name: "c1", client: 1},
		&testPointer{w: w, name: "c2", client: 2},
	}
	ptr := NewPointer(w.comp.Display(), w.comp.Scene(), nil)

	ptr.Axis(res, 0, AxisVertical, 10)
	assert.Empty(t, w.log, "no focus, nothing delivered")

	ptr.Motion(res, 0, 1, 1)
	w.log = nil
	ptr.Axis(res, 0, AxisVertical, -10)
	ptr.Frame(res)
	assert.Equal(t, []string{"c1.axis 0 -10", "c1.frame"}, w.log)
}

func TestPointerRefocusAfterSceneChange(t *testing.T) {
	w := newTestWorld()
	res := []PointerResource{&testPointer{w: w, name: "c1", client: 1}}
	ptr := NewPointer(w.comp.Display(), w.comp.Scene(), nil)

	ptr.Motion(res, 0, 10, 10)
	assert.Nil(t, ptr.Focus())

	s, _ := w.mapView(1, geo.Pt(0, 0), 100, 100)
	ptr.Refocus(res)
	require.NotNil(t, ptr.Focus())
	assert.Equal(t, s.Handle(), ptr.Focus().Handle())
}
