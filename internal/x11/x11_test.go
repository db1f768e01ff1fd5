package x11

import (
	"fmt"
	"io"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/input"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtonCode(t *testing.T) {
	tests := []struct {
		detail byte
		code   uint32
		ok     bool
	}{
		{1, 0x110, true},
		{2, 0x112, true},
		{3, 0x111, true},
		{4, 0, false},
		{8, 0, false},
	}
	for _, tt := range tests {
		code, ok := ButtonCode(tt.detail)
		assert.Equal(t, tt.ok, ok, "button %d", tt.detail)
		assert.Equal(t, tt.code, code, "button %d", tt.detail)
	}
}

func TestTranslateButtons(t *testing.T) {
	origin := geo.Point{X: 1024, Y: 0}

	events := Translate(xproto.ButtonPressEvent{Detail: 1, Time: 42, Event: 7}, origin)
	assert.Equal(t, []input.Event{
		input.PointerButtonEvent{Time: 42, Button: 0x110, State: input.ButtonPressed},
		input.PointerFrameEvent{},
	}, events)

	events = Translate(xproto.ButtonReleaseEvent{Detail: 3, Time: 43}, origin)
	assert.Equal(t, []input.Event{
		input.PointerButtonEvent{Time: 43, Button: 0x111, State: input.ButtonReleased},
		input.PointerFrameEvent{},
	}, events)
}

func TestTranslateWheel(t *testing.T) {
	tests := []struct {
		name   string
		detail xproto.Button
		axis   input.Axis
		value  float64
	}{
		{"up", 4, input.AxisVertical, -10},
		{"down", 5, input.AxisVertical, 10},
		{"left", 6, input.AxisHorizontal, -10},
		{"right", 7, input.AxisHorizontal, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Translate(xproto.ButtonPressEvent{Detail: tt.detail, Time: 5}, geo.Point{})
			require.Len(t, events, 2)
			assert.Equal(t, input.PointerAxisEvent{Time: 5, Axis: tt.axis, Value: tt.value}, events[0])

			assert.Nil(t, Translate(xproto.ButtonReleaseEvent{Detail: tt.detail}, geo.Point{}))
		})
	}
}

func TestTranslateMotionUsesOutputOrigin(t *testing.T) {
	events := Translate(xproto.MotionNotifyEvent{EventX: 10, EventY: 20, Time: 9}, geo.Point{X: 1024, Y: 0})
	assert.Equal(t, []input.Event{
		input.PointerMotionEvent{Time: 9, X: 1034, Y: 20},
		input.PointerFrameEvent{},
	}, events)

	events = Translate(xproto.EnterNotifyEvent{EventX: 3, EventY: 4}, geo.Point{X: 0, Y: 100})
	require.Len(t, events, 2)
	assert.Equal(t, input.PointerMotionEvent{X: 3, Y: 104}, events[0])
}

func TestTranslateKeys(t *testing.T) {
	events := Translate(xproto.KeyPressEvent{Detail: 38, Time: 1}, geo.Point{})
	assert.Equal(t, []input.Event{input.KeyboardKeyEvent{Time: 1, Key: 30, State: input.KeyPressed}}, events)

	events = Translate(xproto.KeyReleaseEvent{Detail: 38, Time: 2}, geo.Point{})
	assert.Equal(t, []input.Event{input.KeyboardKeyEvent{Time: 2, Key: 30, State: input.KeyReleased}}, events)

	assert.Nil(t, Translate(xproto.KeyPressEvent{Detail: 3}, geo.Point{}))
}

func TestTranslateIgnoresOtherEvents(t *testing.T) {
	assert.Nil(t, Translate(xproto.FocusInEvent{}, geo.Point{}))
	_, ok := EventWindow(xproto.FocusInEvent{})
	assert.False(t, ok)
}

func TestEventWindow(t *testing.T) {
	win, ok := EventWindow(xproto.KeyPressEvent{Event: 99})
	require.True(t, ok)
	assert.Equal(t, xproto.Window(99), win)
}

func TestIsDeleteRequest(t *testing.T) {
	const deleteAtom = xproto.Atom(301)

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: 12,
		Type:   300,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}
	win, ok := IsDeleteRequest(ev, deleteAtom)
	assert.True(t, ok)
	assert.Equal(t, xproto.Window(12), win)

	ev.Data = xproto.ClientMessageDataUnionData32New([]uint32{7, 0, 0, 0, 0})
	_, ok = IsDeleteRequest(ev, deleteAtom)
	assert.False(t, ok)

	_, ok = IsDeleteRequest(xproto.KeyPressEvent{}, deleteAtom)
	assert.False(t, ok)
}

func TestPhysicalSize(t *testing.T) {
	assert.Equal(t, 270, PhysicalSize(1024, 1920, 508))
	assert.Equal(t, 0, PhysicalSize(1024, 0, 508))
}

const testDeleteAtom = xproto.Atom(301)

type windowRecorder struct {
	destroyed    []xproto.Window
	disconnected int
}

// newTestPlatform builds a platform with two windows and no X connection.
func newTestPlatform(t *testing.T, onQuit func()) (*Platform, *core.Compositor, *windowRecorder) {
	t.Helper()
	comp := core.NewCompositor(core.NewDisplay(), core.SchedulerFunc(func(job func()) error { job(); return nil }), nil)
	rec := &windowRecorder{}
	p := &Platform{
		comp:          comp,
		deleteWindow:  testDeleteAtom,
		outputs:       make(map[xproto.Window]*Output),
		onQuit:        onQuit,
		log:           log.New(io.Discard),
		destroyWindow: func(win xproto.Window) { rec.destroyed = append(rec.destroyed, win) },
		disconnect:    func() { rec.disconnected++ },
	}
	for i, win := range []xproto.Window{10, 11} {
		out := &Output{window: win}
		out.output = core.NewOutput(fmt.Sprintf("X%d", i+1), core.OutputGeometry{X: comp.NextOutputX()},
			core.Mode{Width: 800, Height: 600, Refresh: outputRefresh}, out)
		p.outputs[win] = out
		p.order = append(p.order, out)
		comp.AddOutput(out.output)
	}
	return p, comp, rec
}

func deleteRequest(win xproto.Window) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(testDeleteAtom), 0, 0, 0, 0}),
	}
}

func TestCloseWindowRemovesOutput(t *testing.T) {
	quit := 0
	p, comp, rec := newTestPlatform(t, func() { quit++ })

	p.handle(deleteRequest(10))
	assert.Equal(t, []xproto.Window{10}, rec.destroyed)
	require.Len(t, comp.Outputs(), 1)
	assert.Equal(t, "X2", comp.Outputs()[0].Name())
	assert.Zero(t, quit)

	p.handle(deleteRequest(10))
	assert.Len(t, rec.destroyed, 1, "second request for a closed window is ignored")

	p.handle(deleteRequest(11))
	assert.Equal(t, []xproto.Window{10, 11}, rec.destroyed)
	assert.Empty(t, comp.Outputs())
	assert.Equal(t, 1, quit)
}

func TestCloseIgnoresLaterEvents(t *testing.T) {
	p, comp, rec := newTestPlatform(t, nil)
	p.handle(deleteRequest(10))

	p.Close()
	assert.Equal(t, []xproto.Window{10, 11}, rec.destroyed)
	assert.Equal(t, 1, rec.disconnected)
	assert.Empty(t, comp.Outputs())
	assert.Empty(t, p.Outputs())

	// A delete request queued before the connection dropped runs after Close.
	p.handle(deleteRequest(11))
	p.Close()
	assert.Len(t, rec.destroyed, 2)
	assert.Equal(t, 1, rec.disconnected)
}
