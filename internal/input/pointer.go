package input

import (
	"slices"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/signal"
)

// PointerMotion is emitted after every pointer motion with the global
// position.
type PointerMotion struct {
	Time     uint32
	Position geo.Point
}

// PointerButton is emitted after every button event.
type PointerButton struct {
	Time   uint32
	Button uint32
	State  ButtonState
}

// Pointer tracks the cursor position, the focused surface and the implicit
// grab a button press establishes.
type Pointer struct {
	display *core.Display
	scene   *core.Scene
	layout  func() *geo.Region

	position geo.Point
	focus    *core.SurfaceView
	grab     *core.SurfaceView
	pressed  []uint32

	focusChanged signal.Signal[*core.SurfaceView]
	motion       signal.Signal[PointerMotion]
	button       signal.Signal[PointerButton]
}

// NewPointer returns a pointer at the origin. layout returns the area the
// cursor is confined to; an empty or nil region leaves it unconfined.
func NewPointer(display *core.Display, scene *core.Scene, layout func() *geo.Region) *Pointer {
	return &Pointer{display: display, scene: scene, layout: layout}
}

func (p *Pointer) Position() geo.Point { return p.position }

// Focus returns the focused view, if any.
func (p *Pointer) Focus() *core.SurfaceView { return p.focus }

// Grab returns the view holding the implicit button grab, if any.
func (p *Pointer) Grab() *core.SurfaceView { return p.grab }

// PressedButtons returns the buttons held down, in press order.
func (p *Pointer) PressedButtons() []uint32 { return slices.Clone(p.pressed) }

func (p *Pointer) FocusChanged() *signal.Signal[*core.SurfaceView] { return &p.focusChanged }
func (p *Pointer) MotionSignal() *signal.Signal[PointerMotion]     { return &p.motion }
func (p *Pointer) ButtonSignal() *signal.Signal[PointerButton]     { return &p.button }

// Motion moves the cursor to the global (x, y), confined to the output
// layout. Without a grab the focus follows the surface under the cursor.
func (p *Pointer) Motion(resources []PointerResource, time uint32, x, y int) {
	next := geo.Pt(x, y)
	if p.layout != nil {
		if region := p.layout(); !region.Empty() {
			next = geo.Clamp(p.position, next, region)
		}
	}
	p.position = next

	if p.grab == nil || !p.grab.Alive() {
		p.grab = nil
		p.refocus(resources)
	}

	if s, ok := p.focusedSurface(); ok {
		local := s.Local(p.position)
		for _, r := range forClient(resources, s.Client()) {
			r.Motion(time, float64(local.X), float64(local.Y))
		}
	}
	p.motion.Emit(PointerMotion{Time: time, Position: p.position})
}

// MotionRelative moves the cursor by (dx, dy).
func (p *Pointer) MotionRelative(resources []PointerResource, time uint32, dx, dy int) {
	p.Motion(resources, time, p.position.X+dx, p.position.Y+dy)
}

// Button delivers a button event to the focused client. The first press grabs
// the focused surface until the last button is released.
func (p *Pointer) Button(resources []PointerResource, time, button uint32, state ButtonState) {
	switch state {
	case ButtonPressed:
		if len(p.pressed) == 0 {
			p.grab = p.focus
		}
		if !slices.Contains(p.pressed, button) {
			p.pressed = append(p.pressed, button)
		}
	case ButtonReleased:
		p.pressed = slices.DeleteFunc(p.pressed, func(b uint32) bool { return b == button })
	}

	if s, ok := p.focusedSurface(); ok {
		for _, r := range forClient(resources, s.Client()) {
			r.Button(p.display.NextSerial(), time, button, state)
		}
	}
	p.button.Emit(PointerButton{Time: time, Button: button, State: state})

	if state == ButtonReleased && len(p.pressed) == 0 && p.grab != nil {
		p.grab = nil
		p.refocus(resources)
	}
}

// Axis delivers a scroll event to the focused client.
func (p *Pointer) Axis(resources []PointerResource, time uint32, axis Axis, value float64) {
	if s, ok := p.focusedSurface(); ok {
		for _, r := range forClient(resources, s.Client()) {
			r.Axis(time, axis, value)
		}
	}
}

// Frame ends a batch of pointer events for the focused client.
func (p *Pointer) Frame(resources []PointerResource) {
	if s, ok := p.focusedSurface(); ok {
		for _, r := range forClient(resources, s.Client()) {
			r.Frame()
		}
	}
}

// Refocus re-picks the focus at the current position, e.g. after the scene
// changed under a still cursor. It does nothing during a grab.
func (p *Pointer) Refocus(resources []PointerResource) {
	if p.grab == nil {
		p.refocus(resources)
	}
}

func (p *Pointer) refocus(resources []PointerResource) {
	view, _ := p.scene.PickSurfaceView(p.position)
	p.setFocus(resources, view)
}

func (p *Pointer) setFocus(resources []PointerResource, view *core.SurfaceView) {
	if sameSurface(p.focus, view) && (view == nil || view.Alive()) {
		return
	}
	old := p.focus
	p.focus = view

	if old != nil {
		if s, ok := old.Surface(); ok {
			for _, r := range forClient(resources, s.Client()) {
				r.Leave(p.display.NextSerial(), s)
			}
		}
	}
	if view != nil {
		if s, ok := view.Surface(); ok {
			local := s.Local(p.position)
			for _, r := range forClient(resources, s.Client()) {
				r.Enter(p.display.NextSerial(), s, float64(local.X), float64(local.Y))
			}
		}
	}
	p.focusChanged.Emit(view)
}

func (p *Pointer) focusedSurface() (*core.Surface, bool) {
	if p.focus == nil {
		return nil, false
	}
	return p.focus.Surface()
}
