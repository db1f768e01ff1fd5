package input

import (
	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/signal"
)

// TouchPoint is the payload of the touch down, up and motion signals.
type TouchPoint struct {
	ID       int32
	Time     uint32
	Position geo.Point
}

// Touch routes every finger of a touch sequence to the surface the first
// finger landed on. The grab ends on the first frame after the last finger
// lifts, or on cancel.
type Touch struct {
	display *core.Display
	scene   *core.Scene

	grab       *core.SurfaceView
	count      int
	downSerial uint32
	upSerial   uint32

	down   signal.Signal[TouchPoint]
	up     signal.Signal[TouchPoint]
	motion signal.Signal[TouchPoint]
	grabCh signal.Signal[*core.SurfaceView]
}

func NewTouch(display *core.Display, scene *core.Scene) *Touch {
	return &Touch{display: display, scene: scene}
}

// Grab returns the grabbed view, or nil when idle.
func (t *Touch) Grab() *core.SurfaceView { return t.grab }

// Count returns the number of fingers down on the grabbed view.
func (t *Touch) Count() int { return t.count }

func (t *Touch) DownSerial() uint32 { return t.downSerial }
func (t *Touch) UpSerial() uint32   { return t.upSerial }

func (t *Touch) DownSignal() *signal.Signal[TouchPoint]   { return &t.down }
func (t *Touch) UpSignal() *signal.Signal[TouchPoint]     { return &t.up }
func (t *Touch) MotionSignal() *signal.Signal[TouchPoint] { return &t.motion }

// GrabSignal fires whenever the grab is established or released. The payload
// is the new grab, nil on release.
func (t *Touch) GrabSignal() *signal.Signal[*core.SurfaceView] { return &t.grabCh }

// Down starts a touch point at the global (x, y). Without a grab the view
// under the point becomes the grab.
func (t *Touch) Down(resources []TouchResource, id int32, time uint32, x, y int) {
	pos := geo.Pt(x, y)
	if t.grab == nil {
		t.grab, _ = t.scene.PickSurfaceView(pos)
		t.grabCh.Emit(t.grab)
	}
	if t.grab != nil {
		t.count++
		if s, ok := t.grab.Surface(); ok {
			local := s.Local(pos)
			for _, r := range forClient(resources, s.Client()) {
				t.downSerial = t.display.NextSerial()
				r.Down(t.downSerial, time, s, id, float64(local.X), float64(local.Y))
			}
		}
	}
	t.down.Emit(TouchPoint{ID: id, Time: time, Position: pos})
}

// Up ends a touch point.
func (t *Touch) Up(resources []TouchResource, id int32, time uint32) {
	if t.grab != nil {
		if client, ok := t.grab.Client(); ok {
			for _, r := range forClient(resources, client) {
				t.upSerial = t.display.NextSerial()
				r.Up(t.upSerial, time, id)
			}
		}
		t.count--
		if t.count < 0 {
			t.count = 0
		}
	}
	t.up.Emit(TouchPoint{ID: id, Time: time})
}

// Motion moves a touch point, reported relative to the grabbed surface.
func (t *Touch) Motion(resources []TouchResource, id int32, time uint32, x, y int) {
	pos := geo.Pt(x, y)
	if t.grab != nil {
		if s, ok := t.grab.Surface(); ok {
			local := s.Local(pos)
			for _, r := range forClient(resources, s.Client()) {
				r.Motion(time, id, float64(local.X), float64(local.Y))
			}
		}
	}
	t.motion.Emit(TouchPoint{ID: id, Time: time, Position: pos})
}

// Frame ends a batch of touch events. When no finger is left down the grab is
// released before the frame reaches each of the grabbed client's resources.
func (t *Touch) Frame(resources []TouchResource) {
	if t.grab == nil {
		return
	}
	client, ok := t.grab.Client()
	if !ok {
		// The grabbed surface is gone, nobody is left to receive the frame.
		if t.count == 0 {
			t.grab = nil
			t.grabCh.Emit(nil)
		}
		return
	}
	for _, r := range forClient(resources, client) {
		if t.count == 0 && t.grab != nil {
			t.grab = nil
			t.grabCh.Emit(nil)
		}
		r.Frame()
	}
}

// Cancel aborts the touch sequence for the grabbed client and resets the
// grab regardless of fingers still down.
func (t *Touch) Cancel(resources []TouchResource) {
	if t.grab != nil {
		if client, ok := t.grab.Client(); ok {
			for _, r := range forClient(resources, client) {
				r.Cancel()
			}
		}
	}
	t.grab = nil
	t.count = 0
}
