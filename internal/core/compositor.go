package core

import (
	"slices"
	"time"

	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/log"
)

// Renderer draws the scene onto one output.
type Renderer interface {
	Render(out *Output, views []*SurfaceView) error
}

// HookRenderer drives an output's render hooks without drawing pixels. It is
// used by the headless platform and whenever no GPU renderer is attached.
type HookRenderer struct{}

func (HookRenderer) Render(out *Output, _ []*SurfaceView) error {
	ro := out.RenderOutput()
	ro.RenderBegin()
	ro.Render()
	ro.RenderEndBeforeSwap()
	ro.RenderEndAfterSwap()
	return nil
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(job func()) error

func (f SchedulerFunc) Submit(job func()) error { return f(job) }

// Compositor ties the surface arena, scene and outputs together and turns
// render requests into frames.
type Compositor struct {
	display   *Display
	surfaces  *Surfaces
	scene     *Scene
	outputs   []*Output
	scheduler Scheduler
	renderer  Renderer
	clock     func() time.Time
	log       *log.Logger

	renderPending bool
	frames        uint64
}

// CompositorOption customises a Compositor.
type CompositorOption func(*Compositor)

// WithRenderer replaces the default HookRenderer.
func WithRenderer(r Renderer) CompositorOption {
	return func(c *Compositor) { c.renderer = r }
}

// WithClock replaces time.Now for frame timestamps.
func WithClock(clock func() time.Time) CompositorOption {
	return func(c *Compositor) { c.clock = clock }
}

// NewCompositor returns a compositor whose renders are scheduled on sched.
// querier sizes client buffers.
func NewCompositor(display *Display, sched Scheduler, querier BufferQuerier, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		display:   display,
		scheduler: sched,
		renderer:  HookRenderer{},
		clock:     time.Now,
		log:       logger.WithPrefix("compositor"),
	}
	c.surfaces = NewSurfaces(c, querier)
	c.scene = NewScene(c.surfaces)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compositor) Display() *Display   { return c.display }
func (c *Compositor) Surfaces() *Surfaces { return c.surfaces }
func (c *Compositor) Scene() *Scene       { return c.scene }

// Frames returns how many frames were rendered.
func (c *Compositor) Frames() uint64 { return c.frames }

// RequestRender schedules one render. Requests made before it runs are
// folded into it.
func (c *Compositor) RequestRender() {
	if c.renderPending {
		return
	}
	c.renderPending = true
	if err := c.scheduler.Submit(c.render); err != nil {
		c.renderPending = false
		c.log.Debug("Render request dropped", "error", err)
	}
}

func (c *Compositor) render() {
	c.renderPending = false
	c.scene.Prune()
	views := c.scene.Views()
	for _, out := range c.outputs {
		if !out.Enabled() {
			continue
		}
		if err := c.renderer.Render(out, views); err != nil {
			c.log.Error("Render failed", "output", out.Name(), "error", err)
		}
	}
	c.frames++

	ms := uint32(c.clock().UnixMilli())
	for _, s := range c.scene.Surfaces() {
		s.FirePaintCallbacks(ms)
	}
}

// AddOutput registers out, enables it and schedules a render.
func (c *Compositor) AddOutput(out *Output) {
	if slices.Contains(c.outputs, out) {
		return
	}
	c.outputs = append(c.outputs, out)
	out.Enable()
	c.log.Info("Output added", "name", out.Name(), "mode", out.Mode().String(), "bounds", out.Bounds().String())
	c.RequestRender()
}

// RemoveOutput disables and forgets out.
func (c *Compositor) RemoveOutput(out *Output) {
	i := slices.Index(c.outputs, out)
	if i < 0 {
		return
	}
	out.Disable()
	c.outputs = slices.Delete(c.outputs, i, i+1)
	c.log.Info("Output removed", "name", out.Name())
}

// Outputs returns the registered outputs in the order they were added.
func (c *Compositor) Outputs() []*Output {
	return slices.Clone(c.outputs)
}

// OutputRegion is the union of every enabled output's area.
func (c *Compositor) OutputRegion() *geo.Region {
	r := geo.NewRegion()
	for _, out := range c.outputs {
		if out.Enabled() {
			r.Add(out.Bounds())
		}
	}
	return r
}

// NextOutputX returns the x where an output placed to the right of the
// current layout starts.
func (c *Compositor) NextOutputX() int {
	x := 0
	for _, out := range c.outputs {
		b := out.Bounds()
		x = max(x, b.X+b.Width)
	}
	return x
}
