package core

import (
	"fmt"

	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/signal"
)

// RenderOutput is the backend side of an output. The compositor's renderer
// calls the hooks around every frame.
type RenderOutput interface {
	// RenderBegin runs before anything is drawn for a frame.
	RenderBegin()
	// Render draws the frame into the back buffer.
	Render()
	// RenderEndBeforeSwap runs after drawing, before buffers are swapped.
	RenderEndBeforeSwap()
	// RenderEndAfterSwap runs once the new frame is presented.
	RenderEndAfterSwap()
	// Enable starts rendering to the output.
	Enable()
	// Disable stops any pending and future rendering.
	Disable()
}

// RenderHooks implements every RenderOutput hook as a no-op. Backends embed it
// and override what they need.
type RenderHooks struct{}

func (RenderHooks) RenderBegin()         {}
func (RenderHooks) Render()              {}
func (RenderHooks) RenderEndBeforeSwap() {}
func (RenderHooks) RenderEndAfterSwap()  {}
func (RenderHooks) Enable()              {}
func (RenderHooks) Disable()             {}

// Subpixel is the wl_output.subpixel enumeration.
type Subpixel int32

const (
	SubpixelUnknown Subpixel = iota
	SubpixelNone
	SubpixelHorizontalRGB
	SubpixelHorizontalBGR
	SubpixelVerticalRGB
	SubpixelVerticalBGR
)

// OutputGeometry is what wl_output.geometry advertises.
type OutputGeometry struct {
	X, Y int
	// Physical size in millimetres.
	PhysicalWidth  int
	PhysicalHeight int
	Subpixel       Subpixel
	Make           string
	Model          string
	Transform      geo.OutputTransform
}

// Mode is a video mode. Refresh is in millihertz.
type Mode struct {
	Width   int
	Height  int
	Refresh int
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%.2f", m.Width, m.Height, float64(m.Refresh)/1000)
}

// Output is a physical or virtual display.
type Output struct {
	name     string
	geometry OutputGeometry
	mode     Mode
	scale    int
	enabled  bool
	render   RenderOutput
	changed  signal.Signal[*Output]
}

// NewOutput returns a disabled output backed by render.
func NewOutput(name string, geometry OutputGeometry, mode Mode, render RenderOutput) *Output {
	if render == nil {
		render = RenderHooks{}
	}
	return &Output{name: name, geometry: geometry, mode: mode, scale: 1, render: render}
}

func (o *Output) Name() string               { return o.name }
func (o *Output) Geometry() OutputGeometry   { return o.geometry }
func (o *Output) Mode() Mode                 { return o.mode }
func (o *Output) Scale() int                 { return o.scale }
func (o *Output) Enabled() bool              { return o.enabled }
func (o *Output) RenderOutput() RenderOutput { return o.render }

// Changed fires after the geometry, mode, scale or enabled state changes.
func (o *Output) Changed() *signal.Signal[*Output] { return &o.changed }

func (o *Output) SetGeometry(g OutputGeometry) {
	o.geometry = g
	o.changed.Emit(o)
}

func (o *Output) SetMode(m Mode) {
	o.mode = m
	o.changed.Emit(o)
}

// SetScale sets the output scale. Values below 1 are ignored.
func (o *Output) SetScale(scale int) {
	if scale < 1 {
		return
	}
	o.scale = scale
	o.changed.Emit(o)
}

// Enable turns the output on and runs the backend's Enable hook.
func (o *Output) Enable() {
	if o.enabled {
		return
	}
	o.enabled = true
	o.render.Enable()
	o.changed.Emit(o)
}

// Disable turns the output off and runs the backend's Disable hook.
func (o *Output) Disable() {
	if !o.enabled {
		return
	}
	o.enabled = false
	o.render.Disable()
	o.changed.Emit(o)
}

// Bounds is the output's logical area in the global space: the mode size
// divided by the scale, with axes swapped for quarter-turn transforms.
func (o *Output) Bounds() geo.Rectangle {
	w, h := o.mode.Width/o.scale, o.mode.Height/o.scale
	if o.geometry.Transform.SwapsAxes() {
		w, h = h, w
	}
	return geo.Rect(o.geometry.X, o.geometry.Y, w, h)
}

// Region returns Bounds as a region.
func (o *Output) Region() *geo.Region {
	return geo.NewRegion(o.Bounds())
}
