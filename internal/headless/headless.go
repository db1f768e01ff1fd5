// Package headless provides virtual outputs that are never shown anywhere.
package headless

import (
	"fmt"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/logger"
)

const defaultRefresh = 60000

// OutputConfig describes one virtual output. Refresh is in millihertz and
// defaults to 60 Hz; Scale defaults to 1.
type OutputConfig struct {
	Name    string
	Width   int
	Height  int
	Refresh int
	Scale   int
}

// DefaultOutputs is used when the configuration lists none.
var DefaultOutputs = []OutputConfig{{Name: "HEADLESS-1", Width: 1920, Height: 1080}}

// Output counts the frames rendered to a virtual output.
type Output struct {
	core.RenderHooks
	output *core.Output
	frames uint64
}

func (o *Output) Output() *core.Output { return o.output }
func (o *Output) Frames() uint64       { return o.frames }

func (o *Output) Render() { o.frames++ }

// Platform owns the virtual outputs.
type Platform struct {
	outputs []*Output
}

// NewPlatform creates the configured outputs left to right and adds them to
// comp.
func NewPlatform(outputs []OutputConfig, comp *core.Compositor) (*Platform, error) {
	l := logger.WithPrefix("headless")
	if len(outputs) == 0 {
		outputs = DefaultOutputs
	}

	p := &Platform{}
	for i, oc := range outputs {
		if oc.Width <= 0 || oc.Height <= 0 {
			return nil, fmt.Errorf("headless output %d: invalid size %dx%d", i, oc.Width, oc.Height)
		}
		name := oc.Name
		if name == "" {
			name = fmt.Sprintf("HEADLESS-%d", i+1)
		}
		refresh := oc.Refresh
		if refresh <= 0 {
			refresh = defaultRefresh
		}

		out := &Output{}
		geometry := core.OutputGeometry{X: comp.NextOutputX(), Make: "wayfold", Model: "headless"}
		out.output = core.NewOutput(name, geometry, core.Mode{Width: oc.Width, Height: oc.Height, Refresh: refresh}, out)
		if oc.Scale > 1 {
			out.output.SetScale(oc.Scale)
		}
		p.outputs = append(p.outputs, out)
		comp.AddOutput(out.output)
		l.Info("Virtual output created", "name", name, "mode", out.output.Mode().String(), "scale", out.output.Scale())
	}
	return p, nil
}

func (p *Platform) Outputs() []*Output { return p.outputs }
