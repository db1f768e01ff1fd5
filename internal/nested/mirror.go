package nested

import (
	"fmt"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// outputModeCurrent is the wl_output.mode flag of the active mode.
const outputModeCurrent = 0x1

// Snapshot is the state of a host output once the host sent wl_output.done.
type Snapshot struct {
	Global   uint32
	Name     string
	Geometry core.OutputGeometry
	Mode     core.Mode
	Scale    int
}

// mirror accumulates wl_output events of one host output. It is owned by
// the goroutine dispatching host events.
type mirror struct {
	pending Snapshot
}

func newMirror(global uint32) *mirror {
	return &mirror{pending: Snapshot{Global: global, Name: fmt.Sprintf("WL-%d", global), Scale: 1}}
}

func (m *mirror) geometry(e client.OutputGeometryEvent) {
	transform, err := geo.ParseOutputTransform(e.Transform)
	if err != nil {
		transform = geo.TransformNormal
	}
	subpixel := core.Subpixel(e.Subpixel)
	if subpixel < core.SubpixelUnknown || subpixel > core.SubpixelVerticalBGR {
		subpixel = core.SubpixelUnknown
	}
	m.pending.Geometry = core.OutputGeometry{
		X:              int(e.X),
		Y:              int(e.Y),
		PhysicalWidth:  int(e.PhysicalWidth),
		PhysicalHeight: int(e.PhysicalHeight),
		Subpixel:       subpixel,
		Make:           e.Make,
		Model:          e.Model,
		Transform:      transform,
	}
}

// mode keeps only the current mode; hosts also list the other modes.
func (m *mirror) mode(e client.OutputModeEvent) {
	if e.Flags&outputModeCurrent == 0 {
		return
	}
	m.pending.Mode = core.Mode{Width: int(e.Width), Height: int(e.Height), Refresh: int(e.Refresh)}
}

func (m *mirror) scale(e client.OutputScaleEvent) {
	if e.Factor >= 1 {
		m.pending.Scale = int(e.Factor)
	}
}

func (m *mirror) name(e client.OutputNameEvent) {
	if e.Name != "" {
		m.pending.Name = e.Name
	}
}

func (m *mirror) done() Snapshot { return m.pending }
