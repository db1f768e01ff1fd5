package nested

import (
	"testing"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorCollectsOutputState(t *testing.T) {
	m := newMirror(7)
	m.geometry(client.OutputGeometryEvent{
		X: 1920, Y: 0, PhysicalWidth: 600, PhysicalHeight: 340,
		Subpixel: 2, Make: "Dell", Model: "U2720Q", Transform: 1,
	})
	m.mode(client.OutputModeEvent{Flags: 0, Width: 1280, Height: 720, Refresh: 60000})
	m.mode(client.OutputModeEvent{Flags: 0x3, Width: 3840, Height: 2160, Refresh: 59997})
	m.scale(client.OutputScaleEvent{Factor: 2})
	m.name(client.OutputNameEvent{Name: "DP-2"})

	s := m.done()
	assert.Equal(t, uint32(7), s.Global)
	assert.Equal(t, "DP-2", s.Name)
	assert.Equal(t, core.Mode{Width: 3840, Height: 2160, Refresh: 59997}, s.Mode)
	assert.Equal(t, 2, s.Scale)
	assert.Equal(t, core.OutputGeometry{
		X: 1920, PhysicalWidth: 600, PhysicalHeight: 340,
		Subpixel: core.SubpixelHorizontalRGB, Make: "Dell", Model: "U2720Q",
		Transform: geo.Transform90,
	}, s.Geometry)
}

func TestMirrorDefaultsAndInvalidValues(t *testing.T) {
	m := newMirror(3)
	m.geometry(client.OutputGeometryEvent{Subpixel: 42, Transform: 9})
	m.scale(client.OutputScaleEvent{Factor: 0})
	m.name(client.OutputNameEvent{})

	s := m.done()
	assert.Equal(t, "WL-3", s.Name)
	assert.Equal(t, 1, s.Scale)
	assert.Equal(t, core.SubpixelUnknown, s.Geometry.Subpixel)
	assert.Equal(t, geo.TransformNormal, s.Geometry.Transform)
}

type queue struct{ jobs []func() }

func (q *queue) Submit(job func()) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *queue) drain() {
	for len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		job()
	}
}

func newTestPlatform() (*Platform, *core.Compositor, *queue) {
	q := &queue{}
	comp := core.NewCompositor(core.NewDisplay(), q, nil)
	return newPlatform(comp, q, logger.WithPrefix("nested")), comp, q
}

func TestPublishBeforeStartAppliesDirectly(t *testing.T) {
	p, comp, _ := newTestPlatform()

	p.publish(Snapshot{Global: 1, Name: "eDP-1", Mode: core.Mode{Width: 1920, Height: 1080, Refresh: 60000}, Scale: 1})

	outputs := comp.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "eDP-1", outputs[0].Name())
	assert.True(t, outputs[0].Enabled())
	assert.Equal(t, geo.Rectangle{Width: 1920, Height: 1080}, outputs[0].Bounds())
}

func TestUpdatesAfterStartGoThroughScheduler(t *testing.T) {
	p, comp, q := newTestPlatform()
	p.publish(Snapshot{Global: 1, Name: "eDP-1", Mode: core.Mode{Width: 1920, Height: 1080}, Scale: 1})
	q.drain()

	p.started = true
	p.publish(Snapshot{Global: 1, Name: "eDP-1", Mode: core.Mode{Width: 2560, Height: 1440}, Scale: 2})
	assert.Equal(t, 1920, comp.Outputs()[0].Mode().Width, "update must wait for the reactor")

	q.drain()
	out := p.Outputs()[1]
	require.NotNil(t, out)
	assert.Equal(t, 2560, out.Mode().Width)
	assert.Equal(t, 2, out.Scale())
}

func TestRemoveForgetsOutput(t *testing.T) {
	p, comp, _ := newTestPlatform()
	p.publish(Snapshot{Global: 1, Name: "A", Mode: core.Mode{Width: 800, Height: 600}, Scale: 1})
	p.publish(Snapshot{Global: 2, Name: "B", Mode: core.Mode{Width: 800, Height: 600}, Scale: 1})
	require.Len(t, comp.Outputs(), 2)

	p.remove(1)
	p.remove(99)

	outputs := comp.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, "B", outputs[0].Name())
	assert.NotContains(t, p.Outputs(), uint32(1))
}
