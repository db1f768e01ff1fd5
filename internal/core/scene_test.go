package core

import (
	"testing"
	"time"

	"github.com/bnema/wayfold/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenePickSurfaceView(t *testing.T) {
	a, _ := newTestSurfaces()
	sc := NewScene(a)

	back := mappedSurface(a, 1, geo.Pt(0, 0), 100, 100)
	front := mappedSurface(a, 2, geo.Pt(50, 50), 100, 100)
	backView := sc.CreateView(back.Handle())
	frontView := sc.CreateView(front.Handle())

	t.Run("front-most wins", func(t *testing.T) {
		v, ok := sc.PickSurfaceView(geo.Pt(60, 60))
		require.True(t, ok)
		assert.Same(t, frontView, v)

		v, ok = sc.PickSurfaceView(geo.Pt(10, 10))
		require.True(t, ok)
		assert.Same(t, backView, v)
	})

	t.Run("nothing under the point", func(t *testing.T) {
		_, ok := sc.PickSurfaceView(geo.Pt(300, 300))
		assert.False(t, ok)
		_, ok = sc.PickSurfaceView(geo.Pt(150, 60))
		assert.False(t, ok, "right edge is exclusive")
	})

	t.Run("restacking changes the pick", func(t *testing.T) {
		sc.Lower(frontView)
		v, _ := sc.PickSurfaceView(geo.Pt(60, 60))
		assert.Same(t, backView, v)
		sc.Raise(frontView)
		v, _ = sc.PickSurfaceView(geo.Pt(60, 60))
		assert.Same(t, frontView, v)
	})

	t.Run("input region limits the hit area", func(t *testing.T) {
		front.SetInputRegion(geo.NewRegion(geo.Rect(50, 50, 200, 200)))
		front.AttachBuffer(newFakeBuffer("b", 100, 100), 0, 0)
		front.Commit()
		defer func() {
			front.RemoveInputRegion()
			front.AttachBuffer(newFakeBuffer("b", 100, 100), 0, 0)
			front.Commit()
		}()

		v, _ := sc.PickSurfaceView(geo.Pt(60, 60))
		assert.Same(t, backView, v, "outside the input region")
		v, _ = sc.PickSurfaceView(geo.Pt(120, 120))
		assert.Same(t, frontView, v)
		_, ok := sc.PickSurfaceView(geo.Pt(160, 160))
		assert.False(t, ok, "input region is clipped to the surface size")
	})

	t.Run("disabled views are skipped", func(t *testing.T) {
		frontView.SetEnabled(false)
		defer frontView.SetEnabled(true)
		v, _ := sc.PickSurfaceView(geo.Pt(60, 60))
		assert.Same(t, backView, v)
	})

	t.Run("destroyed surfaces are inert", func(t *testing.T) {
		front.Destroy()
		v, ok := sc.PickSurfaceView(geo.Pt(60, 60))
		require.True(t, ok)
		assert.Same(t, backView, v)
		assert.False(t, frontView.Alive())
		assert.Equal(t, geo.Pt(5, 5), frontView.Local(geo.Pt(5, 5)))

		sc.Prune()
		assert.Equal(t, []*SurfaceView{backView}, sc.Views())
	})
}

func TestSceneOrdering(t *testing.T) {
	a, _ := newTestSurfaces()
	sc := NewScene(a)
	s := a.Create(1)

	v1 := NewSurfaceView(a, s.Handle())
	v2 := NewSurfaceView(a, s.Handle())
	v3 := NewSurfaceView(a, s.Handle())

	sc.Append(v1)
	sc.Append(v2)
	sc.Push(v3)
	assert.Equal(t, []*SurfaceView{v3, v1, v2}, sc.Views())

	sc.Push(v2)
	assert.Equal(t, []*SurfaceView{v2, v3, v1}, sc.Views())

	assert.True(t, sc.Remove(v3))
	assert.False(t, sc.Remove(v3))
	assert.Len(t, sc.Surfaces(), 1, "a surface with several views is listed once")

	sc.RemoveSurface(s.Handle())
	assert.Empty(t, sc.Views())
}

func TestViewBounds(t *testing.T) {
	a, _ := newTestSurfaces()
	s := mappedSurface(a, 1, geo.Pt(10, 20), 30, 40)
	v := NewSurfaceView(a, s.Handle())

	assert.Equal(t, geo.Rect(10, 20, 30, 40), v.Bounds())
	client, ok := v.Client()
	require.True(t, ok)
	assert.Equal(t, ClientID(1), client)
}

func TestCompositorRender(t *testing.T) {
	sched := &queueScheduler{}
	now := time.UnixMilli(123456)
	c := NewCompositor(NewDisplay(), sched, fakeQuerier{}, WithClock(fixedClock(now)))

	hooks := &recordingOutput{}
	out := NewOutput("virtual-1", OutputGeometry{}, Mode{Width: 800, Height: 600, Refresh: 60000}, hooks)
	c.AddOutput(out)
	assert.True(t, out.Enabled())
	assert.Equal(t, []string{"enable"}, hooks.calls)

	s := c.Surfaces().Create(1)
	c.Scene().CreateView(s.Handle())
	var log []string
	cb := &fakeCallback{log: &log, name: "cb"}
	s.AddCallback(cb)
	s.AttachBuffer(newFakeBuffer("b", 10, 10), 0, 0)
	s.Commit()
	s.Commit()

	require.Len(t, sched.jobs, 1, "render requests are coalesced")
	sched.run()

	assert.Equal(t, uint64(1), c.Frames())
	assert.Equal(t, []string{"enable", "begin", "render", "end-before-swap", "end-after-swap"}, hooks.calls)
	assert.Equal(t, []string{"cb.done", "cb.destroy"}, log)
	assert.Equal(t, uint32(123456), cb.serial)

	s.Commit()
	assert.Len(t, sched.jobs, 1, "a new request after rendering schedules again")
}

func TestCompositorOutputRegion(t *testing.T) {
	c := NewCompositor(NewDisplay(), &queueScheduler{}, fakeQuerier{})
	left := NewOutput("left", OutputGeometry{}, Mode{Width: 1920, Height: 1080}, nil)
	c.AddOutput(left)
	right := NewOutput("right", OutputGeometry{X: c.NextOutputX(), Transform: geo.Transform90}, Mode{Width: 1920, Height: 1080}, nil)
	right.SetScale(2)
	c.AddOutput(right)

	assert.Equal(t, geo.Rect(1920, 0, 540, 960), right.Bounds())
	want := geo.NewRegion(geo.Rect(0, 0, 1920, 1080), geo.Rect(1920, 0, 540, 960))
	assert.True(t, c.OutputRegion().Equal(want))

	c.RemoveOutput(right)
	assert.False(t, right.Enabled())
	assert.Equal(t, []*Output{left}, c.Outputs())
}

type recordingOutput struct {
	RenderHooks
	calls []string
}

func (r *recordingOutput) RenderBegin()         { r.calls = append(r.calls, "begin") }
func (r *recordingOutput) Render()              { r.calls = append(r.calls, "render") }
func (r *recordingOutput) RenderEndBeforeSwap() { r.calls = append(r.calls, "end-before-swap") }
func (r *recordingOutput) RenderEndAfterSwap()  { r.calls = append(r.calls, "end-after-swap") }
func (r *recordingOutput) Enable()              { r.calls = append(r.calls, "enable") }

func TestDisplaySerials(t *testing.T) {
	d := NewDisplay()
	assert.Equal(t, uint32(1), d.NextSerial())
	assert.Equal(t, uint32(2), d.NextSerial())
	assert.Equal(t, uint32(2), d.Serial())
}
