package protocol

import (
	"testing"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postedError struct {
	code uint32
	msg  string
}

type fakeResource struct {
	client core.ClientID
	errors []postedError
}

func (r *fakeResource) Client() core.ClientID { return r.client }

func (r *fakeResource) PostError(code uint32, msg string) {
	r.errors = append(r.errors, postedError{code, msg})
}

type fakeBuffer struct{ w, h int }

func (b *fakeBuffer) Release() {}

func (b *fakeBuffer) AddDestroyListener(func()) (remove func()) { return func() {} }

type querier struct{}

func (querier) QueryBuffer(b core.Buffer) (int, int) {
	fb := b.(*fakeBuffer)
	return fb.w, fb.h
}

type noRender struct{}

func (noRender) RequestRender() {}

type recordingSender struct {
	done      []uint32
	destroyed int
}

func (s *recordingSender) SendDone(data uint32) { s.done = append(s.done, data) }
func (s *recordingSender) Destroy()             { s.destroyed++ }

type role struct {
	name            string
	before, destroy int
}

func (r *role) Name() string               { return r.name }
func (r *role) BeforeCommit(*core.Surface) { r.before++ }
func (r *role) AfterDestroy(*core.Surface) { r.destroy++ }

func newSurface(t *testing.T) (*WlSurface, *fakeResource) {
	t.Helper()
	res := &fakeResource{client: 3}
	return NewWlSurface(res, core.NewSurfaces(noRender{}, querier{})), res
}

func TestWlSurfaceInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  func(w *WlSurface)
		code uint32
	}{
		{"negative damage width", func(w *WlSurface) { w.Damage(0, 0, -1, 10) }, SurfaceErrorInvalidSize},
		{"negative damage height", func(w *WlSurface) { w.Damage(0, 0, 10, -1) }, SurfaceErrorInvalidSize},
		{"negative buffer damage", func(w *WlSurface) { w.DamageBuffer(0, 0, -5, 1) }, SurfaceErrorInvalidSize},
		{"transform out of range", func(w *WlSurface) { w.SetBufferTransform(8) }, SurfaceErrorInvalidTransform},
		{"negative transform", func(w *WlSurface) { w.SetBufferTransform(-1) }, SurfaceErrorInvalidTransform},
		{"zero scale", func(w *WlSurface) { w.SetBufferScale(0) }, SurfaceErrorInvalidScale},
		{"negative scale", func(w *WlSurface) { w.SetBufferScale(-2) }, SurfaceErrorInvalidScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := newSurface(t)
			before := w.Surface().Pending()

			tt.req(w)

			require.Len(t, res.errors, 1)
			assert.Equal(t, tt.code, res.errors[0].code)
			assert.Equal(t, before, w.Surface().Pending(), "pending state untouched")
		})
	}
}

func TestWlSurfaceRequests(t *testing.T) {
	w, res := newSurface(t)
	s := w.Surface()

	w.SetBufferTransform(int32(geo.Transform90))
	w.SetBufferScale(2)
	w.Damage(1, 2, 3, 4)
	assert.Equal(t, geo.Transform90.Matrix(), s.Pending().BufferTransform())
	assert.Equal(t, 2, s.Pending().Scale())
	assert.True(t, s.Pending().Damage().Equal(geo.NewRegion(geo.Rect(1, 2, 3, 4))))

	buf := &fakeBuffer{w: 64, h: 32}
	w.Attach(buf, 0, 0)
	w.Attach(nil, 0, 0)
	assert.Nil(t, s.Pending().Buffer())
	assert.Nil(t, s.Pending().Damage(), "detach clears damage")

	region := NewWlRegion(res)
	region.Add(0, 0, 10, 10)
	w.SetInputRegion(region)
	w.SetOpaqueRegion(region)
	w.Attach(buf, 0, 0)
	w.Commit()
	assert.Same(t, region.Region(), s.State().Input())
	assert.Equal(t, geo.Rect(0, 0, 32, 16), s.Size())

	w.SetOpaqueRegion(nil)
	w.SetInputRegion(nil)
	w.Commit()
	assert.Nil(t, s.State().Input())
	assert.Nil(t, s.State().Opaque())
	assert.Empty(t, res.errors)
}

func TestWlSurfaceDamageBuffer(t *testing.T) {
	w, _ := newSurface(t)
	w.SetBufferScale(2)
	w.DamageBuffer(1, 1, 4, 3)

	assert.True(t, w.Surface().Pending().Damage().Equal(geo.NewRegion(geo.Rect(0, 0, 3, 2))))
}

func TestWlSurfaceRoleHooks(t *testing.T) {
	w, res := newSurface(t)
	r := &role{name: "xdg_toplevel"}

	require.True(t, w.AssignRole(r, 0))
	assert.False(t, w.AssignRole(&role{name: "wl_subsurface"}, 7))
	require.Len(t, res.errors, 1)
	assert.Equal(t, uint32(7), res.errors[0].code)

	w.Commit()
	assert.Equal(t, 1, r.before)

	w.Destroy()
	assert.True(t, w.Surface().Destroyed())
	assert.Equal(t, 1, r.destroy)

	w.Commit()
	assert.Equal(t, 1, r.before, "commit after destroy skips the role")
}

func TestWlRegion(t *testing.T) {
	res := &fakeResource{client: 1}
	r := NewWlRegion(res)

	r.Add(0, 0, 100, 100)
	r.Subtract(0, 0, 50, 100)
	r.Add(0, 0, -1, 5)

	assert.True(t, r.Region().Equal(geo.NewRegion(geo.Rect(50, 0, 50, 100))))
	require.Len(t, res.errors, 1)
	assert.Equal(t, DisplayErrorInvalidMethod, res.errors[0].code)
}

func TestWlCallback(t *testing.T) {
	sender := &recordingSender{}
	cb := NewWlCallback(sender)

	var fc core.FrameCallback = cb
	fc.Done(9)
	fc.Done(10)
	fc.Destroy()

	assert.Equal(t, []uint32{9}, sender.done)
	assert.Equal(t, 1, sender.destroyed)
}
