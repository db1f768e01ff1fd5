package core

import "github.com/bnema/wayfold/internal/geo"

// SurfaceView places a surface in the scene. A surface may have any number of
// views. The view does not keep the surface alive: once the surface is
// destroyed every view of it becomes inert.
type SurfaceView struct {
	surfaces *Surfaces
	handle   SurfaceHandle
	enabled  bool
}

// NewSurfaceView returns an enabled view of the surface behind h.
func NewSurfaceView(surfaces *Surfaces, h SurfaceHandle) *SurfaceView {
	return &SurfaceView{surfaces: surfaces, handle: h, enabled: true}
}

func (v *SurfaceView) Handle() SurfaceHandle { return v.handle }

// Surface resolves the viewed surface.
func (v *SurfaceView) Surface() (*Surface, bool) {
	return v.surfaces.Resolve(v.handle)
}

// Alive reports whether the viewed surface still exists.
func (v *SurfaceView) Alive() bool {
	_, ok := v.Surface()
	return ok
}

func (v *SurfaceView) Enabled() bool           { return v.enabled }
func (v *SurfaceView) SetEnabled(enabled bool) { v.enabled = enabled }

// Client returns the owner of the viewed surface, or false when it is gone.
func (v *SurfaceView) Client() (ClientID, bool) {
	s, ok := v.Surface()
	if !ok {
		return 0, false
	}
	return s.Client(), true
}

// Local maps a global point into the surface. A dead view returns the point
// unchanged.
func (v *SurfaceView) Local(global geo.Point) geo.Point {
	if s, ok := v.Surface(); ok {
		return s.Local(global)
	}
	return global
}

// Global maps a surface-local point to global coordinates.
func (v *SurfaceView) Global(local geo.Point) geo.Point {
	if s, ok := v.Surface(); ok {
		return s.Global(local)
	}
	return local
}

// Bounds is the global bounding box of the view's on-screen area.
func (v *SurfaceView) Bounds() geo.Rectangle {
	s, ok := v.Surface()
	if !ok || s.Size().Empty() {
		return geo.ZeroRect
	}
	size := s.Size()
	a := s.Global(geo.Pt(0, 0))
	b := s.Global(geo.Pt(size.Width, size.Height))
	return geo.RectFromEdges(min(a.X, b.X), min(a.Y, b.Y), max(a.X, b.X), max(a.Y, b.Y))
}
