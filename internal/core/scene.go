package core

import (
	"slices"

	"github.com/bnema/wayfold/internal/geo"
)

// Scene is the stack of surface views, front to back.
type Scene struct {
	surfaces *Surfaces
	views    []*SurfaceView
}

func NewScene(surfaces *Surfaces) *Scene {
	return &Scene{surfaces: surfaces}
}

// Views returns the views front to back. The slice is a copy.
func (sc *Scene) Views() []*SurfaceView {
	return slices.Clone(sc.views)
}

// CreateView makes a view of h and puts it in front.
func (sc *Scene) CreateView(h SurfaceHandle) *SurfaceView {
	v := NewSurfaceView(sc.surfaces, h)
	sc.Push(v)
	return v
}

// Push puts v in front of every other view.
func (sc *Scene) Push(v *SurfaceView) {
	sc.Remove(v)
	sc.views = slices.Insert(sc.views, 0, v)
}

// Append puts v behind every other view.
func (sc *Scene) Append(v *SurfaceView) {
	sc.Remove(v)
	sc.views = append(sc.views, v)
}

// Remove takes v out of the scene. It reports whether v was present.
func (sc *Scene) Remove(v *SurfaceView) bool {
	i := slices.Index(sc.views, v)
	if i < 0 {
		return false
	}
	sc.views = slices.Delete(sc.views, i, i+1)
	return true
}

// Raise moves v one step toward the front.
func (sc *Scene) Raise(v *SurfaceView) {
	if i := slices.Index(sc.views, v); i > 0 {
		sc.views[i-1], sc.views[i] = sc.views[i], sc.views[i-1]
	}
}

// Lower moves v one step toward the back.
func (sc *Scene) Lower(v *SurfaceView) {
	if i := slices.Index(sc.views, v); i >= 0 && i < len(sc.views)-1 {
		sc.views[i+1], sc.views[i] = sc.views[i], sc.views[i+1]
	}
}

// RemoveSurface drops every view of h.
func (sc *Scene) RemoveSurface(h SurfaceHandle) {
	sc.views = slices.DeleteFunc(sc.views, func(v *SurfaceView) bool { return v.handle == h })
}

// Prune drops views whose surface no longer exists.
func (sc *Scene) Prune() {
	sc.views = slices.DeleteFunc(sc.views, func(v *SurfaceView) bool { return !v.Alive() })
}

// PickSurfaceView returns the front-most enabled view whose input area
// contains the global point.
func (sc *Scene) PickSurfaceView(global geo.Point) (*SurfaceView, bool) {
	for _, v := range sc.views {
		if !v.enabled {
			continue
		}
		s, ok := v.Surface()
		if !ok {
			continue
		}
		if s.ContainsLocal(s.Local(global)) {
			return v, true
		}
	}
	return nil, false
}

// Surfaces returns the live surfaces with at least one view, front to back,
// each listed once.
func (sc *Scene) Surfaces() []*Surface {
	seen := make(map[SurfaceHandle]bool, len(sc.views))
	var out []*Surface
	for _, v := range sc.views {
		if seen[v.handle] {
			continue
		}
		if s, ok := v.Surface(); ok {
			seen[v.handle] = true
			out = append(out, s)
		}
	}
	return out
}
