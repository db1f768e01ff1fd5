package protocol

import (
	"errors"
	"fmt"
	"math"

	"github.com/bnema/wayfold/internal/core"
	"github.com/bnema/wayfold/internal/geo"
)

// WlSurface handles wl_surface requests for one surface.
type WlSurface struct {
	resource Resource
	surface  *core.Surface
}

// NewWlSurface binds resource to a new surface in the compositor's arena.
func NewWlSurface(resource Resource, surfaces *core.Surfaces) *WlSurface {
	return &WlSurface{resource: resource, surface: surfaces.Create(resource.Client())}
}

func (w *WlSurface) Surface() *core.Surface { return w.surface }
func (w *WlSurface) Resource() Resource     { return w.resource }

// Attach sets the pending buffer. A nil buffer detaches.
func (w *WlSurface) Attach(buf core.Buffer, x, y int32) {
	if buf == nil {
		w.surface.DetachBuffer()
		return
	}
	w.surface.AttachBuffer(buf, int(x), int(y))
}

// Damage marks a surface-local rectangle as changed.
func (w *WlSurface) Damage(x, y, width, height int32) {
	if width < 0 || height < 0 {
		w.resource.PostError(SurfaceErrorInvalidSize,
			fmt.Sprintf("negative damage size %dx%d", width, height))
		return
	}
	w.surface.MarkDamaged(geo.Rect(int(x), int(y), int(width), int(height)))
}

// DamageBuffer marks a buffer-local rectangle as changed. Buffer coordinates
// are divided by the pending scale and rounded outward. With a non-identity
// buffer transform the whole surface is damaged.
func (w *WlSurface) DamageBuffer(x, y, width, height int32) {
	if width < 0 || height < 0 {
		w.resource.PostError(SurfaceErrorInvalidSize,
			fmt.Sprintf("negative damage size %dx%d", width, height))
		return
	}
	pending := w.surface.Pending()
	if pending.BufferTransform() != geo.Identity() {
		w.surface.MarkDamaged(geo.Rect(0, 0, math.MaxInt32, math.MaxInt32))
		return
	}
	scale := pending.Scale()
	x1 := floorDiv(int(x), scale)
	y1 := floorDiv(int(y), scale)
	x2 := ceilDiv(int(x)+int(width), scale)
	y2 := ceilDiv(int(y)+int(height), scale)
	w.surface.MarkDamaged(geo.RectFromEdges(x1, y1, x2, y2))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}

// Frame queues cb for the next repaint.
func (w *WlSurface) Frame(cb core.FrameCallback) {
	w.surface.AddCallback(cb)
}

// SetOpaqueRegion sets or, with nil, clears the pending opaque region.
func (w *WlSurface) SetOpaqueRegion(r *WlRegion) {
	if r == nil {
		w.surface.RemoveOpaqueRegion()
		return
	}
	w.surface.SetOpaqueRegion(r.Region())
}

// SetInputRegion sets or, with nil, clears the pending input region.
func (w *WlSurface) SetInputRegion(r *WlRegion) {
	if r == nil {
		w.surface.RemoveInputRegion()
		return
	}
	w.surface.SetInputRegion(r.Region())
}

func (w *WlSurface) SetBufferTransform(transform int32) {
	t, err := geo.ParseOutputTransform(transform)
	if err != nil {
		w.resource.PostError(SurfaceErrorInvalidTransform, err.Error())
		return
	}
	w.surface.SetBufferTransform(t.Matrix())
}

func (w *WlSurface) SetBufferScale(scale int32) {
	if scale <= 0 {
		w.resource.PostError(SurfaceErrorInvalidScale,
			fmt.Sprintf("invalid scale %d, scale must be a positive integer", scale))
		return
	}
	w.surface.SetScale(int(scale))
}

// Commit runs the role's BeforeCommit hook and commits the pending state.
// A destroyed surface ignores it.
func (w *WlSurface) Commit() {
	if w.surface.Destroyed() {
		return
	}
	if role, ok := w.surface.Role(); ok {
		role.BeforeCommit(w.surface)
	}
	w.surface.Commit()
}

// AssignRole gives the surface a role. A conflicting role is reported to the
// client with errorCode, which belongs to the interface assigning the role.
func (w *WlSurface) AssignRole(role core.Role, errorCode uint32) bool {
	if err := w.surface.SetRole(role); err != nil {
		if errors.Is(err, core.ErrRoleConflict) {
			w.resource.PostError(errorCode, err.Error())
		}
		return false
	}
	return true
}

// Destroy destroys the surface and runs the role's AfterDestroy hook.
func (w *WlSurface) Destroy() {
	w.surface.Destroy()
}
