package core

import (
	"slices"

	"github.com/bnema/wayfold/internal/geo"
	"github.com/bnema/wayfold/internal/signal"
)

// KeyboardFocus is the payload of a surface's keyboard focus signals: the
// keyboard resources that now send (or stopped sending) key events to it.
type KeyboardFocus struct {
	Keyboards []ClientResource
}

// Surface is the compositor side of a wl_surface. Clients mutate the pending
// state and Commit promotes it to the committed state.
type Surface struct {
	handle  SurfaceHandle
	client  ClientID
	arena   *Surfaces
	render  RenderRequester
	querier BufferQuerier

	pending             *SurfaceStateBuilder
	removePendingListen func()
	state               SurfaceState

	transform geo.Mat4
	inverse   geo.Mat4
	toLocal   geo.Mat4
	size      geo.Rectangle

	destroyed       bool
	finalized       bool
	role            Role
	callbacks       []FrameCallback
	keyboardFocuses map[ClientResource]struct{}

	positionChanged     signal.Signal[geo.Point]
	stateApplied        signal.Signal[SurfaceState]
	keyboardFocusGained signal.Signal[KeyboardFocus]
	keyboardFocusLost   signal.Signal[KeyboardFocus]
}

func newSurface(arena *Surfaces, handle SurfaceHandle, client ClientID) *Surface {
	return &Surface{
		handle:          handle,
		client:          client,
		arena:           arena,
		render:          arena.render,
		querier:         arena.querier,
		pending:         NewSurfaceStateBuilder(),
		state:           NewSurfaceState(),
		transform:       geo.Identity(),
		inverse:         geo.Identity(),
		toLocal:         geo.Identity(),
		keyboardFocuses: make(map[ClientResource]struct{}),
	}
}

func (s *Surface) Handle() SurfaceHandle { return s.handle }
func (s *Surface) Client() ClientID      { return s.client }

// State returns the committed state.
func (s *Surface) State() SurfaceState { return s.state }

// Pending returns a snapshot of the pending state.
func (s *Surface) Pending() SurfaceState { return s.pending.Build() }

// Transform returns the committed forward transform and its inverse.
func (s *Surface) Transform() (forward, inverse geo.Mat4) { return s.transform, s.inverse }

// Size is the on-screen size in surface-local coordinates, at the origin.
func (s *Surface) Size() geo.Rectangle { return s.size }

func (s *Surface) Destroyed() bool { return s.destroyed }

func (s *Surface) PositionChanged() *signal.Signal[geo.Point]         { return &s.positionChanged }
func (s *Surface) StateApplied() *signal.Signal[SurfaceState]         { return &s.stateApplied }
func (s *Surface) KeyboardFocusGained() *signal.Signal[KeyboardFocus] { return &s.keyboardFocusGained }
func (s *Surface) KeyboardFocusLost() *signal.Signal[KeyboardFocus]   { return &s.keyboardFocusLost }

// AttachBuffer sets the pending buffer. The (dx, dy) offset is applied to the
// committed position, so attaching twice before a commit does not add up.
// If the buffer is destroyed before commit it is detached again.
func (s *Surface) AttachBuffer(buf Buffer, dx, dy int) {
	if s.destroyed {
		return
	}
	s.unwatchPendingBuffer()
	s.removePendingListen = buf.AddDestroyListener(s.DetachBuffer)
	s.pending.
		Buffer(buf).
		PositionTransform(geo.Translate(dx, dy).Multiply(s.state.PositionTransform()))
}

// DetachBuffer clears the pending buffer and the pending damage.
func (s *Surface) DetachBuffer() {
	s.unwatchPendingBuffer()
	s.pending.Buffer(nil).Damage(nil)
}

func (s *Surface) unwatchPendingBuffer() {
	if s.removePendingListen != nil {
		s.removePendingListen()
		s.removePendingListen = nil
	}
}

// MarkDamaged adds rect to the pending damage.
func (s *Surface) MarkDamaged(rect geo.Rectangle) {
	if s.destroyed {
		return
	}
	damage := s.pending.Build().Damage()
	if damage == nil {
		damage = geo.NewRegion()
	}
	damage.Add(rect)
	s.pending.Damage(damage)
}

func (s *Surface) SetOpaqueRegion(r *geo.Region) {
	if !s.destroyed {
		s.pending.Opaque(r)
	}
}

func (s *Surface) RemoveOpaqueRegion() {
	if !s.destroyed {
		s.pending.Opaque(nil)
	}
}

func (s *Surface) SetInputRegion(r *geo.Region) {
	if !s.destroyed {
		s.pending.Input(r)
	}
}

func (s *Surface) RemoveInputRegion() {
	if !s.destroyed {
		s.pending.Input(nil)
	}
}

// SetScale stores the pending buffer scale. Callers validate scale > 0.
func (s *Surface) SetScale(scale int) {
	if !s.destroyed {
		s.pending.Scale(scale)
	}
}

func (s *Surface) SetBufferTransform(m geo.Mat4) {
	if !s.destroyed {
		s.pending.BufferTransform(m)
	}
}

// Commit releases the previously committed buffer, applies the pending state
// and resets the pending buffer and damage.
func (s *Surface) Commit() {
	if s.destroyed {
		return
	}
	if prev := s.state.Buffer(); prev != nil {
		prev.Release()
	}
	s.apply(s.pending.Build())
	s.DetachBuffer()
}

func (s *Surface) apply(state SurfaceState) {
	s.state = state
	s.updateTransform()
	s.updateSize()
	if s.render != nil {
		s.render.RequestRender()
	}
	s.stateApplied.Emit(s.state)
}

func (s *Surface) updateTransform() {
	s.transform = s.state.BufferTransform().Multiply(s.state.PositionTransform()).Homogenize()
	s.inverse = s.transform.MustInvert()
	s.toLocal = s.transform.Multiply(geo.Scale(float64(s.state.Scale()))).MustInvert()
}

func (s *Surface) updateSize() {
	s.size = geo.ZeroRect
	buf := s.state.Buffer()
	if buf == nil || s.querier == nil {
		return
	}
	w, h := s.querier.QueryBuffer(buf)
	scale := s.state.Scale()
	s.size = geo.Rect(0, 0, w/scale, h/scale)
}

// SetPosition moves the surface to global immediately, outside the
// pending/commit cycle, and primes the pending position to match.
func (s *Surface) SetPosition(global geo.Point) {
	if s.destroyed {
		return
	}
	s.apply(s.state.ToBuilder().PositionTransform(geo.Translate(global.X, global.Y)).Build())
	s.pending.PositionTransform(s.state.PositionTransform())
	s.positionChanged.Emit(global)
}

// Position returns the translation of the committed position transform.
func (s *Surface) Position() geo.Point {
	x, y := s.state.PositionTransform().Translation()
	return geo.Pt(int(x), int(y))
}

// AddCallback queues a frame callback for the next repaint.
func (s *Surface) AddCallback(cb FrameCallback) {
	if !s.destroyed {
		s.callbacks = append(s.callbacks, cb)
	}
}

// FrameCallbacks returns the number of queued frame callbacks.
func (s *Surface) FrameCallbacks() int { return len(s.callbacks) }

// FirePaintCallbacks completes every queued frame callback with serial.
// Callbacks queued while firing wait for the next call.
func (s *Surface) FirePaintCallbacks(serial uint32) {
	callbacks := slices.Clone(s.callbacks)
	s.callbacks = s.callbacks[:0]
	for _, cb := range callbacks {
		cb.Done(serial)
		cb.Destroy()
	}
}

// Global maps a surface-local point to global coordinates.
func (s *Surface) Global(local geo.Point) geo.Point {
	return s.transform.Multiply(geo.Scale(float64(s.state.Scale()))).ApplyPoint(local)
}

// Local maps a global point to surface-local coordinates.
func (s *Surface) Local(global geo.Point) geo.Point {
	return s.toLocal.ApplyPoint(global)
}

// ContainsLocal reports whether the local point hits the surface's effective
// input area: the input region clipped to the surface size, or the whole size
// when no input region is set.
func (s *Surface) ContainsLocal(local geo.Point) bool {
	if input := s.state.Input(); input != nil {
		return input.ContainsClipped(s.size, local)
	}
	return s.size.Contains(local)
}

// KeyboardFocuses returns the keyboards currently focused on the surface.
func (s *Surface) KeyboardFocuses() []ClientResource {
	out := make([]ClientResource, 0, len(s.keyboardFocuses))
	for k := range s.keyboardFocuses {
		out = append(out, k)
	}
	return out
}

// GainKeyboardFocus records keyboards as focused and emits KeyboardFocusGained.
func (s *Surface) GainKeyboardFocus(keyboards []ClientResource) {
	for _, k := range keyboards {
		s.keyboardFocuses[k] = struct{}{}
	}
	s.keyboardFocusGained.Emit(KeyboardFocus{Keyboards: keyboards})
}

// LoseKeyboardFocus forgets every keyboard and emits KeyboardFocusLost.
func (s *Surface) LoseKeyboardFocus() {
	keyboards := s.KeyboardFocuses()
	clear(s.keyboardFocuses)
	s.keyboardFocusLost.Emit(KeyboardFocus{Keyboards: keyboards})
}

// MarkDestroyed flags the surface as destroyed without running role hooks.
func (s *Surface) MarkDestroyed() {
	s.destroyed = true
}

// Destroy marks the surface destroyed, runs the role's AfterDestroy hook and
// drops it from its arena. Later calls do nothing.
func (s *Surface) Destroy() {
	if s.finalized {
		return
	}
	s.finalized = true
	s.MarkDestroyed()
	s.unwatchPendingBuffer()
	if s.role != nil {
		s.role.AfterDestroy(s)
	}
	s.callbacks = nil
	if s.arena != nil {
		s.arena.remove(s.handle)
	}
}
