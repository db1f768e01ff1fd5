package core

import "github.com/bnema/wayfold/internal/geo"

// SurfaceState is a committed snapshot of surface state. Regions are shared
// with the wl_region objects that created them, not copied.
type SurfaceState struct {
	buffer            Buffer
	damage            *geo.Region
	opaque            *geo.Region
	input             *geo.Region
	positionTransform geo.Mat4
	bufferTransform   geo.Mat4
	scale             int
}

// NewSurfaceState returns the state of a fresh surface: no buffer, no regions,
// identity transforms and scale 1.
func NewSurfaceState() SurfaceState {
	return SurfaceState{
		positionTransform: geo.Identity(),
		bufferTransform:   geo.Identity(),
		scale:             1,
	}
}

func (s SurfaceState) Buffer() Buffer                  { return s.buffer }
func (s SurfaceState) Damage() *geo.Region             { return s.damage }
func (s SurfaceState) Opaque() *geo.Region             { return s.opaque }
func (s SurfaceState) Input() *geo.Region              { return s.input }
func (s SurfaceState) PositionTransform() geo.Mat4     { return s.positionTransform }
func (s SurfaceState) BufferTransform() geo.Mat4       { return s.bufferTransform }
func (s SurfaceState) Scale() int                      { return s.scale }
func (s SurfaceState) ToBuilder() *SurfaceStateBuilder { return &SurfaceStateBuilder{state: s} }

// SurfaceStateBuilder accumulates changes on top of an existing state.
type SurfaceStateBuilder struct {
	state SurfaceState
}

// NewSurfaceStateBuilder starts from NewSurfaceState.
func NewSurfaceStateBuilder() *SurfaceStateBuilder {
	return NewSurfaceState().ToBuilder()
}

func (b *SurfaceStateBuilder) Buffer(buf Buffer) *SurfaceStateBuilder {
	b.state.buffer = buf
	return b
}

func (b *SurfaceStateBuilder) Damage(r *geo.Region) *SurfaceStateBuilder {
	b.state.damage = r
	return b
}

func (b *SurfaceStateBuilder) Opaque(r *geo.Region) *SurfaceStateBuilder {
	b.state.opaque = r
	return b
}

func (b *SurfaceStateBuilder) Input(r *geo.Region) *SurfaceStateBuilder {
	b.state.input = r
	return b
}

func (b *SurfaceStateBuilder) PositionTransform(m geo.Mat4) *SurfaceStateBuilder {
	b.state.positionTransform = m
	return b
}

func (b *SurfaceStateBuilder) BufferTransform(m geo.Mat4) *SurfaceStateBuilder {
	b.state.bufferTransform = m
	return b
}

func (b *SurfaceStateBuilder) Scale(scale int) *SurfaceStateBuilder {
	b.state.scale = scale
	return b
}

// Build returns a snapshot. Later builder calls do not affect it.
func (b *SurfaceStateBuilder) Build() SurfaceState {
	return b.state
}
