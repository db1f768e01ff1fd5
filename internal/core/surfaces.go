package core

import "fmt"

// SurfaceHandle is a non-owning reference to a surface in a Surfaces arena.
// A handle goes stale when its surface is destroyed, even if the slot is
// reused later.
type SurfaceHandle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h was ever issued. The zero handle is never valid.
func (h SurfaceHandle) Valid() bool { return h.generation != 0 }

func (h SurfaceHandle) String() string {
	return fmt.Sprintf("surface#%d.%d", h.index, h.generation)
}

type surfaceSlot struct {
	generation uint32
	surface    *Surface
}

// Surfaces owns every live surface.
type Surfaces struct {
	render  RenderRequester
	querier BufferQuerier
	slots   []surfaceSlot
	free    []uint32
	live    int
}

// NewSurfaces returns an empty arena. Surfaces created from it request
// renders from render and size their buffers with querier.
func NewSurfaces(render RenderRequester, querier BufferQuerier) *Surfaces {
	return &Surfaces{render: render, querier: querier}
}

// Create allocates a surface owned by client.
func (a *Surfaces) Create(client ClientID) *Surface {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, surfaceSlot{})
	}
	slot := &a.slots[index]
	slot.generation++
	if slot.generation == 0 {
		slot.generation = 1
	}
	s := newSurface(a, SurfaceHandle{index: index, generation: slot.generation}, client)
	slot.surface = s
	a.live++
	return s
}

// Resolve returns the surface behind h, or false when it is gone.
func (a *Surfaces) Resolve(h SurfaceHandle) (*Surface, bool) {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	slot := a.slots[h.index]
	if slot.generation != h.generation || slot.surface == nil {
		return nil, false
	}
	return slot.surface, true
}

func (a *Surfaces) remove(h SurfaceHandle) {
	if _, ok := a.Resolve(h); !ok {
		return
	}
	a.slots[h.index].surface = nil
	a.free = append(a.free, h.index)
	a.live--
}

// Len returns the number of live surfaces.
func (a *Surfaces) Len() int { return a.live }

// Each calls fn for every live surface in slot order.
func (a *Surfaces) Each(fn func(*Surface)) {
	for _, slot := range a.slots {
		if slot.surface != nil {
			fn(slot.surface)
		}
	}
}
