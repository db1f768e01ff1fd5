package protocol

import (
	"fmt"

	"github.com/bnema/wayfold/internal/geo"
)

// WlRegion owns the region a client builds with wl_region requests. Surfaces
// reference it directly, so later edits show up in their state.
type WlRegion struct {
	resource Resource
	region   *geo.Region
}

func NewWlRegion(resource Resource) *WlRegion {
	return &WlRegion{resource: resource, region: geo.NewRegion()}
}

func (r *WlRegion) Region() *geo.Region { return r.region }

func (r *WlRegion) Add(x, y, width, height int32) {
	if r.validate(width, height) {
		r.region.Add(geo.Rect(int(x), int(y), int(width), int(height)))
	}
}

func (r *WlRegion) Subtract(x, y, width, height int32) {
	if r.validate(width, height) {
		r.region.Subtract(geo.Rect(int(x), int(y), int(width), int(height)))
	}
}

func (r *WlRegion) validate(width, height int32) bool {
	if width < 0 || height < 0 {
		r.resource.PostError(DisplayErrorInvalidMethod,
			fmt.Sprintf("negative region size %dx%d", width, height))
		return false
	}
	return true
}
