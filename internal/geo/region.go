package geo

import (
	"slices"
	"sort"
	"strings"
)

type span struct {
	x1, x2 int
}

// band is a horizontal strip [y1, y2) covered by sorted, disjoint,
// non-touching spans.
type band struct {
	y1, y2 int
	spans  []span
}

// Region is a planar area kept as y-x bands. Bands are sorted by y, never
// empty, and two vertically adjacent bands never carry identical spans, so
// every area has exactly one representation.
//
// The zero value is an empty region ready to use. A Region is not safe for
// concurrent use.
type Region struct {
	bands []band
}

// NewRegion returns a region covering the given rectangles.
func NewRegion(rects ...Rectangle) *Region {
	r := &Region{}
	for _, rect := range rects {
		r.Add(rect)
	}
	return r
}

func rectBands(rect Rectangle) []band {
	if rect.Empty() {
		return nil
	}
	return []band{{
		y1:    rect.Y,
		y2:    rect.Y + rect.Height,
		spans: []span{{rect.X, rect.X + rect.Width}},
	}}
}

// Add unions rect into the region.
func (r *Region) Add(rect Rectangle) {
	r.bands = combine(r.bands, rectBands(rect), opUnion)
}

// Subtract removes rect from the region.
func (r *Region) Subtract(rect Rectangle) {
	r.bands = combine(r.bands, rectBands(rect), opSubtract)
}

// Union adds every area of o to the region.
func (r *Region) Union(o *Region) {
	if o == nil {
		return
	}
	r.bands = combine(r.bands, o.bands, opUnion)
}

// Remove subtracts every area of o from the region.
func (r *Region) Remove(o *Region) {
	if o == nil {
		return
	}
	r.bands = combine(r.bands, o.bands, opSubtract)
}

// Intersect returns a new region holding the part of r inside rect.
func (r *Region) Intersect(rect Rectangle) *Region {
	return &Region{bands: combine(r.bands, rectBands(rect), opIntersect)}
}

// Copy returns an independent copy of the region.
func (r *Region) Copy() *Region {
	c := &Region{bands: make([]band, len(r.bands))}
	for i, b := range r.bands {
		c.bands[i] = band{y1: b.y1, y2: b.y2, spans: slices.Clone(b.spans)}
	}
	return c
}

// Clear empties the region.
func (r *Region) Clear() {
	r.bands = nil
}

// Empty reports whether the region covers no area.
func (r *Region) Empty() bool {
	return r == nil || len(r.bands) == 0
}

// ContainsPoint reports whether p lies inside the region.
func (r *Region) ContainsPoint(p Point) bool {
	if r.Empty() {
		return false
	}
	i := sort.Search(len(r.bands), func(i int) bool { return r.bands[i].y2 > p.Y })
	if i == len(r.bands) || r.bands[i].y1 > p.Y {
		return false
	}
	spans := r.bands[i].spans
	j := sort.Search(len(spans), func(j int) bool { return spans[j].x2 > p.X })
	return j < len(spans) && spans[j].x1 <= p.X
}

// ContainsClipped reports whether p lies inside the part of the region within
// clip. A degenerate clip contains nothing.
func (r *Region) ContainsClipped(clip Rectangle, p Point) bool {
	if clip.Empty() {
		return false
	}
	return r.Intersect(clip).ContainsPoint(p)
}

// ContainsRect reports whether rect overlaps the region at all.
func (r *Region) ContainsRect(rect Rectangle) bool {
	if r.Empty() || rect.Empty() {
		return false
	}
	for _, b := range r.bands {
		if b.y2 <= rect.Y {
			continue
		}
		if b.y1 >= rect.Y+rect.Height {
			break
		}
		for _, s := range b.spans {
			if s.x1 < rect.X+rect.Width && s.x2 > rect.X {
				return true
			}
		}
	}
	return false
}

// Rects returns the rectangles of the canonical decomposition, top to bottom
// then left to right.
func (r *Region) Rects() []Rectangle {
	if r.Empty() {
		return nil
	}
	var rects []Rectangle
	for _, b := range r.bands {
		for _, s := range b.spans {
			rects = append(rects, RectFromEdges(s.x1, b.y1, s.x2, b.y2))
		}
	}
	return rects
}

// Extents returns the bounding box of the region, or ZeroRect when empty.
func (r *Region) Extents() Rectangle {
	if r.Empty() {
		return ZeroRect
	}
	x1, x2 := r.bands[0].spans[0].x1, r.bands[0].spans[0].x2
	for _, b := range r.bands {
		x1 = min(x1, b.spans[0].x1)
		x2 = max(x2, b.spans[len(b.spans)-1].x2)
	}
	return RectFromEdges(x1, r.bands[0].y1, x2, r.bands[len(r.bands)-1].y2)
}

// Equal reports whether r and o cover the same area, regardless of how either
// was built.
func (r *Region) Equal(o *Region) bool {
	if r.Empty() || o.Empty() {
		return r.Empty() && o.Empty()
	}
	if len(r.bands) != len(o.bands) {
		return false
	}
	for i := range r.bands {
		a, b := r.bands[i], o.bands[i]
		if a.y1 != b.y1 || a.y2 != b.y2 || !slices.Equal(a.spans, b.spans) {
			return false
		}
	}
	return true
}

func (r *Region) String() string {
	rects := r.Rects()
	parts := make([]string, len(rects))
	for i, rect := range rects {
		parts[i] = rect.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

type setOp func(inA, inB bool) bool

func opUnion(a, b bool) bool     { return a || b }
func opSubtract(a, b bool) bool  { return a && !b }
func opIntersect(a, b bool) bool { return a && b }

// combine sweeps both band lists top to bottom, applies op to the spans of
// every horizontal strip where neither input changes, and coalesces the result.
func combine(a, b []band, op setOp) []band {
	ys := make([]int, 0, 2*(len(a)+len(b)))
	for _, bd := range a {
		ys = append(ys, bd.y1, bd.y2)
	}
	for _, bd := range b {
		ys = append(ys, bd.y1, bd.y2)
	}
	slices.Sort(ys)
	ys = slices.Compact(ys)

	var out []band
	ia, ib := 0, 0
	for k := 0; k+1 < len(ys); k++ {
		y1, y2 := ys[k], ys[k+1]
		for ia < len(a) && a[ia].y2 <= y1 {
			ia++
		}
		for ib < len(b) && b[ib].y2 <= y1 {
			ib++
		}
		var sa, sb []span
		if ia < len(a) && a[ia].y1 <= y1 {
			sa = a[ia].spans
		}
		if ib < len(b) && b[ib].y1 <= y1 {
			sb = b[ib].spans
		}
		spans := combineSpans(sa, sb, op)
		if len(spans) == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].y2 == y1 && slices.Equal(out[n-1].spans, spans) {
			out[n-1].y2 = y2
			continue
		}
		out = append(out, band{y1: y1, y2: y2, spans: spans})
	}
	return out
}

func combineSpans(a, b []span, op setOp) []span {
	xs := make([]int, 0, 2*(len(a)+len(b)))
	for _, s := range a {
		xs = append(xs, s.x1, s.x2)
	}
	for _, s := range b {
		xs = append(xs, s.x1, s.x2)
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)

	var out []span
	ia, ib := 0, 0
	for k := 0; k+1 < len(xs); k++ {
		x1, x2 := xs[k], xs[k+1]
		for ia < len(a) && a[ia].x2 <= x1 {
			ia++
		}
		for ib < len(b) && b[ib].x2 <= x1 {
			ib++
		}
		inA := ia < len(a) && a[ia].x1 <= x1
		inB := ib < len(b) && b[ib].x1 <= x1
		if !op(inA, inB) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].x2 == x1 {
			out[n-1].x2 = x2
			continue
		}
		out = append(out, span{x1, x2})
	}
	return out
}
