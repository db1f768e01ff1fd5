package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectangle(t *testing.T) {
	r := Rect(10, 20, 30, 40)

	assert.True(t, r.Contains(Pt(10, 20)))
	assert.True(t, r.Contains(Pt(39, 59)))
	assert.False(t, r.Contains(Pt(40, 59)), "right edge is exclusive")
	assert.False(t, r.Contains(Pt(39, 60)), "bottom edge is exclusive")

	assert.Equal(t, Rect(20, 30, 20, 30), r.Intersect(Rect(20, 30, 100, 100)))
	assert.Equal(t, ZeroRect, r.Intersect(Rect(40, 20, 10, 10)))
	assert.True(t, Rect(0, 0, 0, 5).Empty())
	assert.Equal(t, "30x40+10+20", r.String())
}

func TestMat4Invert(t *testing.T) {
	m := Translate(12, -7).Multiply(Transform90.Matrix()).Multiply(Scale(2))
	inv, ok := m.Invert()
	require.True(t, ok)
	assert.True(t, m.Multiply(inv).ApproxEqual(Identity(), 1e-12))

	_, ok = Mat4{}.Invert()
	assert.False(t, ok)
}

func TestMat4Homogenize(t *testing.T) {
	m := Translate(4, 8).MultiplyScalar(2)
	assert.True(t, m.Homogenize().ApproxEqual(Translate(4, 8), 1e-12))
}

func TestOutputTransformMatrices(t *testing.T) {
	p := Pt(3, 5)
	tests := []struct {
		transform OutputTransform
		want      Point
	}{
		{TransformNormal, Pt(3, 5)},
		{Transform90, Pt(-5, 3)},
		{Transform180, Pt(-3, -5)},
		{Transform270, Pt(5, -3)},
		{TransformFlipped, Pt(-3, 5)},
		{TransformFlipped90, Pt(5, 3)},
		{TransformFlipped180, Pt(3, -5)},
		{TransformFlipped270, Pt(-5, -3)},
	}
	for _, tt := range tests {
		t.Run(tt.transform.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.transform.Matrix().ApplyPoint(p))
		})
	}
}

func TestParseOutputTransform(t *testing.T) {
	for v := int32(0); v < 8; v++ {
		tr, err := ParseOutputTransform(v)
		require.NoError(t, err)
		assert.Equal(t, OutputTransform(v), tr)
	}
	_, err := ParseOutputTransform(8)
	assert.Error(t, err)
	_, err = ParseOutputTransform(-1)
	assert.Error(t, err)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// The surface mapping is global = forward * Scale(s) * local and its inverse.
func TestSurfaceMappingRoundTrip(t *testing.T) {
	points := []Point{Pt(0, 0), Pt(1, 1), Pt(17, -4), Pt(-250, 99), Pt(1023, 767)}
	for tr := TransformNormal; tr <= TransformFlipped270; tr++ {
		for _, scale := range []int{1, 2, 3} {
			for _, pos := range []Point{Pt(0, 0), Pt(100, 50), Pt(-33, 7)} {
				forward := tr.Matrix().Multiply(Translate(pos.X, pos.Y)).Homogenize()
				toGlobal := forward.Multiply(Scale(float64(scale)))
				toLocal := toGlobal.MustInvert()
				for _, p := range points {
					g := toGlobal.ApplyPoint(p)
					assert.Equal(t, p, toLocal.ApplyPoint(g), "transform %s scale %d pos %s", tr, scale, pos)

					// Truncation in local space costs at most one local unit.
					back := toGlobal.ApplyPoint(toLocal.ApplyPoint(p))
					d := back.Sub(p)
					assert.Less(t, abs(d.X), scale, "transform %s scale %d pos %s point %s", tr, scale, pos, p)
					assert.Less(t, abs(d.Y), scale, "transform %s scale %d pos %s point %s", tr, scale, pos, p)
				}
			}
		}
	}
}

func TestRegionAddSubtract(t *testing.T) {
	rects := []Rectangle{Rect(0, 0, 10, 10), Rect(-5, 3, 1, 100), Rect(7, 7, 0, 4), Rect(1000, 1000, 3, 3)}
	for _, rect := range rects {
		r := NewRegion()
		r.Add(rect)
		r.Subtract(rect)
		assert.True(t, r.Empty(), rect.String())
	}
}

func TestRegionEqualIgnoresConstruction(t *testing.T) {
	a := NewRegion(Rect(0, 0, 100, 100))

	b := NewRegion(Rect(0, 0, 50, 100), Rect(50, 0, 50, 100))

	c := NewRegion()
	c.Add(Rect(0, 50, 100, 50))
	c.Add(Rect(0, 0, 100, 60))

	d := NewRegion(Rect(0, 0, 200, 100))
	d.Subtract(Rect(100, 0, 100, 100))

	for _, other := range []*Region{b, c, d} {
		assert.True(t, a.Equal(other), "%s vs %s", a, other)
		assert.True(t, other.Equal(a), "%s vs %s", other, a)
	}
	assert.False(t, a.Equal(NewRegion(Rect(0, 0, 100, 99))))
	assert.True(t, NewRegion().Equal(&Region{}))
}

func TestRegionOperations(t *testing.T) {
	r := NewRegion(Rect(0, 0, 100, 100))
	r.Subtract(Rect(25, 25, 50, 50))

	assert.True(t, r.ContainsPoint(Pt(10, 10)))
	assert.False(t, r.ContainsPoint(Pt(50, 50)))
	assert.False(t, r.ContainsPoint(Pt(100, 10)))
	assert.Len(t, r.Rects(), 4)
	assert.Equal(t, Rect(0, 0, 100, 100), r.Extents())

	t.Run("intersect allocates", func(t *testing.T) {
		i := r.Intersect(Rect(0, 0, 30, 30))
		assert.True(t, i.Equal(NewRegion(Rect(0, 0, 30, 25), Rect(0, 25, 25, 5))))
		assert.Len(t, r.Rects(), 4)
	})

	t.Run("copy is independent", func(t *testing.T) {
		c := r.Copy()
		c.Clear()
		assert.True(t, c.Empty())
		assert.False(t, r.Empty())
	})

	t.Run("contains rect is any overlap", func(t *testing.T) {
		assert.True(t, r.ContainsRect(Rect(20, 20, 10, 10)))
		assert.False(t, r.ContainsRect(Rect(30, 30, 10, 10)))
		assert.False(t, r.ContainsRect(Rect(200, 200, 10, 10)))
	})

	t.Run("contains clipped", func(t *testing.T) {
		assert.True(t, r.ContainsClipped(Rect(0, 0, 20, 20), Pt(10, 10)))
		assert.False(t, r.ContainsClipped(Rect(0, 0, 5, 5), Pt(10, 10)))
		assert.False(t, r.ContainsClipped(Rect(0, 0, 0, 20), Pt(0, 0)))
	})

	t.Run("union and remove", func(t *testing.T) {
		u := r.Copy()
		u.Union(NewRegion(Rect(25, 25, 50, 50)))
		assert.True(t, u.Equal(NewRegion(Rect(0, 0, 100, 100))))
		u.Remove(NewRegion(Rect(0, 0, 100, 50)))
		assert.True(t, u.Equal(NewRegion(Rect(0, 50, 100, 50))))
	})
}

func TestClamp(t *testing.T) {
	region := NewRegion(Rect(0, 0, 100, 100))

	tests := []struct {
		name     string
		old, new Point
		want     Point
	}{
		{"east", Pt(100, 50), Pt(105, 60), Pt(100, 60)},
		{"north", Pt(50, 0), Pt(55, -10), Pt(55, 0)},
		{"south", Pt(50, 100), Pt(45, 105), Pt(45, 100)},
		{"west", Pt(0, 50), Pt(-5, 40), Pt(0, 40)},
		{"south east", Pt(100, 100), Pt(105, 105), Pt(100, 100)},
		{"inside", Pt(10, 10), Pt(20, 30), Pt(20, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.old, tt.new, region))
		})
	}
}

func TestClampAcrossOutputs(t *testing.T) {
	region := NewRegion(Rect(0, 0, 100, 100), Rect(100, 0, 50, 50))
	assert.Equal(t, Pt(120, 40), Clamp(Pt(90, 40), Pt(120, 40), region))
	assert.Equal(t, Pt(149, 50), Clamp(Pt(149, 49), Pt(149, 80), region))
}
