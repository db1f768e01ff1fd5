package geo

import (
	"fmt"
	"math"
)

// Vec4 is a homogeneous coordinate.
type Vec4 [4]float64

// Mat4 is a 4x4 homogeneous matrix in row-major order:
//
//	| m0  m1  m2  m3  |
//	| m4  m5  m6  m7  |
//	| m8  m9  m10 m11 |
//	| m12 m13 m14 m15 |
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation by (x, y).
func Translate(x, y int) Mat4 {
	m := Identity()
	m[3] = float64(x)
	m[7] = float64(y)
	return m
}

// Scale returns a uniform scale in x and y. The w component is left untouched.
func Scale(s float64) Mat4 {
	m := Identity()
	m[0] = s
	m[5] = s
	return m
}

// Multiply returns m * o, so o is applied first.
func (m Mat4) Multiply(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// MultiplyScalar returns every element of m multiplied by s.
func (m Mat4) MultiplyScalar(s float64) Mat4 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// Homogenize divides every element by the bottom right element so that w maps to 1.
func (m Mat4) Homogenize() Mat4 {
	if m[15] == 0 || m[15] == 1 {
		return m
	}
	return m.MultiplyScalar(1 / m[15])
}

// Invert returns the inverse of m. ok is false when m is singular.
func (m Mat4) Invert() (inv Mat4, ok bool) {
	// Gauss-Jordan elimination on [m | I] with partial pivoting.
	a := m
	inv = Identity()
	for col := 0; col < 4; col++ {
		pivot := col
		for row := col + 1; row < 4; row++ {
			if math.Abs(a[row*4+col]) > math.Abs(a[pivot*4+col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot*4+col]) < 1e-12 {
			return Mat4{}, false
		}
		if pivot != col {
			for k := 0; k < 4; k++ {
				a[col*4+k], a[pivot*4+k] = a[pivot*4+k], a[col*4+k]
				inv[col*4+k], inv[pivot*4+k] = inv[pivot*4+k], inv[col*4+k]
			}
		}
		p := a[col*4+col]
		for k := 0; k < 4; k++ {
			a[col*4+k] /= p
			inv[col*4+k] /= p
		}
		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			f := a[row*4+col]
			if f == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				a[row*4+k] -= f * a[col*4+k]
				inv[row*4+k] -= f * inv[col*4+k]
			}
		}
	}
	return inv, true
}

// MustInvert is Invert for matrices known to be invertible, such as the
// products of translations, output transforms and positive scales.
func (m Mat4) MustInvert() Mat4 {
	inv, ok := m.Invert()
	if !ok {
		panic(fmt.Sprintf("geo: singular matrix %v", [16]float64(m)))
	}
	return inv
}

// Apply returns m * v.
func (m Mat4) Apply(v Vec4) Vec4 {
	var r Vec4
	for row := 0; row < 4; row++ {
		r[row] = m[row*4]*v[0] + m[row*4+1]*v[1] + m[row*4+2]*v[2] + m[row*4+3]*v[3]
	}
	return r
}

// ApplyPoint maps p through m and truncates the result to integers.
func (m Mat4) ApplyPoint(p Point) Point {
	v := m.Apply(Vec4{float64(p.X), float64(p.Y), 0, 1})
	return Point{X: truncate(v[0]), Y: truncate(v[1])}
}

// truncate drops the fraction toward zero after snapping float noise left by
// non-dyadic scales (1/3, 1/5, ...) onto the nearest integer.
func truncate(f float64) int {
	if r := math.Round(f); math.Abs(f-r) < 1e-9 {
		return int(r)
	}
	return int(f)
}

// Translation returns the x and y translation components.
func (m Mat4) Translation() (x, y float64) {
	return m[3], m[7]
}

// ApproxEqual reports whether every element of m is within eps of o.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
