// Package geo provides the integer geometry used by the compositor: points,
// rectangles, homogeneous transforms and planar regions.
package geo

import "fmt"

// Point is an integer position in global or surface-local space.
type Point struct {
	X int
	Y int
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rectangle is an axis aligned integer rectangle. Width and Height are never negative.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ZeroRect is the empty rectangle at the origin.
var ZeroRect = Rectangle{}

// Rect is shorthand for Rectangle{x, y, w, h}.
func Rect(x, y, width, height int) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// RectFromEdges builds a rectangle from its x1,y1 (inclusive) and x2,y2 (exclusive) edges.
func RectFromEdges(x1, y1, x2, y2 int) Rectangle {
	return Rectangle{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Position returns the top left corner.
func (r Rectangle) Position() Point {
	return Point{X: r.X, Y: r.Y}
}

// Empty reports whether the rectangle covers no area.
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersect returns the overlap of r and o, or ZeroRect when they do not overlap.
func (r Rectangle) Intersect(o Rectangle) Rectangle {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return ZeroRect
	}
	return RectFromEdges(x1, y1, x2, y2)
}

// Translate returns r moved by (dx, dy).
func (r Rectangle) Translate(dx, dy int) Rectangle {
	r.X += dx
	r.Y += dy
	return r
}
