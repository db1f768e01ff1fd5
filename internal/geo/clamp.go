package geo

// Clamp limits a motion from old to next so that it stays on the region
// rectangle that contains old. Rectangle edges count as inside, so a pointer
// resting on the right or bottom border stays there. When old is outside the
// region, or next already lies inside it, next is returned unchanged.
func Clamp(old, next Point, region *Region) Point {
	if region.ContainsPoint(next) {
		return next
	}
	for _, box := range region.Rects() {
		x2 := box.X + box.Width
		y2 := box.Y + box.Height
		if old.X < box.X || old.X > x2 || old.Y < box.Y || old.Y > y2 {
			continue
		}
		return Point{
			X: min(max(next.X, box.X), x2),
			Y: min(max(next.Y, box.Y), y2),
		}
	}
	return next
}
