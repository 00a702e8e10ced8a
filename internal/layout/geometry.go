// Package layout holds the page geometry of a yearbook section: the slot grid and
// its cursor, paragraph shrink-to-fit, polaroid image mounts and the title banner box.
//
// All coordinates are PDF user space: points, origin at the bottom-left of the page.
// Nothing in this package touches PDF bytes.
package layout

// Size is a width/height pair in points.
type Size struct {
	W float64
	H float64
}

// Point is a position in points.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis aligned rectangle anchored at its bottom-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Origin returns the bottom-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Ratio is width over height, zero for a degenerate size.
func (s Size) Ratio() float64 {
	if s.H == 0 {
		return 0
	}
	return s.W / s.H
}

// Scale multiplies both dimensions by k.
func (s Size) Scale(k float64) Size {
	return Size{W: s.W * k, H: s.H * k}
}
