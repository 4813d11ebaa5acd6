// Package geom holds virtual-screen rectangle helpers shared by the display
// registry and the assignment engine.
package geom

// Rect describes a rectangle using top-left origin and size.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Point is a position in virtual-screen coordinates.
type Point struct {
	X int
	Y int
}

// Normalize returns a rectangle with non-negative width/height.
func Normalize(r Rect) Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Contains reports whether a pixel lies inside the rectangle. The last
// addressable column is X+W-1, matching Clamp.
func Contains(r Rect, x, y int) bool {
	r = Normalize(r)
	if r.W <= 0 || r.H <= 0 {
		return false
	}
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Clamp clamps (x,y) into the closed pixel range [X, X+W-1] x [Y, Y+H-1].
// Empty rectangles return the point unchanged.
func Clamp(r Rect, x, y int) (int, int) {
	r = Normalize(r)
	if r.W <= 0 || r.H <= 0 {
		return x, y
	}
	return clampInt(x, r.X, r.X+r.W-1), clampInt(y, r.Y, r.Y+r.H-1)
}

// Nearest returns the in-bounds pixel closest to (x,y).
func Nearest(r Rect, x, y int) Point {
	nx, ny := Clamp(r, x, y)
	return Point{X: nx, Y: ny}
}

// Center returns the center point of rect.
func Center(r Rect) Point {
	r = Normalize(r)
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
