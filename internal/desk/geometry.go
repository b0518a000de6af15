package desk

// Point is a cell coordinate on the desktop. X grows right, Y grows down.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Size is a window extent in cells.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rect is an axis-aligned cell rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectAt builds the rectangle at p with extent s.
func RectAt(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, Width: s.Width, Height: s.Height}
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Clamp returns p moved the minimum distance needed so a box of size s at p
// stays inside r. When s is larger than r the box is pinned to r's origin.
func (r Rect) Clamp(p Point, s Size) Point {
	maxX := r.X + r.Width - s.Width
	maxY := r.Y + r.Height - s.Height
	if p.X > maxX {
		p.X = maxX
	}
	if p.Y > maxY {
		p.Y = maxY
	}
	if p.X < r.X {
		p.X = r.X
	}
	if p.Y < r.Y {
		p.Y = r.Y
	}
	return p
}
