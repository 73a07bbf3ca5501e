package domain

import (
	"math"

	"github.com/golang/geo/r2"
)

// Bounds is an axis-aligned rectangle in a single coordinate space, either
// render-surface pixels or logical page units. Rectangles produced by a
// pointer drag may be inverted until normalized.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Layout constants shared by the annotation core.
const (
	// TokenPadding is added around the union of resolved token rectangles.
	TokenPadding = 3.0

	// wideBorderThreshold is the logical size at which selection outlines
	// switch to the wide stroke.
	wideBorderThreshold = 100.0
	thinBorderWidth     = 1
	wideBorderWidth     = 3
)

func (b Bounds) rect() r2.Rect {
	return r2.RectFromPoints(r2.Point{X: b.Left, Y: b.Top}, r2.Point{X: b.Right, Y: b.Bottom})
}

func boundsFromRect(r r2.Rect) Bounds {
	return Bounds{Left: r.X.Lo, Top: r.Y.Lo, Right: r.X.Hi, Bottom: r.Y.Hi}
}

// Normalize returns the same rectangle with Left <= Right and Top <= Bottom.
func (b Bounds) Normalize() Bounds {
	return boundsFromRect(b.rect())
}

// Overlaps reports whether both axis projections intersect with positive
// length. Rectangles that only share an edge do not overlap.
func (b Bounds) Overlaps(o Bounds) bool {
	dx := math.Min(b.Right, o.Right) - math.Max(b.Left, o.Left)
	dy := math.Min(b.Bottom, o.Bottom) - math.Max(b.Top, o.Top)
	return dx > 0 && dy > 0
}

// Scale multiplies every coordinate by factor.
func (b Bounds) Scale(factor float64) Bounds {
	return Bounds{
		Left:   b.Left * factor,
		Top:    b.Top * factor,
		Right:  b.Right * factor,
		Bottom: b.Bottom * factor,
	}
}

// Translate shifts the rectangle by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{
		Left:   b.Left + dx,
		Top:    b.Top + dy,
		Right:  b.Right + dx,
		Bottom: b.Bottom + dy,
	}
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Area is the absolute area, so inverted rectangles still measure correctly.
func (b Bounds) Area() float64 {
	return math.Abs(b.Width()) * math.Abs(b.Height())
}

// Equal compares all four coordinates exactly.
func (b Bounds) Equal(o Bounds) bool {
	return b.Left == o.Left && b.Top == o.Top && b.Right == o.Right && b.Bottom == o.Bottom
}

// IntersectionPercentage returns how much of b (0-100) is covered by o.
func (b Bounds) IntersectionPercentage(o Bounds) float64 {
	x1 := math.Max(b.Left, o.Left)
	y1 := math.Max(b.Top, o.Top)
	x2 := math.Min(b.Right, o.Right)
	y2 := math.Min(b.Bottom, o.Bottom)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	area := b.Area()
	if area == 0 {
		return 0
	}
	return 100 * (x2 - x1) * (y2 - y1) / area
}

// BorderWidth is the outline stroke used to draw the rectangle: wide when
// either side reaches 100 logical units.
func (b Bounds) BorderWidth() int {
	n := b.Normalize()
	if n.Width() >= wideBorderThreshold || n.Height() >= wideBorderThreshold {
		return wideBorderWidth
	}
	return thinBorderWidth
}

// SpanningBounds returns the smallest rectangle containing every input,
// grown by padding on each side. It returns the zero Bounds for no input.
func SpanningBounds(bounds []Bounds, padding float64) Bounds {
	if len(bounds) == 0 {
		return Bounds{}
	}
	r := r2.EmptyRect()
	for _, b := range bounds {
		n := b.rect()
		r = r.AddPoint(n.Lo()).AddPoint(n.Hi())
	}
	return boundsFromRect(r).pad(padding)
}

func (b Bounds) pad(p float64) Bounds {
	return Bounds{Left: b.Left - p, Top: b.Top - p, Right: b.Right + p, Bottom: b.Bottom + p}
}
