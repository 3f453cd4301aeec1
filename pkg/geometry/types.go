// Package geometry provides the pixel and world coordinate types used by the annotation engine.
package geometry

import (
	"fmt"
	"image"
	"math"
	"slices"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// ImagePoint is a pixel coordinate. Points compare by row: a point lower in
// the image (larger y) sorts first.
type ImagePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewImagePoint rounds float coordinates half to even.
func NewImagePoint(x, y float64) ImagePoint {
	return ImagePoint{X: roundInt(x), Y: roundInt(y)}
}

func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}

// Less reports whether p sorts before other.
func (p ImagePoint) Less(other ImagePoint) bool {
	return p.Y > other.Y
}

// Distance returns the Euclidean pixel distance to another point.
func (p ImagePoint) Distance(other ImagePoint) float64 {
	return math.Hypot(float64(p.X-other.X), float64(p.Y-other.Y))
}

// Midpoint returns the mean of both points, truncated toward zero.
func (p ImagePoint) Midpoint(other ImagePoint) ImagePoint {
	return ImagePoint{X: int(float64(p.X+other.X) / 2), Y: int(float64(p.Y+other.Y) / 2)}
}

// Float converts to Point2D.
func (p ImagePoint) Float() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Image converts to an image.Point for raster backends.
func (p ImagePoint) Image() image.Point {
	return image.Pt(p.X, p.Y)
}

func (p ImagePoint) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// AtImageBottom reports whether the point lies in the bottom 10 rows.
func (p ImagePoint) AtImageBottom(height int) bool {
	return p.Y > height-11
}

// AtImageLeftSide reports whether the point lies in the leftmost 10 columns.
func (p ImagePoint) AtImageLeftSide() bool {
	return p.X < 10
}

// AtImageRightSide reports whether the point lies in the rightmost 10 columns.
func (p ImagePoint) AtImageRightSide(width int) bool {
	return p.X > width-11
}

// AtImageSide reports whether the point touches the left or right border.
func (p ImagePoint) AtImageSide(width int) bool {
	return p.AtImageLeftSide() || p.AtImageRightSide(width)
}

// InBounds reports whether the point lies inside [-1, width+1) x [-1, height+1).
func (p ImagePoint) InBounds(width, height int) bool {
	return p.X >= -1 && p.X < width+1 && p.Y >= -1 && p.Y < height+1
}

// SortImagePoints sorts points in place by Less, keeping the order of equal rows.
func SortImagePoints(points []ImagePoint) {
	slices.SortStableFunc(points, compareImagePoints)
}

// SortImagePointsReverse sorts points from the top of the image down.
func SortImagePointsReverse(points []ImagePoint) {
	slices.SortStableFunc(points, func(a, b ImagePoint) int {
		return compareImagePoints(b, a)
	})
}

func compareImagePoints(a, b ImagePoint) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// WorldPoint is a world coordinate in millimetres, rounded to integers.
type WorldPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// NewWorldPoint rounds float coordinates half to even.
func NewWorldPoint(x, y, z float64) WorldPoint {
	return WorldPoint{X: roundInt(x), Y: roundInt(y), Z: roundInt(z)}
}

// Offset returns the point moved by d millimetres along axis.
func (w WorldPoint) Offset(axis Axis, d float64) (WorldPoint, error) {
	x, y, z := float64(w.X), float64(w.Y), float64(w.Z)
	switch axis {
	case AxisX:
		x += d
	case AxisY:
		y += d
	case AxisZ:
		z += d
	default:
		return w, fmt.Errorf("%w: %q", ErrInvalidAxis, string(axis))
	}
	return NewWorldPoint(x, y, z), nil
}

// Axis names a world axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the rounded center of the rectangle.
func (r RectInt) Center() ImagePoint {
	return NewImagePoint(float64(r.X)+float64(r.Width)/2, float64(r.Y)+float64(r.Height)/2)
}

// Image converts to an image.Rectangle.
func (r RectInt) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []ImagePoint) RectInt {
	if len(points) == 0 {
		return RectInt{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return RectInt{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
