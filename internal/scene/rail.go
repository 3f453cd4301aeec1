// Package scene holds the per-image annotation model: tracks made of two
// rails, switches and tag groups, plus their JSON form.
package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"rail-labeler/pkg/geometry"
)

// NearestMarkCutoff is the largest distance in pixels at which a mark is
// considered under the cursor.
const NearestMarkCutoff = 5.0

var (
	// ErrAmbiguousDelete is returned when a rail delete names both or
	// neither of a point and an index.
	ErrAmbiguousDelete = errors.New("scene: delete needs exactly one of point or index")

	// ErrNoTrack is returned for an unknown track id.
	ErrNoTrack = errors.New("scene: no such track")

	// ErrNoSwitch is returned for an unknown switch id.
	ErrNoSwitch = errors.New("scene: no such switch")
)

// Projector converts a world distance at a pixel back into pixel space.
// *camera.Camera satisfies it.
type Projector interface {
	PointFromDistance(p geometry.ImagePoint, d float64, axis geometry.Axis) (geometry.ImagePoint, error)
}

// RailSide identifies one rail of a track.
type RailSide int

const (
	Left  RailSide = -1
	Right RailSide = 1
)

func (s RailSide) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Opposite returns the other side.
func (s RailSide) Opposite() RailSide {
	return -s
}

// Rail is one side of a track: a world width and a list of marks kept in
// point order (image bottom first).
type Rail struct {
	width float64
	marks []geometry.ImagePoint
}

// NewRail creates a rail. Marks are taken in the given order.
func NewRail(width float64, marks ...geometry.ImagePoint) *Rail {
	return &Rail{width: width, marks: slices.Clone(marks)}
}

// Width returns the rail head width in millimetres.
func (r *Rail) Width() float64 { return r.width }

// Marks returns a copy of the marks.
func (r *Rail) Marks() []geometry.ImagePoint { return slices.Clone(r.marks) }

// Len returns the number of marks.
func (r *Rail) Len() int { return len(r.marks) }

// AddMark inserts p unless the exact pixel is already marked.
func (r *Rail) AddMark(p geometry.ImagePoint) {
	if slices.Contains(r.marks, p) {
		return
	}
	r.marks = append(r.marks, p)
	geometry.SortImagePoints(r.marks)
}

// InsertMark places p at index without re-sorting. The index is clamped to
// the valid range. It reports false when p is already a mark.
func (r *Rail) InsertMark(index int, p geometry.ImagePoint) bool {
	if slices.Contains(r.marks, p) {
		return false
	}
	index = max(0, min(index, len(r.marks)))
	r.marks = slices.Insert(r.marks, index, p)
	return true
}

// NearestMark returns the index and distance of the closest mark within
// NearestMarkCutoff. On equal distances the later mark wins. When no mark
// qualifies it returns (-1, NearestMarkCutoff).
func (r *Rail) NearestMark(pos geometry.ImagePoint) (int, float64) {
	nearest, dist := -1, NearestMarkCutoff
	for i, m := range r.marks {
		if d := pos.Distance(m); d <= dist {
			nearest, dist = i, d
		}
	}
	return nearest, dist
}

// MarkRef selects a mark to delete, either near a point or by index.
type MarkRef struct {
	Point *geometry.ImagePoint
	Index *int
}

// ByPoint refers to the mark closest to p.
func ByPoint(p geometry.ImagePoint) MarkRef { return MarkRef{Point: &p} }

// ByIndex refers to the mark at index i.
func ByIndex(i int) MarkRef { return MarkRef{Index: &i} }

// DelMark removes the referenced mark and returns its index. Deleting by
// point has no distance cutoff. An empty rail is left alone and -1 is
// returned.
func (r *Rail) DelMark(ref MarkRef) (int, error) {
	if (ref.Point == nil) == (ref.Index == nil) {
		return -1, ErrAmbiguousDelete
	}
	if len(r.marks) == 0 {
		return -1, nil
	}

	var index int
	if ref.Point != nil {
		index = closest(r.marks, *ref.Point)
	} else {
		index = *ref.Index
		if index < 0 || index >= len(r.marks) {
			return -1, fmt.Errorf("scene: mark index %d out of range [0, %d)", index, len(r.marks))
		}
	}
	r.marks = slices.Delete(r.marks, index, index+1)
	return index, nil
}

// closest returns the index of the first point at minimum distance to p.
func closest(points []geometry.ImagePoint, p geometry.ImagePoint) int {
	best, bestDist := 0, math.Inf(1)
	for i, m := range points {
		if d := p.Distance(m); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SplinePoints interpolates the marks and thins the result so every image
// row between the first and last row holds one point (the middle sample of
// its run). A repeated first row keeps its first sample and a repeated last
// row its last one.
func (r *Rail) SplinePoints(steps int) []geometry.ImagePoint {
	pts := geometry.InterpolateMarks(r.marks, steps)
	if len(pts) == 0 {
		return pts
	}

	firstY, lastY := pts[0].Y, pts[len(pts)-1].Y
	for i := 1; i < len(pts)-1; i++ {
		y := pts[i].Y
		switch {
		case y != lastY && y != firstY:
			if n := countRow(pts, y); n > 1 {
				pts = keepInRow(pts, y, i+n/2)
			}
		case y == lastY && y != firstY:
			pts = keepInRow(pts, y, len(pts)-1)
		case y != lastY && y == firstY:
			pts = keepInRow(pts, y, 0)
		}
	}
	return pts
}

func countRow(pts []geometry.ImagePoint, y int) int {
	n := 0
	for _, p := range pts {
		if p.Y == y {
			n++
		}
	}
	return n
}

// keepInRow drops every point on row y except the one at index keep.
func keepInRow(pts []geometry.ImagePoint, y, keep int) []geometry.ImagePoint {
	out := make([]geometry.ImagePoint, 0, len(pts))
	for j, p := range pts {
		if p.Y != y || j == keep {
			out = append(out, p)
		}
	}
	return out
}

// ContourSide shifts points half a rail width to one side in world space and
// keeps their image rows.
func (r *Rail) ContourSide(points []geometry.ImagePoint, cam Projector, side RailSide) []geometry.ImagePoint {
	if len(points) == 0 {
		return nil
	}
	offset := r.width / 2 * float64(side)
	out := make([]geometry.ImagePoint, len(points))
	for i, p := range points {
		shifted, err := cam.PointFromDistance(p, offset, geometry.AxisX)
		if err != nil {
			shifted = p
		}
		out[i] = geometry.ImagePoint{X: shifted.X, Y: p.Y}
	}
	return out
}

// SplineContourLeft is the left border of the interpolated rail.
func (r *Rail) SplineContourLeft(cam Projector, steps int) []geometry.ImagePoint {
	return r.ContourSide(r.SplinePoints(steps), cam, Left)
}

// SplineContourRight is the right border of the interpolated rail.
func (r *Rail) SplineContourRight(cam Projector, steps int) []geometry.ImagePoint {
	return r.ContourSide(r.SplinePoints(steps), cam, Right)
}

// Contour outlines the rail clockwise from the bottom left: the left border
// followed by the right border reversed.
func (r *Rail) Contour(cam Projector, steps int) []geometry.ImagePoint {
	left := r.SplineContourLeft(cam, steps)
	right := r.SplineContourRight(cam, steps)
	slices.Reverse(right)
	return append(left, right...)
}

// MarkWidths returns the pixel width of the rail at every mark.
func (r *Rail) MarkWidths(cam Projector) []int {
	return pairWidths(r.ContourSide(r.marks, cam, Left), r.ContourSide(r.marks, cam, Right))
}

// SplineWidths returns the pixel width of the rail at every spline point.
func (r *Rail) SplineWidths(cam Projector, steps int) []int {
	pts := r.SplinePoints(steps)
	return pairWidths(r.ContourSide(pts, cam, Left), r.ContourSide(pts, cam, Right))
}

func pairWidths(left, right []geometry.ImagePoint) []int {
	n := min(len(left), len(right))
	widths := make([]int, n)
	for i := 0; i < n; i++ {
		widths[i] = max(1, right[i].X-left[i].X)
	}
	return widths
}
