package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrParallel is returned when a line never meets a plane.
	ErrParallel = errors.New("geometry: line is parallel to plane")

	// ErrInvalidAxis is returned for an axis other than x, y or z.
	ErrInvalidAxis = errors.New("geometry: axis must be x, y or z")
)

const parallelEpsilon = 1e-12

// Line is a parametric 3D line P + t*A.
type Line struct {
	P r3.Vec
	A r3.Vec
}

// Plane is the set of points v with Normal . v == Offset.
type Plane struct {
	Normal r3.Vec
	Offset float64
}

// GroundPlane is the plane y == 0.
var GroundPlane = Plane{Normal: r3.Vec{Y: 1}}

// Intersect returns the point where the line meets the plane.
func Intersect(plane Plane, line Line) (r3.Vec, error) {
	q := r3.Dot(plane.Normal, line.A)
	if math.Abs(q) < parallelEpsilon {
		return r3.Vec{}, ErrParallel
	}
	p := plane.Offset - r3.Dot(plane.Normal, line.P)
	return r3.Add(line.P, r3.Scale(p/q, line.A)), nil
}

// Vec converts a world point to a float vector.
func (w WorldPoint) Vec() r3.Vec {
	return r3.Vec{X: float64(w.X), Y: float64(w.Y), Z: float64(w.Z)}
}

// WorldPointFromVec rounds a float vector to a world point.
func WorldPointFromVec(v r3.Vec) WorldPoint {
	return NewWorldPoint(v.X, v.Y, v.Z)
}
