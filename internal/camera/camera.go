// Package camera implements the pinhole projection between ground-plane
// world coordinates (millimetres) and image pixels.
package camera

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"rail-labeler/pkg/geometry"
)

// ErrInvalidAxis is returned by PointFromDistance for an unknown axis.
var ErrInvalidAxis = geometry.ErrInvalidAxis

type planeKey struct {
	p     geometry.ImagePoint
	plane geometry.Plane
}

type distanceKey struct {
	p    geometry.ImagePoint
	d    float64
	axis geometry.Axis
}

type projection struct {
	u, v float64
}

type backProjection struct {
	w   geometry.WorldPoint
	err error
}

// Camera projects between world and image space. Results are memoized per
// input; the cache is safe for concurrent use.
type Camera struct {
	cal *Calibration

	center        r3.Vec
	intrinsics    *mat.Dense
	intrinsicsInv *mat.Dense
	rotation      *mat.Dense
	projection    *mat.Dense

	mu         sync.Mutex
	projected  map[geometry.WorldPoint]projection
	backProj   map[planeKey]backProjection
	byDistance map[distanceKey]geometry.ImagePoint
}

// New builds a camera from calibration parameters.
func New(cal *Calibration) (*Camera, error) {
	if cal == nil {
		return nil, errors.New("camera: nil calibration")
	}

	k := mat.NewDense(3, 3, cal.CameraMatrix[:])
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, errors.Wrap(err, "camera: intrinsic matrix is not invertible")
	}

	rot := rotationMatrix(cal.Roll, cal.Pitch, cal.Yaw)
	center := r3.Vec{X: cal.Tvec[0], Y: cal.Tvec[1], Z: cal.Tvec[2]}

	// [R | -R*C]
	var origin mat.VecDense
	origin.MulVec(rot, mat.NewVecDense(3, []float64{-center.X, -center.Y, -center.Z}))
	extrinsic := mat.NewDense(3, 4, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			extrinsic.Set(r, c, rot.At(r, c))
		}
		extrinsic.Set(r, 3, origin.AtVec(r))
	}
	var proj mat.Dense
	proj.Mul(k, extrinsic)

	return &Camera{
		cal:           cal,
		center:        center,
		intrinsics:    k,
		intrinsicsInv: &kInv,
		rotation:      rot,
		projection:    &proj,
		projected:     make(map[geometry.WorldPoint]projection),
		backProj:      make(map[planeKey]backProjection),
		byDistance:    make(map[distanceKey]geometry.ImagePoint),
	}, nil
}

// Load reads a calibration file and builds a camera from it.
func Load(path string) (*Camera, error) {
	cal, err := LoadCalibration(path)
	if err != nil {
		return nil, err
	}
	return New(cal)
}

// rotationMatrix composes roll, pitch and yaw given in degrees.
func rotationMatrix(roll, pitch, yaw float64) *mat.Dense {
	sr, cr := math.Sincos(roll * math.Pi / 180)
	sp, cp := math.Sincos(pitch * math.Pi / 180)
	sy, cy := math.Sincos(yaw * math.Pi / 180)

	rYaw := mat.NewDense(3, 3, []float64{
		cy, 0, -sy,
		0, 1, 0,
		sy, 0, cy,
	})
	rPitch := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cp, sp,
		0, -sp, cp,
	})
	rRoll := mat.NewDense(3, 3, []float64{
		cr, sr, 0,
		-sr, cr, 0,
		0, 0, 1,
	})

	var r mat.Dense
	r.Product(rRoll, rPitch, rYaw)
	return &r
}

// Calibration returns the parameters the camera was built from.
func (c *Camera) Calibration() *Calibration {
	return c.cal
}

// Center returns the camera position in world coordinates.
func (c *Camera) Center() r3.Vec {
	return c.center
}

// Project maps a world point to subpixel image coordinates. Points at or
// behind the image plane yield NaN for both coordinates.
func (c *Camera) Project(w geometry.WorldPoint) (u, v float64) {
	c.mu.Lock()
	cached, ok := c.projected[w]
	c.mu.Unlock()
	if ok {
		return cached.u, cached.v
	}

	var uv1 mat.VecDense
	uv1.MulVec(c.projection, mat.NewVecDense(4, []float64{float64(w.X), float64(w.Y), float64(w.Z), 1}))
	p := projection{u: math.NaN(), v: math.NaN()}
	if z := uv1.AtVec(2); z > 0 {
		p = projection{u: uv1.AtVec(0) / z, v: uv1.AtVec(1) / z}
	}

	c.mu.Lock()
	c.projected[w] = p
	c.mu.Unlock()
	return p.u, p.v
}

// WorldToPixel projects a world point and truncates it to a pixel. ok is
// false when the point is not in front of the camera.
func (c *Camera) WorldToPixel(w geometry.WorldPoint) (geometry.ImagePoint, bool) {
	u, v := c.Project(w)
	if math.IsNaN(u) || math.IsNaN(v) {
		return geometry.ImagePoint{}, false
	}
	return geometry.ImagePoint{X: int(u), Y: int(v)}, true
}

// PixelToWorld casts the ray through a pixel onto the ground plane.
func (c *Camera) PixelToWorld(p geometry.ImagePoint) (geometry.WorldPoint, error) {
	return c.PixelToWorldOnPlane(p, geometry.GroundPlane)
}

// PixelToWorldOnPlane casts the ray through a pixel onto an arbitrary plane.
// The error wraps geometry.ErrParallel when the ray never meets it.
func (c *Camera) PixelToWorldOnPlane(p geometry.ImagePoint, plane geometry.Plane) (geometry.WorldPoint, error) {
	key := planeKey{p: p, plane: plane}
	c.mu.Lock()
	cached, ok := c.backProj[key]
	c.mu.Unlock()
	if ok {
		return cached.w, cached.err
	}

	var ray, dir mat.VecDense
	ray.MulVec(c.intrinsicsInv, mat.NewVecDense(3, []float64{float64(p.X), float64(p.Y), 1}))
	dir.MulVec(c.rotation.T(), &ray)

	line := geometry.Line{P: c.center, A: r3.Vec{X: dir.AtVec(0), Y: dir.AtVec(1), Z: dir.AtVec(2)}}
	var result backProjection
	hit, err := geometry.Intersect(plane, line)
	if err != nil {
		result.err = errors.Wrapf(err, "pixel %s", p)
	} else {
		result.w = geometry.WorldPointFromVec(hit)
	}

	c.mu.Lock()
	c.backProj[key] = result
	c.mu.Unlock()
	return result.w, result.err
}

// PointFromDistance returns the pixel that lies d millimetres from the
// ground point under p along the given world axis. When the shifted point
// is not representable (behind the ground plane, behind the camera, or the
// pixel ray misses the ground) p itself is returned.
func (c *Camera) PointFromDistance(p geometry.ImagePoint, d float64, axis geometry.Axis) (geometry.ImagePoint, error) {
	switch axis {
	case geometry.AxisX, geometry.AxisY, geometry.AxisZ:
	default:
		return p, errors.Wrapf(ErrInvalidAxis, "axis %q", axis)
	}

	key := distanceKey{p: p, d: d, axis: axis}
	c.mu.Lock()
	cached, ok := c.byDistance[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	result := p
	if w, err := c.PixelToWorld(p); err == nil {
		shifted, err := w.Offset(axis, d)
		if err != nil {
			return p, err
		}
		if shifted.Z >= 0 {
			if px, ok := c.WorldToPixel(shifted); ok {
				result = px
			}
		}
	}

	c.mu.Lock()
	c.byDistance[key] = result
	c.mu.Unlock()
	return result, nil
}
