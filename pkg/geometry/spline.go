package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// centripetal parametrisation; the exponent is alpha/2 with alpha = 0.5
// because knot spacing is computed from the squared distance.
const knotExponent = 0.25

// CatmullRomSpline samples the centripetal Catmull-Rom segment between p1
// and p2. Both endpoints are included.
func CatmullRomSpline(p0, p1, p2, p3 Point2D, n int) []Point2D {
	if n <= 0 {
		return nil
	}

	t0 := 0.0
	t1 := knot(t0, p0, p1)
	t2 := knot(t1, p1, p2)
	t3 := knot(t2, p2, p3)

	ts := make([]float64, n)
	if n == 1 {
		ts[0] = t1
	} else {
		floats.Span(ts, t1, t2)
	}

	out := make([]Point2D, 0, n)
	for _, t := range ts {
		a1 := lerp(p0, p1, t0, t1, t)
		a2 := lerp(p1, p2, t1, t2, t)
		a3 := lerp(p2, p3, t2, t3, t)

		b1 := lerp(a1, a2, t0, t2, t)
		b2 := lerp(a2, a3, t1, t3, t)

		c := lerp(b1, b2, t1, t2, t)
		if math.IsNaN(c.X) || math.IsNaN(c.Y) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func knot(ti float64, pi, pj Point2D) float64 {
	dx := pj.X - pi.X
	dy := pj.Y - pi.Y
	return math.Pow(dx*dx+dy*dy, knotExponent) + ti
}

// lerp blends a and b over the knot interval [ta, tb].
func lerp(a, b Point2D, ta, tb, t float64) Point2D {
	span := tb - ta
	return a.Scale((tb - t) / span).Add(b.Scale((t - ta) / span))
}

// CatmullRomChain concatenates the segments of every window of four points.
func CatmullRomChain(points []Point2D, steps int) []Point2D {
	var out []Point2D
	for i := 0; i+3 < len(points); i++ {
		out = append(out, CatmullRomSpline(points[i], points[i+1], points[i+2], points[i+3], steps)...)
	}
	return out
}

// InterpolateMarks densifies an ordered mark list. The first and last marks
// are mirrored one row down to act as guide points so the curve passes
// through every mark. Fewer than two marks yield no points.
func InterpolateMarks(marks []ImagePoint, steps int) []ImagePoint {
	if len(marks) < 2 {
		return nil
	}

	padded := make([]Point2D, 0, len(marks)+2)
	first := marks[0].Float()
	first.Y++
	padded = append(padded, first)
	for _, m := range marks {
		padded = append(padded, m.Float())
	}
	last := marks[len(marks)-1].Float()
	last.Y++
	padded = append(padded, last)

	curve := CatmullRomChain(padded, steps)
	out := make([]ImagePoint, len(curve))
	for i, c := range curve {
		out[i] = NewImagePoint(c.X, c.Y)
	}
	return out
}
