package geometry

import "math"

// Rotate turns p around a fixed point by angle degrees. Offsets are
// truncated to whole pixels before the result is rebuilt.
func Rotate(angle float64, around, p ImagePoint) ImagePoint {
	s, c := math.Sincos(angle * math.Pi / 180)
	dx := float64(p.X - around.X)
	dy := float64(p.Y - around.Y)

	rx := int(dx*c - dy*s)
	ry := int(dx*s + dy*c)
	return ImagePoint{X: rx + around.X, Y: ry + around.Y}
}
