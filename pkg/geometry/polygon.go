package geometry

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// ImagePolygon converts pixel points to a float polygon.
func ImagePolygon(points []ImagePoint) []Point2D {
	out := make([]Point2D, len(points))
	for i, p := range points {
		out[i] = p.Float()
	}
	return out
}

// CloseToBottomCorner appends the bottom image corner to an outline whose
// ends touch the image bottom and an image side, so that the filled area
// reaches the frame border.
func CloseToBottomCorner(outline []ImagePoint, width, height int) []ImagePoint {
	if len(outline) == 0 {
		return outline
	}
	first, last := outline[0], outline[len(outline)-1]

	var side ImagePoint
	switch {
	case first.AtImageBottom(height) && last.AtImageSide(width):
		side = last
	case last.AtImageBottom(height) && first.AtImageSide(width):
		side = first
	default:
		return outline
	}

	if side.AtImageLeftSide() {
		return append(outline, ImagePoint{X: 0, Y: height})
	}
	return append(outline, ImagePoint{X: width, Y: height})
}
