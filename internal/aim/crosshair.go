// Package aim implements the cursor aiming devices: a full-frame crosshair
// for switch boxes and a camera aware two-rail stencil for tracks.
package aim

import (
	"math"

	"rail-labeler/pkg/geometry"
)

// Segment is a line between two pixels.
type Segment struct {
	A, B geometry.ImagePoint
}

// CrossHairConfig configures the crosshair.
type CrossHairConfig struct {
	// MidPointBuffer is the gap around the center as a fraction of the
	// image width.
	MidPointBuffer float64
}

// CrossHair spans the whole image with a gap around the cursor.
type CrossHair struct {
	cfg CrossHairConfig

	Center geometry.ImagePoint
	Left   Segment
	Right  Segment
	Top    Segment
	Bottom Segment
}

// NewCrossHair creates a crosshair at the image origin.
func NewCrossHair(cfg CrossHairConfig) *CrossHair {
	return &CrossHair{cfg: cfg}
}

// Refresh recomputes the hairs for a cursor position in a width x height
// image.
func (c *CrossHair) Refresh(pos geometry.ImagePoint, width, height int) {
	buffer := int(math.RoundToEven(float64(width) * c.cfg.MidPointBuffer))

	c.Center = pos
	c.Left = Segment{geometry.ImagePoint{X: 0, Y: pos.Y}, geometry.ImagePoint{X: pos.X - buffer, Y: pos.Y}}
	c.Right = Segment{geometry.ImagePoint{X: pos.X + buffer, Y: pos.Y}, geometry.ImagePoint{X: width, Y: pos.Y}}
	c.Top = Segment{geometry.ImagePoint{X: pos.X, Y: 0}, geometry.ImagePoint{X: pos.X, Y: pos.Y - buffer}}
	c.Bottom = Segment{geometry.ImagePoint{X: pos.X, Y: pos.Y + buffer}, geometry.ImagePoint{X: pos.X, Y: height}}
}

// Points returns the candidate mark positions.
func (c *CrossHair) Points() []geometry.ImagePoint {
	return []geometry.ImagePoint{c.Center}
}

// Segments returns the four hairs.
func (c *CrossHair) Segments() []Segment {
	return []Segment{c.Left, c.Top, c.Right, c.Bottom}
}
