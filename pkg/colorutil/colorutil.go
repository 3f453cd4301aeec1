// Package colorutil provides shared color utilities for the rail labeler.
package colorutil

import (
	"fmt"
	"image/color"
	"math"

	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// Common overlay colors used throughout the application.
var (
	Black   = RGB{0, 0, 0}
	White   = RGB{255, 255, 255}
	Red     = RGB{255, 0, 0}
	Green   = RGB{0, 255, 0}
	Blue    = RGB{0, 0, 255}
	Cyan    = RGB{0, 255, 255}
	Magenta = RGB{255, 0, 255}
	Yellow  = RGB{255, 255, 0}
	Orange  = RGB{255, 165, 0}
)

// RGB is an 8-bit color. In YAML it is written as a three element list.
type RGB struct {
	R, G, B uint8
}

// UnmarshalYAML reads [r, g, b].
func (c *RGB) UnmarshalYAML(n *yaml.Node) error {
	var v []int
	if err := n.Decode(&v); err != nil {
		return err
	}
	if len(v) != 3 {
		return fmt.Errorf("line %d: color needs 3 components, got %d", n.Line, len(v))
	}
	for _, x := range v {
		if x < 0 || x > 255 {
			return fmt.Errorf("line %d: color component %d out of range", n.Line, x)
		}
	}
	*c = RGB{uint8(v[0]), uint8(v[1]), uint8(v[2])}
	return nil
}

// MarshalYAML writes [r, g, b].
func (c RGB) MarshalYAML() (interface{}, error) {
	return []int{int(c.R), int(c.G), int(c.B)}, nil
}

// RGBA converts to an opaque color.RGBA.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Scalar converts to a BGR gocv scalar.
func (c RGB) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// Gray returns a single channel scalar for mask drawing.
func Gray(v uint8) gocv.Scalar {
	return gocv.NewScalar(float64(v), 0, 0, 0)
}

// Blend mixes c over base with the given opacity in [0, 1].
func Blend(base, c RGB, alpha float64) RGB {
	alpha = math.Max(0, math.Min(1, alpha))
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a)*(1-alpha) + float64(b)*alpha))
	}
	return RGB{mix(base.R, c.R), mix(base.G, c.G), mix(base.B, c.B)}
}

// Contrast returns black or white, whichever reads better on c.
func Contrast(c RGB) RGB {
	_, s, v := RGBToHSV(float64(c.R), float64(c.G), float64(c.B))
	if v > 160 && s < 200 {
		return Black
	}
	return White
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h / 2, s, v
}
