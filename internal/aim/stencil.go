package aim

import (
	"fmt"

	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

// LabelMode selects how the stencil places track marks.
type LabelMode string

const (
	// ModeSidePoint follows the cursor with one rail and derives the other
	// from the track gauge.
	ModeSidePoint LabelMode = "side_point"

	// ModeIndependent collapses both rails onto the cursor.
	ModeIndependent LabelMode = "independent_mode"
)

// ParseLabelMode validates a configured mode.
func ParseLabelMode(s string) (LabelMode, error) {
	switch m := LabelMode(s); m {
	case ModeSidePoint, ModeIndependent:
		return m, nil
	}
	return "", fmt.Errorf("aim: unknown label mode %q", s)
}

// StencilConfig configures the track stencil. Widths are millimetres.
type StencilConfig struct {
	TrackWidth     float64
	RailWidth      float64
	HairToMidpoint int
	Mode           LabelMode
}

// Circle is a ring with a crosshair whose hairs stop short of the center.
type Circle struct {
	Center geometry.ImagePoint
	Radius int
	Left   Segment
	Top    Segment
	Right  Segment
	Bottom Segment
}

// Segments returns the four hairs.
func (c Circle) Segments() []Segment {
	return []Segment{c.Left, c.Top, c.Right, c.Bottom}
}

// TrackStencil proposes a pair of rail marks for the cursor position.
type TrackStencil struct {
	cfg StencilConfig
	cam scene.Projector

	aim  scene.RailSide
	mode LabelMode

	widthCorrection int
	angleCorrection int

	LeftPoint   geometry.ImagePoint
	RightPoint  geometry.ImagePoint
	LeftCircle  Circle
	RightCircle Circle
	CenterLine  Segment
}

// NewTrackStencil aims at the left rail. An empty mode means independent.
func NewTrackStencil(cfg StencilConfig, cam scene.Projector) *TrackStencil {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeIndependent
	}
	s := &TrackStencil{cfg: cfg, cam: cam, aim: scene.Left, mode: mode}
	s.LeftCircle = s.circle(geometry.ImagePoint{}, 1)
	s.RightCircle = s.circle(geometry.ImagePoint{}, 1)
	return s
}

// Aim returns the rail that follows the cursor.
func (s *TrackStencil) Aim() scene.RailSide { return s.aim }

// Toggle swaps the aimed rail.
func (s *TrackStencil) Toggle() { s.aim = s.aim.Opposite() }

// Mode returns the label mode.
func (s *TrackStencil) Mode() LabelMode { return s.mode }

// SetMode changes the label mode.
func (s *TrackStencil) SetMode(m LabelMode) { s.mode = m }

// IncrWidth widens the derived rail offset by px pixels.
func (s *TrackStencil) IncrWidth(px int) { s.widthCorrection += px }

// IncrAngle turns the derived rail around the aimed one by degrees.
func (s *TrackStencil) IncrAngle(deg int) { s.angleCorrection += deg }

// Corrections returns the accumulated width and angle corrections.
func (s *TrackStencil) Corrections() (width, angle int) {
	return s.widthCorrection, s.angleCorrection
}

// ResetCorrections clears width and angle corrections.
func (s *TrackStencil) ResetCorrections() {
	s.widthCorrection, s.angleCorrection = 0, 0
}

// Point returns the candidate mark for a side.
func (s *TrackStencil) Point(side scene.RailSide) geometry.ImagePoint {
	if side == scene.Left {
		return s.LeftPoint
	}
	return s.RightPoint
}

// Points returns the left and right candidate marks.
func (s *TrackStencil) Points() []geometry.ImagePoint {
	return []geometry.ImagePoint{s.LeftPoint, s.RightPoint}
}

// Refresh recomputes the candidate marks for a cursor position.
func (s *TrackStencil) Refresh(pos geometry.ImagePoint) {
	radius := s.railWidthAt(pos) / 2

	if s.mode != ModeSidePoint {
		s.LeftPoint, s.RightPoint = pos, pos
		s.RightCircle = s.circle(pos, radius)
		s.LeftCircle = s.RightCircle
		return
	}

	gauge := s.cfg.TrackWidth + s.cfg.RailWidth
	if s.aim == scene.Left {
		right := s.pointAt(pos, gauge)
		right.X += s.widthCorrection
		s.LeftPoint = pos
		s.RightPoint = geometry.Rotate(float64(s.angleCorrection), pos, right)
		s.CenterLine = Segment{pos, s.RightPoint}
	} else {
		left := s.pointAt(pos, -gauge)
		left.X -= s.widthCorrection
		s.RightPoint = pos
		s.LeftPoint = geometry.Rotate(float64(s.angleCorrection), pos, left)
		s.CenterLine = Segment{pos, s.LeftPoint}
	}
	s.LeftCircle = s.circle(s.LeftPoint, radius)
	s.RightCircle = s.circle(s.RightPoint, radius)
}

func (s *TrackStencil) pointAt(pos geometry.ImagePoint, d float64) geometry.ImagePoint {
	p, err := s.cam.PointFromDistance(pos, d, geometry.AxisX)
	if err != nil {
		return pos
	}
	return p
}

// railWidthAt is the rail head width in pixels at pos, at least one.
func (s *TrackStencil) railWidthAt(pos geometry.ImagePoint) int {
	w := s.pointAt(pos, s.cfg.RailWidth).X - pos.X
	if w < 0 {
		w = -w
	}
	return max(1, w)
}

func (s *TrackStencil) circle(center geometry.ImagePoint, radius int) Circle {
	buffer := min(s.cfg.HairToMidpoint, radius)
	cx, cy := center.X, center.Y
	return Circle{
		Center: center,
		Radius: radius,
		Left:   Segment{geometry.ImagePoint{X: cx - radius, Y: cy}, geometry.ImagePoint{X: cx - buffer, Y: cy}},
		Top:    Segment{geometry.ImagePoint{X: cx, Y: cy - radius}, geometry.ImagePoint{X: cx, Y: cy - buffer}},
		Right:  Segment{geometry.ImagePoint{X: cx + buffer, Y: cy}, geometry.ImagePoint{X: cx + radius, Y: cy}},
		Bottom: Segment{geometry.ImagePoint{X: cx, Y: cy + buffer}, geometry.ImagePoint{X: cx, Y: cy + radius}},
	}
}
