package scene

import (
	"fmt"

	"rail-labeler/pkg/geometry"
)

// Position is the location of a track relative to the ego track.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
	PositionEgo   Position = "ego"
)

// ParsePosition validates a serialized position.
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case PositionLeft, PositionRight, PositionEgo:
		return p, nil
	}
	return "", fmt.Errorf("scene: unknown track position %q", s)
}

// Track is a pair of rails.
type Track struct {
	ID       int
	Position Position
	Left     *Rail
	Right    *Rail
	Selected bool
}

// NewTrack creates a track with two empty rails of the given width.
func NewTrack(id int, pos Position, railWidth float64) *Track {
	return &Track{
		ID:       id,
		Position: pos,
		Left:     NewRail(railWidth),
		Right:    NewRail(railWidth),
	}
}

func (t *Track) String() string {
	return fmt.Sprintf("id=%d, position=%s", t.ID, t.Position)
}

// Rail returns the rail on the given side.
func (t *Track) Rail(side RailSide) *Rail {
	if side == Left {
		return t.Left
	}
	return t.Right
}

// Empty reports whether neither rail has marks.
func (t *Track) Empty() bool {
	return t.Left.Len() == 0 && t.Right.Len() == 0
}

// AddMark adds a mark to each rail.
func (t *Track) AddMark(left, right geometry.ImagePoint) {
	t.Left.AddMark(left)
	t.Right.AddMark(right)
}

// NearestMark finds the closest mark on either rail. The right rail wins
// only when strictly closer. With no mark in range the index is -1 and the
// side is Right.
func (t *Track) NearestMark(pos geometry.ImagePoint) (int, RailSide) {
	li, ld := t.Left.NearestMark(pos)
	ri, rd := t.Right.NearestMark(pos)
	switch {
	case li >= 0 && ri >= 0:
		if rd < ld {
			return ri, Right
		}
		return li, Left
	case li >= 0:
		return li, Left
	}
	return ri, Right
}

// DelMark removes the mark nearest pos if one is in range.
func (t *Track) DelMark(pos geometry.ImagePoint) error {
	idx, side := t.NearestMark(pos)
	if idx < 0 {
		return nil
	}
	_, err := t.Rail(side).DelMark(ByIndex(idx))
	return err
}
