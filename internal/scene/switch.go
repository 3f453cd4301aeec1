package scene

import (
	"fmt"
	"slices"

	"rail-labeler/pkg/geometry"
)

// SwitchKind describes whether tracks split or join.
type SwitchKind string

const (
	KindFork    SwitchKind = "fork"
	KindMerge   SwitchKind = "merge"
	KindUnknown SwitchKind = "unknown"
)

// SwitchDirection is the side the diverging track leaves to.
type SwitchDirection string

const (
	DirectionLeft    SwitchDirection = "left"
	DirectionRight   SwitchDirection = "right"
	DirectionUnknown SwitchDirection = "unknown"
)

// SwitchKinds lists every kind in display order.
var SwitchKinds = []SwitchKind{KindFork, KindMerge, KindUnknown}

// SwitchDirections lists every direction in display order.
var SwitchDirections = []SwitchDirection{DirectionLeft, DirectionRight, DirectionUnknown}

func ParseSwitchKind(s string) (SwitchKind, error) {
	k := SwitchKind(s)
	if !slices.Contains(SwitchKinds, k) {
		return "", fmt.Errorf("scene: unknown switch kind %q", s)
	}
	return k, nil
}

func ParseSwitchDirection(s string) (SwitchDirection, error) {
	d := SwitchDirection(s)
	if !slices.Contains(SwitchDirections, d) {
		return "", fmt.Errorf("scene: unknown switch direction %q", s)
	}
	return d, nil
}

// MaxSwitchMarks is the number of corners defining a switch box.
const MaxSwitchMarks = 2

// Switch is a box annotation spanned by up to two marks.
type Switch struct {
	ID        int
	Kind      SwitchKind
	Direction SwitchDirection
	TrackIDs  []int
	Selected  bool

	marks []geometry.ImagePoint
}

// NewSwitch creates a switch. Marks past the second are dropped.
func NewSwitch(id int, kind SwitchKind, dir SwitchDirection, marks ...geometry.ImagePoint) *Switch {
	s := &Switch{ID: id, Kind: kind, Direction: dir}
	for _, m := range marks {
		s.AddMark(m)
	}
	return s
}

func (s *Switch) String() string {
	return fmt.Sprintf("%02d, %s, %s", s.ID, s.Kind, s.Direction)
}

// Marks returns a copy of the marks.
func (s *Switch) Marks() []geometry.ImagePoint { return slices.Clone(s.marks) }

// Len returns the number of marks.
func (s *Switch) Len() int { return len(s.marks) }

// AddMark appends p while fewer than two marks exist.
func (s *Switch) AddMark(p geometry.ImagePoint) bool {
	if len(s.marks) >= MaxSwitchMarks {
		return false
	}
	s.marks = append(s.marks, p)
	return true
}

// DelMark removes the mark closest to p, however far away it is.
func (s *Switch) DelMark(p geometry.ImagePoint) {
	if len(s.marks) == 0 {
		return
	}
	i := closest(s.marks, p)
	s.marks = slices.Delete(s.marks, i, i+1)
}

// ClearMarks removes all marks.
func (s *Switch) ClearMarks() {
	s.marks = nil
}

// BoundingBox returns the box spanned by both marks.
func (s *Switch) BoundingBox() (geometry.RectInt, bool) {
	if len(s.marks) != MaxSwitchMarks {
		return geometry.RectInt{}, false
	}
	return geometry.BoundingBox(s.marks), true
}

// AddTrackIDs associates tracks with the switch.
func (s *Switch) AddTrackIDs(ids ...int) {
	s.TrackIDs = append(s.TrackIDs, ids...)
}

// DelTrackIDs removes every occurrence of the given track ids.
func (s *Switch) DelTrackIDs(ids ...int) {
	s.TrackIDs = slices.DeleteFunc(s.TrackIDs, func(id int) bool {
		return slices.Contains(ids, id)
	})
}
