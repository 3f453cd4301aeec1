package scene

import (
	"fmt"
	"maps"
	"slices"
)

// Scene is the annotation state of one image.
type Scene struct {
	Tags TagGroups

	tracks   map[int]*Track
	switches map[int]*Switch
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		tracks:   make(map[int]*Track),
		switches: make(map[int]*Switch),
	}
}

func nextID[T any](m map[int]T) int {
	if len(m) == 0 {
		return 0
	}
	return slices.Max(slices.Collect(maps.Keys(m))) + 1
}

// AddTrack creates a track with the next free id. Several EGO tracks may
// coexist at this level.
func (s *Scene) AddTrack(pos Position, railWidth float64) *Track {
	t := NewTrack(nextID(s.tracks), pos, railWidth)
	s.tracks[t.ID] = t
	return t
}

// PutTrack stores a track under its own id, replacing any previous one.
func (s *Scene) PutTrack(t *Track) {
	s.tracks[t.ID] = t
}

// DelTrack removes a track. Unknown ids are ignored.
func (s *Scene) DelTrack(id int) {
	delete(s.tracks, id)
}

// EditTrack changes the position of a track.
func (s *Scene) EditTrack(id int, pos Position) error {
	t, ok := s.tracks[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoTrack, id)
	}
	t.Position = pos
	return nil
}

// Track looks up a track.
func (s *Scene) Track(id int) (*Track, bool) {
	t, ok := s.tracks[id]
	return t, ok
}

// TrackIDs returns all track ids in ascending order.
func (s *Scene) TrackIDs() []int {
	return slices.Sorted(maps.Keys(s.tracks))
}

// Tracks returns all tracks ordered by id.
func (s *Scene) Tracks() []*Track {
	out := make([]*Track, 0, len(s.tracks))
	for _, id := range s.TrackIDs() {
		out = append(out, s.tracks[id])
	}
	return out
}

// EgoTrack returns the EGO track with the lowest id.
func (s *Scene) EgoTrack() (*Track, bool) {
	for _, t := range s.Tracks() {
		if t.Position == PositionEgo {
			return t, true
		}
	}
	return nil, false
}

// AddSwitch creates a switch with the next free id.
func (s *Scene) AddSwitch(kind SwitchKind, dir SwitchDirection) *Switch {
	sw := NewSwitch(nextID(s.switches), kind, dir)
	s.switches[sw.ID] = sw
	return sw
}

// PutSwitch stores a switch under its own id, replacing any previous one.
func (s *Scene) PutSwitch(sw *Switch) {
	s.switches[sw.ID] = sw
}

// DelSwitch removes a switch. Unknown ids are ignored.
func (s *Scene) DelSwitch(id int) {
	delete(s.switches, id)
}

// EditSwitch changes kind and direction of a switch.
func (s *Scene) EditSwitch(id int, kind SwitchKind, dir SwitchDirection) error {
	sw, ok := s.switches[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSwitch, id)
	}
	sw.Kind = kind
	sw.Direction = dir
	return nil
}

// Switch looks up a switch.
func (s *Scene) Switch(id int) (*Switch, bool) {
	sw, ok := s.switches[id]
	return sw, ok
}

// SwitchIDs returns all switch ids in ascending order.
func (s *Scene) SwitchIDs() []int {
	return slices.Sorted(maps.Keys(s.switches))
}

// Switches returns all switches ordered by id.
func (s *Scene) Switches() []*Switch {
	out := make([]*Switch, 0, len(s.switches))
	for _, id := range s.SwitchIDs() {
		out = append(out, s.switches[id])
	}
	return out
}
