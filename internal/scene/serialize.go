package scene

import (
	"encoding/json"
	"fmt"
	"slices"

	"rail-labeler/pkg/geometry"
)

// DefaultRailWidth is the rail head width in millimetres used when loading
// annotations without a configured width.
const DefaultRailWidth = 67.0

// Struct fields are declared in key order so the encoder output has sorted
// keys throughout.

type sceneDoc struct {
	Switches  map[int]switchDoc   `json:"switches"`
	TagGroups map[string][]string `json:"tag groups"`
	Tracks    map[int]trackDoc    `json:"tracks"`
}

type trackDoc struct {
	LeftRail         railDoc `json:"left rail"`
	RelativePosition string  `json:"relative position"`
	RightRail        railDoc `json:"right rail"`
}

type railDoc struct {
	Points []geometry.ImagePoint `json:"points"`
}

type switchDoc struct {
	Direction string                `json:"direction"`
	Kind      string                `json:"kind"`
	Marks     []geometry.ImagePoint `json:"marks"`
	TrackIDs  []int                 `json:"track_ids"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Marshal encodes the scene as indented JSON with sorted keys.
func (s *Scene) Marshal() ([]byte, error) {
	doc := sceneDoc{
		Switches:  make(map[int]switchDoc, len(s.switches)),
		TagGroups: s.Tags.Map(),
		Tracks:    make(map[int]trackDoc, len(s.tracks)),
	}
	for id, t := range s.tracks {
		doc.Tracks[id] = trackDoc{
			LeftRail:         railDoc{Points: nonNil(t.Left.Marks())},
			RelativePosition: string(t.Position),
			RightRail:        railDoc{Points: nonNil(t.Right.Marks())},
		}
	}
	for id, sw := range s.switches {
		doc.Switches[id] = switchDoc{
			Direction: string(sw.Direction),
			Kind:      string(sw.Kind),
			Marks:     nonNil(sw.Marks()),
			TrackIDs:  nonNil(slices.Clone(sw.TrackIDs)),
		}
	}
	return json.MarshalIndent(doc, "", "    ")
}

// Unmarshal decodes a scene. Rails get railWidth since widths are not
// stored. Missing tag groups are empty and a missing switch table is
// allowed.
func Unmarshal(data []byte, railWidth float64) (*Scene, error) {
	var doc sceneDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}

	s := New()
	s.Tags = TagGroupsFromMap(doc.TagGroups)

	for id, td := range doc.Tracks {
		pos, err := ParsePosition(td.RelativePosition)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", id, err)
		}
		s.tracks[id] = &Track{
			ID:       id,
			Position: pos,
			Left:     NewRail(railWidth, td.LeftRail.Points...),
			Right:    NewRail(railWidth, td.RightRail.Points...),
		}
	}

	for id, sd := range doc.Switches {
		kind, err := ParseSwitchKind(sd.Kind)
		if err != nil {
			return nil, fmt.Errorf("switch %d: %w", id, err)
		}
		dir, err := ParseSwitchDirection(sd.Direction)
		if err != nil {
			return nil, fmt.Errorf("switch %d: %w", id, err)
		}
		// marks past MaxSwitchMarks are dropped
		sw := NewSwitch(id, kind, dir, sd.Marks...)
		sw.TrackIDs = sd.TrackIDs
		s.switches[id] = sw
	}
	return s, nil
}
