package app

import (
	"fmt"

	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

// Selection codes carried by list updates besides a target id.
const (
	// SelectNewest asks the list to select its last item.
	SelectNewest = -1
	// SelectNone leaves the list without selection.
	SelectNone = -2
)

// ListItem is one row of a target list. The id is kept next to the label
// so the label never needs to be parsed.
type ListItem struct {
	ID    int
	Label string
}

// ListUpdate is the payload of TRACK_LIST_UPDATE and SWITCH_LIST_UPDATE.
// Selected is a target id, SelectNewest or SelectNone.
type ListUpdate struct {
	Items    []ListItem
	Selected int
}

func trackList(sc *scene.Scene, selected int) ListUpdate {
	tracks := sc.Tracks()
	items := make([]ListItem, len(tracks))
	for i, t := range tracks {
		items[i] = ListItem{ID: t.ID, Label: t.String()}
	}
	return ListUpdate{Items: items, Selected: selected}
}

func switchList(sc *scene.Scene, selected int) ListUpdate {
	switches := sc.Switches()
	items := make([]ListItem, len(switches))
	for i, sw := range switches {
		items[i] = ListItem{ID: sw.ID, Label: sw.String()}
	}
	return ListUpdate{Items: items, Selected: selected}
}

// PositionChange is the payload of TRACK_CHANGE_POSITION.
type PositionChange struct {
	TrackID  int
	Position scene.Position
}

// SwitchChange is the payload of SWITCH_CHANGE_SWITCH.
type SwitchChange struct {
	SwitchID  int
	Kind      scene.SwitchKind
	Direction scene.SwitchDirection
}

// TagLists is the payload of TAG_ALL_LISTS_UPDATE: the known tags per group
// and the tags set on the current image.
type TagLists struct {
	Known    map[string][]string
	Selected map[string][]string
}

// Strategy selects what the mouse annotates.
type Strategy string

const (
	StrategyTrack  Strategy = "TRACK"
	StrategySwitch Strategy = "SWITCH"
)

// ParseStrategy validates a STRATEGY payload.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyTrack, StrategySwitch:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

func asPoint(data interface{}) (geometry.ImagePoint, bool) {
	switch p := data.(type) {
	case geometry.ImagePoint:
		return p, true
	case *geometry.ImagePoint:
		if p != nil {
			return *p, true
		}
	}
	return geometry.ImagePoint{}, false
}

func asInt(data interface{}, fallback int) int {
	if v, ok := data.(int); ok {
		return v
	}
	return fallback
}

func asBool(data interface{}) (bool, bool) {
	v, ok := data.(bool)
	return v, ok
}

func asTags(data interface{}) ([]string, bool) {
	v, ok := data.([]string)
	return v, ok
}
