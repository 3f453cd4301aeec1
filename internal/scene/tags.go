package scene

import (
	"maps"
	"slices"
)

// Tag group names.
const (
	GroupTrackLayout          = "track_layout"
	GroupWeather              = "weather"
	GroupLight                = "light"
	GroupTimeOfDay            = "time_of_day"
	GroupEnvironment          = "environment"
	GroupAdditionalAttributes = "additional_attributes"
)

// GroupNames lists the known tag groups in display order.
var GroupNames = []string{
	GroupTrackLayout,
	GroupWeather,
	GroupLight,
	GroupTimeOfDay,
	GroupEnvironment,
	GroupAdditionalAttributes,
}

// TagGroups holds image level tags. Groups read from a file that are not
// among GroupNames are kept in Extra so they survive a save.
type TagGroups struct {
	TrackLayout          []string
	Weather              []string
	Light                []string
	TimeOfDay            []string
	Environment          []string
	AdditionalAttributes []string

	Extra map[string][]string
}

func (g *TagGroups) field(name string) *[]string {
	switch name {
	case GroupTrackLayout:
		return &g.TrackLayout
	case GroupWeather:
		return &g.Weather
	case GroupLight:
		return &g.Light
	case GroupTimeOfDay:
		return &g.TimeOfDay
	case GroupEnvironment:
		return &g.Environment
	case GroupAdditionalAttributes:
		return &g.AdditionalAttributes
	}
	return nil
}

// Group returns the tags of a group, known or extra.
func (g *TagGroups) Group(name string) []string {
	if f := g.field(name); f != nil {
		return *f
	}
	return g.Extra[name]
}

// SetGroup replaces the tags of a group.
func (g *TagGroups) SetGroup(name string, tags []string) {
	tags = slices.Clone(tags)
	if f := g.field(name); f != nil {
		*f = tags
		return
	}
	if g.Extra == nil {
		g.Extra = make(map[string][]string)
	}
	g.Extra[name] = tags
}

// Has reports whether a group contains tag.
func (g *TagGroups) Has(group, tag string) bool {
	return slices.Contains(g.Group(group), tag)
}

// Names returns the known groups followed by the sorted extra groups.
func (g *TagGroups) Names() []string {
	names := slices.Clone(GroupNames)
	return append(names, slices.Sorted(maps.Keys(g.Extra))...)
}

// Map returns every group keyed by name. Empty groups are present.
func (g *TagGroups) Map() map[string][]string {
	out := make(map[string][]string, len(GroupNames)+len(g.Extra))
	for _, name := range g.Names() {
		tags := g.Group(name)
		if tags == nil {
			tags = []string{}
		}
		out[name] = slices.Clone(tags)
	}
	return out
}

// TagGroupsFromMap builds tag groups; missing known groups are empty.
func TagGroupsFromMap(m map[string][]string) TagGroups {
	var g TagGroups
	for name, tags := range m {
		g.SetGroup(name, tags)
	}
	return g
}
