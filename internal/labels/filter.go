// Package labels converts scene annotations into training labels: YOLO
// boxes for switches, single channel pixel masks for tracks, and YOLO
// boxes back into scenes.
package labels

import (
	"slices"
	"strings"

	"rail-labeler/internal/config"
	"rail-labeler/internal/scene"
)

// TagFilter selects annotations by their image tags. An annotation passes
// when, for every group, all included tags are present and no excluded tag
// is. Filter tags are compared in lower case.
type TagFilter struct {
	included map[string][]string
	excluded map[string][]string
}

// NewTagFilter builds a filter from the configuration section.
func NewTagFilter(f config.Filter) *TagFilter {
	return &TagFilter{included: lowered(f.Included), excluded: lowered(f.Excluded)}
}

func lowered(groups map[string][]string) map[string][]string {
	out := make(map[string][]string, len(groups))
	for g, tags := range groups {
		for _, t := range tags {
			if t = strings.TrimSpace(t); t != "" {
				out[g] = append(out[g], strings.ToLower(t))
			}
		}
	}
	return out
}

// Empty reports whether the filter lets everything through.
func (f *TagFilter) Empty() bool {
	return len(f.included) == 0 && len(f.excluded) == 0
}

// Match applies the filter to the tags of one annotation.
func (f *TagFilter) Match(tags *scene.TagGroups) bool {
	for g, want := range f.included {
		have := tags.Group(g)
		for _, t := range want {
			if !slices.Contains(have, t) {
				return false
			}
		}
	}
	for g, banned := range f.excluded {
		have := tags.Group(g)
		for _, t := range banned {
			if slices.Contains(have, t) {
				return false
			}
		}
	}
	return true
}
