package app

import (
	"slices"

	"rail-labeler/internal/scene"
)

var tagEvents = map[EventType]string{
	EventTagTrackLayout: scene.GroupTrackLayout,
	EventTagWeather:     scene.GroupWeather,
	EventTagLight:       scene.GroupLight,
	EventTagTimeOfDay:   scene.GroupTimeOfDay,
	EventTagEnvironment: scene.GroupEnvironment,
	EventTagAdditional:  scene.GroupAdditionalAttributes,
}

// TagAnnotator sets the image tags of a scene. A TAG_* event replaces its
// group with the []string payload.
type TagAnnotator struct {
	hub   *Hub
	sc    *scene.Scene
	known map[string][]string
}

// NewTagAnnotator subscribes a tag annotator and publishes the tag lists.
func NewTagAnnotator(hub *Hub, sc *scene.Scene, known map[string][]string) *TagAnnotator {
	a := &TagAnnotator{hub: hub, sc: sc, known: known}
	for event, group := range tagEvents {
		hub.Subscribe(event, a, func(d interface{}) {
			if tags, ok := asTags(d); ok {
				a.sc.Tags.SetGroup(group, slices.Clone(tags))
			}
		})
	}
	a.Publish()
	return a
}

// Close drops every subscription of the annotator.
func (a *TagAnnotator) Close() {
	a.hub.UnsubscribeAll(a)
}

// Publish posts TAG_ALL_LISTS_UPDATE for the current scene.
func (a *TagAnnotator) Publish() {
	selected := make(map[string][]string, len(scene.GroupNames))
	for _, g := range scene.GroupNames {
		selected[g] = slices.Clone(a.sc.Tags.Group(g))
	}
	a.hub.Post(EventTagAllListsUpdate, TagLists{Known: a.known, Selected: selected})
}
