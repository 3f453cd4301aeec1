package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rail-labeler/internal/aim"
	"rail-labeler/internal/render"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

func newSwitchFixture() (*Hub, *scene.Scene, *ListView, *SwitchAnnotator, *render.Options) {
	hub := NewHub()
	sc := scene.New()
	opts := render.DefaultOptions()
	list := NewSwitchListView(hub)
	a := NewSwitchAnnotator(hub, sc, aim.NewCrossHair(aim.CrossHairConfig{MidPointBuffer: 0.005}), &opts, 1000, 800)
	return hub, sc, list, a, &opts
}

func TestSwitchCreateEvents(t *testing.T) {
	hub, sc, list, _, _ := newSwitchFixture()
	for _, c := range switchCreateEvents {
		hub.Post(c.event, nil)
	}
	switches := sc.Switches()
	require.Len(t, switches, len(switchCreateEvents))
	for i, c := range switchCreateEvents {
		assert.Equal(t, c.kind, switches[i].Kind, c.event.String())
		assert.Equal(t, c.dir, switches[i].Direction, c.event.String())
	}
	assert.Len(t, list.Items(), len(switchCreateEvents))
	assert.Equal(t, SelectNone, list.Selected())
}

func TestSwitchMarksCapped(t *testing.T) {
	hub, sc, _, a, _ := newSwitchFixture()
	hub.Post(EventSwitchForkLeft, nil)
	hub.Post(EventSwitchSelect, 0)
	id, ok := a.Active()
	require.True(t, ok)
	sw, _ := sc.Switch(id)
	assert.True(t, sw.Selected)

	for _, p := range []geometry.ImagePoint{pt(10, 20), pt(90, 120), pt(500, 500)} {
		hub.Post(EventMouseMove, p)
		hub.Post(EventMark, nil)
	}
	assert.Equal(t, []geometry.ImagePoint{pt(10, 20), pt(90, 120)}, sw.Marks())
	assert.Equal(t, pt(500, 500), a.Cursor())

	hub.Post(EventMouseMove, pt(80, 100))
	hub.Post(EventRemove, nil)
	assert.Equal(t, []geometry.ImagePoint{pt(10, 20)}, sw.Marks())
}

func TestSwitchMarkWithoutSelection(t *testing.T) {
	hub, sc, _, _, _ := newSwitchFixture()
	hub.Post(EventSwitchMergeRight, nil)
	hub.Post(EventMouseMove, pt(10, 20))
	hub.Post(EventMark, nil)
	sw, _ := sc.Switch(0)
	assert.Zero(t, sw.Len())
}

func TestSwitchSelectMovesHighlight(t *testing.T) {
	hub, sc, _, a, _ := newSwitchFixture()
	hub.Post(EventSwitchForkLeft, nil)
	hub.Post(EventSwitchForkRight, nil)
	first, _ := sc.Switch(0)
	second, _ := sc.Switch(1)

	a.Select(0)
	a.Select(1)
	assert.False(t, first.Selected)
	assert.True(t, second.Selected)

	a.Select(7)
	_, ok := a.Active()
	assert.False(t, ok)
}

func TestSwitchChangeAndDelete(t *testing.T) {
	hub, sc, list, a, _ := newSwitchFixture()
	hub.Post(EventSwitchUnknownUnknown, nil)
	a.Select(0)

	hub.Post(EventSwitchChangeSwitch, SwitchChange{SwitchID: 0, Kind: scene.KindMerge, Direction: scene.DirectionLeft})
	sw, ok := sc.Switch(0)
	require.True(t, ok)
	assert.Equal(t, scene.KindMerge, sw.Kind)
	assert.Equal(t, scene.DirectionLeft, sw.Direction)
	assert.False(t, sw.Selected)
	assert.Equal(t, SelectNone, list.Selected())

	hub.Post(EventSwitchChangeSwitch, SwitchChange{SwitchID: 3, Kind: scene.KindFork})
	assert.Len(t, sc.Switches(), 1)

	hub.Post(EventSwitchDelete, nil)
	assert.Empty(t, sc.Switches())
	assert.Empty(t, list.Items())
	_, ok = a.Active()
	assert.False(t, ok)
}

func TestSwitchShowToggles(t *testing.T) {
	hub, _, _, _, opts := newSwitchFixture()
	hub.Post(EventSwitchShowBox, false)
	assert.False(t, opts.Has(render.SwitchBox))
	hub.Post(EventSwitchShowText, true)
	assert.True(t, opts.Has(render.SwitchText))
}

func TestTagAnnotatorSetsGroups(t *testing.T) {
	hub := NewHub()
	sc := scene.New()
	var lists []TagLists
	hub.Subscribe(EventTagAllListsUpdate, t, func(d interface{}) { lists = append(lists, d.(TagLists)) })
	known := map[string][]string{scene.GroupWeather: {"rain", "snow"}}

	a := NewTagAnnotator(hub, sc, known)
	require.Len(t, lists, 1)
	assert.Equal(t, known, lists[0].Known)
	assert.Len(t, lists[0].Selected, len(scene.GroupNames))

	tags := []string{"rain"}
	hub.Post(EventTagWeather, tags)
	tags[0] = "snow"
	assert.Equal(t, []string{"rain"}, sc.Tags.Group(scene.GroupWeather))

	a.Publish()
	require.Len(t, lists, 2)
	assert.Equal(t, []string{"rain"}, lists[1].Selected[scene.GroupWeather])

	a.Close()
	hub.Post(EventTagWeather, []string{"fog"})
	assert.Equal(t, []string{"rain"}, sc.Tags.Group(scene.GroupWeather))
}
