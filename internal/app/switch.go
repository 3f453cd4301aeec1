package app

import (
	"rail-labeler/internal/aim"
	"rail-labeler/internal/render"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

var switchCreateEvents = []struct {
	event EventType
	kind  scene.SwitchKind
	dir   scene.SwitchDirection
}{
	{EventSwitchForkRight, scene.KindFork, scene.DirectionRight},
	{EventSwitchForkLeft, scene.KindFork, scene.DirectionLeft},
	{EventSwitchForkUnknown, scene.KindFork, scene.DirectionUnknown},
	{EventSwitchMergeRight, scene.KindMerge, scene.DirectionRight},
	{EventSwitchMergeLeft, scene.KindMerge, scene.DirectionLeft},
	{EventSwitchMergeUnknown, scene.KindMerge, scene.DirectionUnknown},
	{EventSwitchUnknownLeft, scene.KindUnknown, scene.DirectionLeft},
	{EventSwitchUnknownRight, scene.KindUnknown, scene.DirectionRight},
	{EventSwitchUnknownUnknown, scene.KindUnknown, scene.DirectionUnknown},
}

// SwitchAnnotator edits the switches of a scene with the crosshair.
type SwitchAnnotator struct {
	hub       *Hub
	sc        *scene.Scene
	crossHair *aim.CrossHair
	opts      *render.Options

	width, height int

	active       int
	hasActive    bool
	lastSelected int
}

// NewSwitchAnnotator subscribes a switch annotator to the hub and
// publishes the switch list.
func NewSwitchAnnotator(hub *Hub, sc *scene.Scene, crossHair *aim.CrossHair, opts *render.Options,
	width, height int) *SwitchAnnotator {
	a := &SwitchAnnotator{
		hub:          hub,
		sc:           sc,
		crossHair:    crossHair,
		opts:         opts,
		width:        width,
		height:       height,
		lastSelected: -1,
	}

	hub.Post(EventSwitchListUpdate, switchList(sc, SelectNone))

	hub.Subscribe(EventMouseMove, a, func(d interface{}) {
		if p, ok := asPoint(d); ok {
			a.Refresh(p)
		}
	})
	hub.Subscribe(EventMark, a, func(interface{}) { a.Mark() })
	hub.Subscribe(EventRemove, a, func(interface{}) { a.Remove() })
	for _, c := range switchCreateEvents {
		kind, dir := c.kind, c.dir
		hub.Subscribe(c.event, a, func(interface{}) { a.AddSwitch(kind, dir) })
	}
	hub.Subscribe(EventSwitchDelete, a, func(interface{}) { a.DeleteSwitch() })
	hub.Subscribe(EventSwitchSelect, a, func(d interface{}) { a.Select(asInt(d, -1)) })
	hub.Subscribe(EventSwitchChangeSwitch, a, func(d interface{}) {
		if c, ok := d.(SwitchChange); ok {
			a.Change(c)
		}
	})
	hub.Subscribe(EventSwitchShowMarks, a, a.show(render.SwitchMarks))
	hub.Subscribe(EventSwitchShowBox, a, a.show(render.SwitchBox))
	hub.Subscribe(EventSwitchShowText, a, a.show(render.SwitchText))
	return a
}

// Close drops every subscription of the annotator.
func (a *SwitchAnnotator) Close() {
	a.hub.UnsubscribeAll(a)
}

// Refresh moves the crosshair to the cursor.
func (a *SwitchAnnotator) Refresh(pos geometry.ImagePoint) {
	a.crossHair.Refresh(pos, a.width, a.height)
}

// CrossHair returns the aiming device.
func (a *SwitchAnnotator) CrossHair() *aim.CrossHair { return a.crossHair }

// Cursor is the crosshair center.
func (a *SwitchAnnotator) Cursor() geometry.ImagePoint { return a.crossHair.Center }

func (a *SwitchAnnotator) activeSwitch() (*scene.Switch, bool) {
	if !a.hasActive {
		return nil, false
	}
	return a.sc.Switch(a.active)
}

// Active returns the id of the switch being edited.
func (a *SwitchAnnotator) Active() (int, bool) {
	return a.active, a.hasActive
}

// Mark adds the crosshair center to the active switch.
func (a *SwitchAnnotator) Mark() {
	if sw, ok := a.activeSwitch(); ok {
		sw.AddMark(a.crossHair.Center)
	}
}

// Remove deletes the mark of the active switch nearest the crosshair.
func (a *SwitchAnnotator) Remove() {
	if sw, ok := a.activeSwitch(); ok {
		sw.DelMark(a.crossHair.Center)
	}
}

// AddSwitch creates a switch.
func (a *SwitchAnnotator) AddSwitch(kind scene.SwitchKind, dir scene.SwitchDirection) {
	a.sc.AddSwitch(kind, dir)
	a.hub.Post(EventSwitchListUpdate, switchList(a.sc, SelectNone))
}

// DeleteSwitch removes the active switch.
func (a *SwitchAnnotator) DeleteSwitch() {
	if a.hasActive {
		a.sc.DelSwitch(a.active)
		a.hasActive = false
	}
	a.hub.Post(EventSwitchListUpdate, switchList(a.sc, SelectNone))
}

// Change edits kind and direction of a switch and deselects it.
func (a *SwitchAnnotator) Change(c SwitchChange) {
	if err := a.sc.EditSwitch(c.SwitchID, c.Kind, c.Direction); err != nil {
		return
	}
	if sw, ok := a.sc.Switch(c.SwitchID); ok {
		sw.Selected = false
	}
	a.hub.Post(EventSwitchListUpdate, switchList(a.sc, SelectNone))
}

// Select makes a switch the active one. An unknown id clears the active
// switch.
func (a *SwitchAnnotator) Select(id int) {
	sw, ok := a.sc.Switch(id)
	if !ok {
		a.hasActive = false
		return
	}
	if prev, ok := a.sc.Switch(a.lastSelected); ok {
		prev.Selected = false
	}
	sw.Selected = true
	a.active, a.hasActive = id, true
	a.lastSelected = id
}

func (a *SwitchAnnotator) show(flags render.Options) EventListener {
	return func(data interface{}) {
		if on, ok := asBool(data); ok {
			a.opts.Set(flags, on)
		}
	}
}
