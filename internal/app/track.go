package app

import (
	"log"

	"rail-labeler/internal/aim"
	"rail-labeler/internal/config"
	"rail-labeler/internal/render"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/colorutil"
	"rail-labeler/pkg/geometry"
)

// HoverDistance is how close the cursor must be to a mark to grab it.
const HoverDistance = 5.0

// TrackAnnotator edits the tracks of a scene with the track stencil.
type TrackAnnotator struct {
	hub     *Hub
	sc      *scene.Scene
	stencil *aim.TrackStencil
	opts    *render.Options

	width, height int
	railWidth     float64
	color         colorutil.RGB
	dragColor     colorutil.RGB

	cursor       geometry.ImagePoint
	active       int
	hasActive    bool
	lastSelected int
	drag         DragState
}

// NewTrackAnnotator subscribes a track annotator to the hub and publishes
// the track list. The stencil and draw options are owned by the caller and
// outlive the annotator.
func NewTrackAnnotator(hub *Hub, sc *scene.Scene, stencil *aim.TrackStencil, opts *render.Options,
	cfg *config.Config, width, height int) *TrackAnnotator {
	a := &TrackAnnotator{
		hub:          hub,
		sc:           sc,
		stencil:      stencil,
		opts:         opts,
		width:        width,
		height:       height,
		railWidth:    cfg.Data.RailWidth,
		color:        cfg.AimingDevices.TrackStencil.Color,
		dragColor:    cfg.AimingDevices.TrackStencil.DragColor,
		lastSelected: -1,
		drag:         Idle{},
	}
	if a.railWidth <= 0 {
		a.railWidth = scene.DefaultRailWidth
	}
	stencil.ResetCorrections()

	hub.Post(EventTrackListUpdate, trackList(sc, SelectNone))

	hub.Subscribe(EventMouseMove, a, a.onMouseMove)
	hub.Subscribe(EventMark, a, func(interface{}) { a.Mark() })
	hub.Subscribe(EventRemove, a, func(interface{}) { a.Remove() })
	hub.Subscribe(EventTrackCreateEgo, a, func(interface{}) { a.AddTrack(scene.PositionEgo) })
	hub.Subscribe(EventTrackCreateLeft, a, func(interface{}) { a.AddTrack(scene.PositionLeft) })
	hub.Subscribe(EventTrackCreateRight, a, func(interface{}) { a.AddTrack(scene.PositionRight) })
	hub.Subscribe(EventTrackDelete, a, func(interface{}) { a.DeleteTrack() })
	hub.Subscribe(EventTrackSelect, a, func(d interface{}) { a.Select(asInt(d, -1)) })
	hub.Subscribe(EventTrackChangePosition, a, a.onChangePosition)
	hub.Subscribe(EventTrackMarks, a, a.show(render.RailMarks))
	hub.Subscribe(EventTrackSplines, a, a.show(render.RailSplines))
	hub.Subscribe(EventTrackContour, a, a.show(render.RailContour|render.BedContour))
	hub.Subscribe(EventTrackFill, a, a.show(render.RailFill|render.BedFill))
	hub.Subscribe(EventTrackWidthIncr, a, func(d interface{}) { a.WidthKey(asInt(d, 1), scene.Right) })
	hub.Subscribe(EventTrackWidthDecr, a, func(d interface{}) { a.WidthKey(asInt(d, -1), scene.Left) })
	hub.Subscribe(EventTrackAngleIncr, a, func(d interface{}) { stencil.IncrAngle(asInt(d, -1)) })
	hub.Subscribe(EventTrackAngleDecr, a, func(d interface{}) { stencil.IncrAngle(asInt(d, 1)) })
	hub.Subscribe(EventTrackStencilSide, a, func(interface{}) { stencil.Toggle() })
	hub.Subscribe(EventIndependentMode, a, func(interface{}) { a.ToggleMode() })
	hub.Subscribe(EventDrag, a, func(d interface{}) {
		if p, ok := asPoint(d); ok {
			a.Drag(p)
		}
	})
	hub.Subscribe(EventDrop, a, func(d interface{}) {
		if p, ok := asPoint(d); ok {
			a.Drop(p)
		}
	})
	return a
}

// Close drops every subscription of the annotator.
func (a *TrackAnnotator) Close() {
	a.hub.UnsubscribeAll(a)
}

func (a *TrackAnnotator) onMouseMove(data interface{}) {
	if p, ok := asPoint(data); ok {
		a.Refresh(p)
	}
}

// Refresh moves the stencil to the cursor.
func (a *TrackAnnotator) Refresh(pos geometry.ImagePoint) {
	a.cursor = pos
	a.stencil.Refresh(pos)
}

func (a *TrackAnnotator) activeTrack() (*scene.Track, bool) {
	if !a.hasActive {
		return nil, false
	}
	return a.sc.Track(a.active)
}

// Active returns the id of the track being edited.
func (a *TrackAnnotator) Active() (int, bool) {
	return a.active, a.hasActive
}

// Mark adds the stencil points to the active track in side point mode when
// at least one of them lies on the image.
func (a *TrackAnnotator) Mark() {
	t, ok := a.activeTrack()
	if !ok || a.stencil.Mode() != aim.ModeSidePoint {
		return
	}
	left, right := a.stencil.Point(scene.Left), a.stencil.Point(scene.Right)
	if left.InBounds(a.width, a.height) || right.InBounds(a.width, a.height) {
		t.AddMark(left, right)
	}
}

// WidthKey handles the width keys. In side point mode delta widens the
// stencil. In independent mode the stencil point is added to the rail on
// the given side.
func (a *TrackAnnotator) WidthKey(delta int, side scene.RailSide) {
	if a.stencil.Mode() == aim.ModeSidePoint {
		a.stencil.IncrWidth(delta)
		return
	}
	t, ok := a.activeTrack()
	if !ok {
		return
	}
	if p := a.stencil.Point(side); p.InBounds(a.width, a.height) {
		t.Rail(side).AddMark(p)
	}
}

// Remove deletes marks under the stencil. In side point mode the mark
// nearest the aimed point goes, together with its partner when it was on
// the aimed rail.
func (a *TrackAnnotator) Remove() {
	t, ok := a.activeTrack()
	if !ok || t.Empty() {
		return
	}
	if a.stencil.Mode() != aim.ModeSidePoint {
		if err := t.DelMark(a.stencil.Point(scene.Left)); err != nil {
			log.Printf("Failed to remove mark on %s: %v", t, err)
		}
		return
	}
	lead := a.stencil.Aim()
	idx, side := t.NearestMark(a.stencil.Point(lead))
	if err := t.DelMark(a.stencil.Point(lead)); err != nil {
		log.Printf("Failed to remove mark on %s: %v", t, err)
		return
	}
	if idx >= 0 && side == lead {
		if err := t.DelMark(a.stencil.Point(lead.Opposite())); err != nil {
			log.Printf("Failed to remove partner mark on %s: %v", t, err)
		}
	}
}

// AddTrack creates a track. A second EGO track is refused.
func (a *TrackAnnotator) AddTrack(pos scene.Position) {
	if pos == scene.PositionEgo {
		if _, ok := a.sc.EgoTrack(); ok {
			return
		}
	}
	a.sc.AddTrack(pos, a.railWidth)
	a.hub.Post(EventTrackListUpdate, trackList(a.sc, SelectNewest))
}

// DeleteTrack removes the active track.
func (a *TrackAnnotator) DeleteTrack() {
	if a.hasActive {
		a.sc.DelTrack(a.active)
		a.hasActive = false
	}
	a.hub.Post(EventTrackListUpdate, trackList(a.sc, SelectNone))
}

// Select makes a track the active one. An unknown id clears the active
// track.
func (a *TrackAnnotator) Select(id int) {
	t, ok := a.sc.Track(id)
	if !ok {
		a.hasActive = false
		return
	}
	if prev, ok := a.sc.Track(a.lastSelected); ok {
		prev.Selected = false
	}
	t.Selected = true
	a.active, a.hasActive = id, true
	a.lastSelected = id
}

func (a *TrackAnnotator) onChangePosition(data interface{}) {
	c, ok := data.(PositionChange)
	if !ok {
		return
	}
	if err := a.sc.EditTrack(c.TrackID, c.Position); err != nil {
		return
	}
	a.hub.Post(EventTrackListUpdate, trackList(a.sc, c.TrackID))
}

func (a *TrackAnnotator) show(flags render.Options) EventListener {
	return func(data interface{}) {
		if on, ok := asBool(data); ok {
			a.opts.Set(flags, on)
		}
	}
}

// ToggleMode switches between side point and independent mode unless a
// mark is being dragged.
func (a *TrackAnnotator) ToggleMode() {
	if _, dragging := a.drag.(Dragging); dragging {
		return
	}
	if a.stencil.Mode() == aim.ModeSidePoint {
		a.stencil.SetMode(aim.ModeIndependent)
	} else {
		a.stencil.SetMode(aim.ModeSidePoint)
	}
	a.stencil.Refresh(a.cursor)
}

// HoveringMark reports whether a mark of the active track lies within
// HoverDistance of pos.
func (a *TrackAnnotator) HoveringMark(pos geometry.ImagePoint) bool {
	t, ok := a.activeTrack()
	if !ok {
		return false
	}
	for _, r := range []*scene.Rail{t.Left, t.Right} {
		for _, m := range r.Marks() {
			if m.Distance(pos) <= HoverDistance {
				return true
			}
		}
	}
	return false
}

// DragState returns the current relocation state.
func (a *TrackAnnotator) DragState() DragState { return a.drag }

// StencilColor is the stencil color, which changes while dragging.
func (a *TrackAnnotator) StencilColor() colorutil.RGB {
	if _, dragging := a.drag.(Dragging); dragging {
		return a.dragColor
	}
	return a.color
}

// Stencil returns the aiming device.
func (a *TrackAnnotator) Stencil() *aim.TrackStencil { return a.stencil }

// Drag lifts the mark nearest pos off the active track. In side point mode,
// when the lifted mark is on the aimed rail, the opposite mark under the
// stencil is lifted with it.
func (a *TrackAnnotator) Drag(pos geometry.ImagePoint) {
	t, ok := a.activeTrack()
	if !ok {
		return
	}
	if _, dragging := a.drag.(Dragging); dragging {
		return
	}
	a.Refresh(pos)

	idx, side := t.NearestMark(pos)
	if idx < 0 {
		return
	}
	mark := t.Rail(side).Marks()[idx]
	if _, err := t.Rail(side).DelMark(scene.ByIndex(idx)); err != nil {
		return
	}
	d := Dragging{TrackID: t.ID, Side: side, Index: idx, Mark: mark, PairIndex: -1}

	if a.stencil.Mode() == aim.ModeSidePoint && a.stencil.Aim() == side {
		opposite := side.Opposite()
		pi, ps := t.NearestMark(a.stencil.Point(opposite))
		if pi >= 0 && ps == opposite {
			pair := t.Rail(opposite).Marks()[pi]
			if _, err := t.Rail(opposite).DelMark(scene.ByIndex(pi)); err == nil {
				d.PairIndex, d.PairMark = pi, pair
			}
		}
	}
	a.drag = d
}

// Drop puts a dragged mark back at its original index at pos. A lifted
// opposite mark goes back at the stencil's opposite point. A mark whose
// target pixel is already marked returns to where it was lifted from.
// Without a pending drag it does nothing.
func (a *TrackAnnotator) Drop(pos geometry.ImagePoint) {
	d, ok := a.drag.(Dragging)
	a.drag = Idle{}
	if !ok {
		return
	}
	t, ok := a.sc.Track(d.TrackID)
	if !ok {
		return
	}
	a.Refresh(pos)

	if !t.Rail(d.Side).InsertMark(d.Index, pos) {
		t.Rail(d.Side).InsertMark(d.Index, d.Mark)
	}
	if d.PairIndex >= 0 {
		opposite := d.Side.Opposite()
		if !t.Rail(opposite).InsertMark(d.PairIndex, a.stencil.Point(opposite)) {
			t.Rail(opposite).InsertMark(d.PairIndex, d.PairMark)
		}
	}
}
