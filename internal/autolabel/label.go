package autolabel

import (
	"rail-labeler/internal/scene"
)

// LabelEgo replaces the marks of the scene's EGO track with detected
// rails, creating the track when none exists. Points repeated on a rail
// are dropped. Empty rails leave the scene unchanged and return false.
func LabelEgo(sc *scene.Scene, r Rails, railWidth float64) (*scene.Track, bool) {
	if r.Empty() {
		return nil, false
	}
	t, ok := sc.EgoTrack()
	if !ok {
		t = sc.AddTrack(scene.PositionEgo, railWidth)
	}

	left, right := r.Pixels()
	t.Left = scene.NewRail(t.Left.Width())
	t.Right = scene.NewRail(t.Right.Width())
	for _, p := range left {
		t.Left.AddMark(p)
	}
	for _, p := range right {
		t.Right.AddMark(p)
	}
	return t, true
}
