package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"rail-labeler/internal/config"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

// tenthProjector maps one millimetre to a tenth of a pixel along x.
type tenthProjector struct{}

func (tenthProjector) PointFromDistance(p geometry.ImagePoint, d float64, axis geometry.Axis) (geometry.ImagePoint, error) {
	if axis != geometry.AxisX {
		return p, nil
	}
	return geometry.NewImagePoint(float64(p.X)+d/10, float64(p.Y)), nil
}

func straightTrack(pos scene.Position) *scene.Track {
	t := scene.NewTrack(0, pos, 67)
	t.AddMark(geometry.ImagePoint{X: 100, Y: 900}, geometry.ImagePoint{X: 200, Y: 900})
	t.AddMark(geometry.ImagePoint{X: 100, Y: 700}, geometry.ImagePoint{X: 200, Y: 700})
	return t
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.Has(RailMarks|RailContour|BedContour))
	assert.False(t, opts.Any(RailFill|BedFill|RailSplines))
	assert.True(t, opts.Has(SwitchOptions))

	opts.Toggle(RailFill | BedFill)
	assert.True(t, opts.Has(RailFill|BedFill))
	opts.Toggle(RailFill | BedFill)
	assert.False(t, opts.Any(RailFill|BedFill))

	opts.Set(SwitchText, false)
	assert.False(t, opts.Has(SwitchText))
	assert.True(t, opts.Has(SwitchBox))
}

func TestTrackBedPolygon(t *testing.T) {
	d := NewDrawer(config.Default(), tenthProjector{})
	track := straightTrack(scene.PositionEgo)

	poly := d.TrackBedPolygon(track, 400, 905)
	splines := track.Left.SplinePoints(15)
	require.Len(t, poly, 2*len(splines))

	assert.Equal(t, geometry.ImagePoint{X: 103, Y: 900}, poly[0])
	assert.Equal(t, geometry.ImagePoint{X: 103, Y: 700}, poly[len(splines)-1])
	assert.Equal(t, geometry.ImagePoint{X: 197, Y: 700}, poly[len(splines)])
	assert.Equal(t, geometry.ImagePoint{X: 197, Y: 900}, poly[len(poly)-1])
}

func TestTrackBedPolygonClosesAtCorner(t *testing.T) {
	d := NewDrawer(config.Default(), tenthProjector{})
	track := scene.NewTrack(0, scene.PositionRight, 67)
	track.Left.AddMark(geometry.ImagePoint{X: 100, Y: 900})
	track.Left.AddMark(geometry.ImagePoint{X: 200, Y: 600})
	track.Right.AddMark(geometry.ImagePoint{X: 398, Y: 700})
	track.Right.AddMark(geometry.ImagePoint{X: 210, Y: 600})

	poly := d.TrackBedPolygon(track, 400, 905)
	assert.Equal(t, geometry.ImagePoint{X: 103, Y: 900}, poly[0])
	assert.Equal(t, geometry.ImagePoint{X: 400, Y: 905}, poly[len(poly)-1])
}

func TestDrawMask(t *testing.T) {
	d := NewDrawer(config.Default(), tenthProjector{})

	sc := scene.New()
	sc.PutTrack(straightTrack(scene.PositionEgo))
	left := scene.NewTrack(1, scene.PositionLeft, 67)
	left.AddMark(geometry.ImagePoint{X: 300, Y: 900}, geometry.ImagePoint{X: 380, Y: 900})
	left.AddMark(geometry.ImagePoint{X: 300, Y: 700}, geometry.ImagePoint{X: 380, Y: 700})
	sc.PutTrack(left)

	mask := d.DrawMask(sc, 400, 905)
	defer mask.Close()

	require.Equal(t, 905, mask.Rows())
	require.Equal(t, 400, mask.Cols())
	assert.Equal(t, uint8(config.MaskEgo), mask.GetUCharAt(800, 150))
	assert.Equal(t, uint8(config.MaskEgo), mask.GetUCharAt(800, 100))
	assert.Equal(t, uint8(config.MaskLeft), mask.GetUCharAt(800, 340))
	assert.Equal(t, uint8(0), mask.GetUCharAt(800, 250))
	assert.Equal(t, uint8(0), mask.GetUCharAt(500, 150))
}

func TestDrawSwitchBox(t *testing.T) {
	d := NewDrawer(config.Default(), tenthProjector{})
	sc := scene.New()
	sc.PutSwitch(scene.NewSwitch(0, scene.KindFork, scene.DirectionLeft,
		geometry.ImagePoint{X: 50, Y: 50}, geometry.ImagePoint{X: 150, Y: 120}))

	img := gocv.Zeros(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	d.DrawSwitches(&img, sc, SwitchBox, nil)

	// Fork left is green; OpenCV stores BGR.
	px := img.GetVecbAt(50, 100)
	assert.Equal(t, uint8(0), px[0])
	assert.Equal(t, uint8(255), px[1])
	assert.Equal(t, uint8(0), img.GetVecbAt(85, 100)[1])
}

func TestDrawSwitchBoxFollowsCursor(t *testing.T) {
	d := NewDrawer(config.Default(), tenthProjector{})
	sc := scene.New()
	sc.PutSwitch(scene.NewSwitch(0, scene.KindFork, scene.DirectionLeft, geometry.ImagePoint{X: 50, Y: 50}))

	img := gocv.Zeros(200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()
	d.DrawSwitches(&img, sc, SwitchBox, nil)
	assert.Equal(t, uint8(0), img.GetVecbAt(50, 100)[1])

	cursor := geometry.ImagePoint{X: 150, Y: 120}
	d.DrawSwitches(&img, sc, SwitchBox, &cursor)
	assert.Equal(t, uint8(255), img.GetVecbAt(50, 100)[1])
}

func TestDrawTracksBlendsRails(t *testing.T) {
	d := NewDrawer(config.Default(), tenthProjector{})
	sc := scene.New()
	sc.PutTrack(straightTrack(scene.PositionEgo))

	img := gocv.Zeros(905, 400, gocv.MatTypeCV8UC3)
	defer img.Close()
	d.DrawTracks(&img, sc, RailMarks)

	px := img.GetVecbAt(700, 100)
	assert.Greater(t, px[1], uint8(0))
	assert.Less(t, px[1], uint8(255))
	assert.Equal(t, uint8(0), img.GetVecbAt(800, 150)[1])
}
