// Package render draws annotation overlays and export masks with OpenCV.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"rail-labeler/internal/aim"
	"rail-labeler/internal/config"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/colorutil"
	"rail-labeler/pkg/geometry"
)

const (
	defaultSwitchMarkRadius = 5
	defaultBoxThickness     = 2
)

// Drawer renders scenes using the configured target styles.
type Drawer struct {
	cfg *config.Config
	cam scene.Projector
}

// NewDrawer creates a drawer for one camera.
func NewDrawer(cfg *config.Config, cam scene.Projector) *Drawer {
	return &Drawer{cfg: cfg, cam: cam}
}

// railColors are the per-part colors of one track draw call.
type railColors struct {
	marks, splines, contour, fill color.RGBA
}

type bedColors struct {
	contour, fill color.RGBA
}

// DrawScene draws tracks in drawing order and then all switches. cursor,
// when set, closes the box of a switch that has only one mark.
func (d *Drawer) DrawScene(img *gocv.Mat, sc *scene.Scene, opts Options, cursor *geometry.ImagePoint) {
	d.DrawTracks(img, sc, opts)
	d.DrawSwitches(img, sc, opts, cursor)
}

// DrawTracks draws every track part listed in the drawing order.
func (d *Drawer) DrawTracks(img *gocv.Mat, sc *scene.Scene, opts Options) {
	for _, step := range d.cfg.Targets.Tracks.DrawingOrder {
		for _, t := range sc.Tracks() {
			if t.Position != step.Position {
				continue
			}
			style := d.cfg.TrackStyle(t.Position, t.Selected)
			rc := railColors{
				marks:   style.Rail.MarksColor.RGBA(),
				splines: style.Rail.SplinesColor.RGBA(),
				contour: style.Rail.ContourColor.RGBA(),
				fill:    style.Rail.FillColor.RGBA(),
			}
			bc := bedColors{
				contour: style.TrackBed.ContourColor.RGBA(),
				fill:    style.TrackBed.FillColor.RGBA(),
			}
			blend(img, style.Transparency, func(dst *gocv.Mat) {
				d.drawPart(dst, t, step.Part, rc, bc, opts)
			})
		}
	}
}

// DrawMask renders the filled tracks of a scene into a single channel
// image. Each track uses the export mask value of its position.
func (d *Drawer) DrawMask(sc *scene.Scene, width, height int) gocv.Mat {
	mask := gocv.Zeros(height, width, gocv.MatTypeCV8UC1)
	for _, step := range d.cfg.Targets.Tracks.DrawingOrder {
		for _, t := range sc.Tracks() {
			if t.Position != step.Position {
				continue
			}
			v := d.cfg.TrackStyle(t.Position, false).ExportMaskColor
			gray := color.RGBA{R: v, G: v, B: v, A: 255}
			d.drawPart(&mask, t, step.Part, railColors{fill: gray}, bedColors{fill: gray}, MaskOptions)
		}
	}
	return mask
}

func (d *Drawer) drawPart(img *gocv.Mat, t *scene.Track, part string, rc railColors, bc bedColors, opts Options) {
	switch part {
	case config.PartRails:
		d.drawRails(img, t, rc, opts)
	case config.PartTrackBed:
		d.drawTrackBed(img, t, bc, opts)
	}
}

func (d *Drawer) drawRails(img *gocv.Mat, t *scene.Track, c railColors, opts Options) {
	steps := d.cfg.Targets.Tracks.InterpolationSteps
	rails := []*scene.Rail{t.Right, t.Left}

	if opts.Has(RailFill) {
		for _, r := range rails {
			fillPolygon(img, r.Contour(d.cam, steps), c.fill)
		}
	}
	if opts.Has(RailContour) {
		for _, r := range rails {
			polyline(img, r.Contour(d.cam, steps), c.contour, 1)
		}
	}
	if opts.Has(RailSplines) {
		for _, r := range rails {
			dots(img, r.SplinePoints(steps), r.SplineWidths(d.cam, steps), c.splines)
		}
	}
	if opts.Has(RailMarks) {
		for _, r := range rails {
			dots(img, r.Marks(), r.MarkWidths(d.cam), c.marks)
		}
	}
}

func (d *Drawer) drawTrackBed(img *gocv.Mat, t *scene.Track, c bedColors, opts Options) {
	if !opts.Any(BedContour | BedFill) {
		return
	}
	poly := d.TrackBedPolygon(t, img.Cols(), img.Rows())
	if opts.Has(BedContour) {
		polyline(img, poly, c.contour, 1)
	}
	if opts.Has(BedFill) {
		fillPolygon(img, poly, c.fill)
	}
}

// TrackBedPolygon outlines the area between the rails of a track: the
// inner contour of the left rail from the bottom up followed by the inner
// contour of the right rail from the top down. When the outline runs from
// the image bottom to an image side it is closed through that bottom
// corner.
func (d *Drawer) TrackBedPolygon(t *scene.Track, width, height int) []geometry.ImagePoint {
	steps := d.cfg.Targets.Tracks.InterpolationSteps

	left := t.Left.SplineContourRight(d.cam, steps)
	geometry.SortImagePoints(left)
	right := t.Right.SplineContourLeft(d.cam, steps)
	geometry.SortImagePointsReverse(right)

	poly := append(left, right...)
	return geometry.CloseToBottomCorner(poly, width, height)
}

// DrawSwitches draws the marks, boxes and labels of every switch.
func (d *Drawer) DrawSwitches(img *gocv.Mat, sc *scene.Scene, opts Options, cursor *geometry.ImagePoint) {
	for _, sw := range sc.Switches() {
		d.drawSwitch(img, sw, opts, cursor)
	}
}

func (d *Drawer) drawSwitch(img *gocv.Mat, sw *scene.Switch, opts Options, cursor *geometry.ImagePoint) {
	style := d.cfg.SwitchStyle(sw.Kind, sw.Direction, false)
	boxColor := style.BoxColor
	if sw.Selected {
		boxColor = d.cfg.SwitchStyle(sw.Kind, sw.Direction, true).BoxColor
	}
	marks := sw.Marks()

	if opts.Has(SwitchMarks) {
		radius := style.MarksRadius
		if radius <= 0 {
			radius = defaultSwitchMarkRadius
		}
		for _, m := range marks {
			gocv.Circle(img, m.Image(), radius, style.MarksColor.RGBA(), -1)
		}
	}

	if opts.Has(SwitchBox) {
		thickness := style.BoxThickness
		if thickness <= 0 {
			thickness = defaultBoxThickness
		}
		switch {
		case len(marks) == 2:
			gocv.Rectangle(img, image.Rectangle{Min: marks[0].Image(), Max: marks[1].Image()}.Canon(), boxColor.RGBA(), thickness)
		case len(marks) == 1 && cursor != nil:
			gocv.Rectangle(img, image.Rectangle{Min: marks[0].Image(), Max: cursor.Image()}.Canon(), boxColor.RGBA(), thickness)
		}
	}

	if opts.Has(SwitchText) && len(marks) > 0 {
		org := marks[0]
		if len(marks) == 2 && marks[0].Less(marks[1]) {
			org = marks[1]
		}
		gocv.PutText(img, sw.String(), org.Image(), gocv.FontHersheySimplex, 1.0, boxColor.RGBA(), 2)
	}
}

// DrawStencil draws the two stencil circles with their hairs. In side
// point mode the line joining both rails is drawn too.
func (d *Drawer) DrawStencil(img *gocv.Mat, st *aim.TrackStencil, c colorutil.RGB) {
	thickness := max(1, d.cfg.AimingDevices.TrackStencil.Thickness)
	col := c.RGBA()

	for _, circle := range []aim.Circle{st.LeftCircle, st.RightCircle} {
		gocv.Circle(img, circle.Center.Image(), circle.Radius, col, thickness)
		for _, s := range circle.Segments() {
			gocv.Line(img, s.A.Image(), s.B.Image(), col, thickness)
		}
	}
	if st.Mode() == aim.ModeSidePoint {
		gocv.Line(img, st.CenterLine.A.Image(), st.CenterLine.B.Image(), col, thickness)
	}
}

// DrawCrossHair draws the four hairs of a crosshair.
func (d *Drawer) DrawCrossHair(img *gocv.Mat, ch *aim.CrossHair) {
	s := d.cfg.AimingDevices.CrossHair
	thickness := max(1, s.Thickness)
	for _, seg := range ch.Segments() {
		gocv.Line(img, seg.A.Image(), seg.B.Image(), s.Color.RGBA(), thickness)
	}
}

// blend draws onto img directly, or through a copy mixed back with the
// given transparency.
func blend(img *gocv.Mat, transparency float64, draw func(dst *gocv.Mat)) {
	if transparency <= 0 {
		draw(img)
		return
	}
	overlay := img.Clone()
	defer overlay.Close()
	draw(&overlay)
	gocv.AddWeighted(overlay, 1-transparency, *img, transparency, 0, img)
}

func toPoints(points []geometry.ImagePoint) []image.Point {
	out := make([]image.Point, len(points))
	for i, p := range points {
		out[i] = p.Image()
	}
	return out
}

func fillPolygon(img *gocv.Mat, points []geometry.ImagePoint, c color.RGBA) {
	if len(points) == 0 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{toPoints(points)})
	defer pv.Close()
	gocv.FillPoly(img, pv, c)
}

func polyline(img *gocv.Mat, points []geometry.ImagePoint, c color.RGBA, thickness int) {
	if len(points) == 0 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{toPoints(points)})
	defer pv.Close()
	gocv.Polylines(img, pv, true, c, thickness)
}

// dots draws filled circles whose diameter is the rail width at each point.
func dots(img *gocv.Mat, points []geometry.ImagePoint, widths []int, c color.RGBA) {
	for i, p := range points {
		if i >= len(widths) {
			return
		}
		gocv.Circle(img, p.Image(), widths[i]/2, c, -1)
	}
}
