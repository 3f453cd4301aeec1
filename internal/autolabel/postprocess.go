package autolabel

import (
	"image"
	"image/color"
	"math"
	"slices"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"rail-labeler/pkg/geometry"
)

// Rails are the left and right rail of one track, ordered from the image
// bottom upwards. Coordinates are normalized until ScaleRails is applied.
type Rails struct {
	Left, Right []geometry.Point2D
}

// Empty reports whether either rail has no points.
func (r Rails) Empty() bool {
	return len(r.Left) == 0 || len(r.Right) == 0
}

// Pixels rounds both rails to image points.
func (r Rails) Pixels() (left, right []geometry.ImagePoint) {
	return pixels(r.Left), pixels(r.Right)
}

func pixels(points []geometry.Point2D) []geometry.ImagePoint {
	out := make([]geometry.ImagePoint, len(points))
	for i, p := range points {
		out[i] = geometry.NewImagePoint(p.X, p.Y)
	}
	return out
}

// anchorRows returns the normalized y of each anchor, 1 at the bottom.
func anchorRows(anchors int) []float64 {
	if anchors == 1 {
		return []float64{1}
	}
	return floats.Span(make([]float64, anchors), 1, 0)
}

// switchedAt returns the first anchor where the left rail is not left of
// the right one, or the rail length.
func switchedAt(left, right []float64) int {
	for i := range left {
		if left[i] >= right[i] {
			return i
		}
	}
	return len(left)
}

func zip(xs, ys []float64) []geometry.Point2D {
	out := make([]geometry.Point2D, len(xs))
	for i := range xs {
		out[i] = geometry.Point2D{X: xs[i], Y: ys[i]}
	}
	return out
}

// ClassificationsToRails converts per anchor column bins into normalized
// rails. Bin value classes marks "no rail"; the rails end at the first
// such anchor or where they cross, whichever comes first.
func ClassificationsToRails(clf [2][]int, classes int) Rails {
	anchors := len(clf[0])
	limit := anchors
	for i := 0; i < anchors; i++ {
		if clf[0][i] == classes || clf[1][i] == classes {
			limit = i
			break
		}
	}

	var x [2][]float64
	for r := range clf {
		x[r] = make([]float64, anchors)
		for i, c := range clf[r] {
			x[r][i] = float64(c) / float64(classes-1)
		}
	}
	end := min(limit, switchedAt(x[0], x[1]))
	rows := anchorRows(anchors)[:end]
	return Rails{Left: zip(x[0][:end], rows), Right: zip(x[1][:end], rows)}
}

// RegressionToRails converts per anchor x positions into normalized rails.
// ylim is the visible share of the anchors; the rails also end where they
// cross.
func RegressionToRails(traj [2][]float64, ylim float64) Rails {
	anchors := len(traj[0])
	limit := int(math.RoundToEven(ylim * float64(anchors)))
	end := max(0, min(limit, switchedAt(traj[0], traj[1]), anchors))

	var x [2][]float64
	for r := range traj {
		x[r] = make([]float64, end)
		for i := 0; i < end; i++ {
			x[r][i] = math.Min(math.Max(traj[r][i], 0), 1)
		}
	}
	rows := anchorRows(anchors)[:end]
	return Rails{Left: zip(x[0], rows), Right: zip(x[1], rows)}
}

// ScaleRails maps normalized rails into the crop region, or into the full
// image when crop is nil.
func ScaleRails(r Rails, crop *CropCoords, width, height int) Rails {
	scale := func(p geometry.Point2D) geometry.Point2D {
		if crop != nil {
			return geometry.Point2D{
				X: p.X*float64(crop.XRight-crop.XLeft) + float64(crop.XLeft),
				Y: p.Y*float64(crop.YBottom-crop.YTop) + float64(crop.YTop),
			}
		}
		return geometry.Point2D{X: p.X * float64(width-1), Y: p.Y * float64(height-1)}
	}
	out := Rails{Left: make([]geometry.Point2D, len(r.Left)), Right: make([]geometry.Point2D, len(r.Right))}
	for i, p := range r.Left {
		out.Left[i] = scale(p)
	}
	for i, p := range r.Right {
		out.Right[i] = scale(p)
	}
	return out
}

// RailsToMask fills the area between pixel rails with 255 in a single
// channel image. Empty rails give an empty mask.
func RailsToMask(r Rails, width, height int) gocv.Mat {
	mask := gocv.Zeros(height, width, gocv.MatTypeCV8UC1)
	if r.Empty() {
		return mask
	}
	left, right := r.Pixels()
	slices.Reverse(right)

	poly := make([]image.Point, 0, len(left)+len(right))
	for _, p := range append(left, right...) {
		poly = append(poly, p.Image())
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer pv.Close()
	gocv.FillPoly(&mask, pv, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return mask
}

// ScaleMask resizes a network mask to the crop region pasted into an empty
// image, or to the full image when crop is nil.
func ScaleMask(mask gocv.Mat, crop *CropCoords, width, height int) gocv.Mat {
	if crop == nil {
		out := gocv.NewMat()
		gocv.Resize(mask, &out, image.Pt(width, height), 0, 0, gocv.InterpolationNearestNeighbor)
		return out
	}

	rect := crop.Rect()
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mask, &resized, rect.Size(), 0, 0, gocv.InterpolationNearestNeighbor)

	out := gocv.Zeros(height, width, gocv.MatTypeCV8UC1)
	region := out.Region(rect.Intersect(image.Rect(0, 0, width, height)))
	defer region.Close()
	if region.Cols() == resized.Cols() && region.Rows() == resized.Rows() {
		resized.CopyTo(&region)
	}
	return out
}

// MaskToRails samples the outer edges of a track mask on anchors rows from
// the image bottom upwards. Sampling stops at the first row without track
// pixels once the track has been found.
func MaskToRails(mask gocv.Mat, anchors int) Rails {
	rows, cols := mask.Rows(), mask.Cols()
	data := mask.ToBytes()
	var r Rails
	if rows == 0 || cols == 0 || anchors < 1 {
		return r
	}
	for _, fy := range anchorRows(anchors) {
		y := int(math.RoundToEven(fy * float64(rows-1)))
		row := data[y*cols : (y+1)*cols]
		first := slices.IndexFunc(row, func(v byte) bool { return v > 0 })
		if first < 0 {
			if len(r.Left) > 0 {
				break
			}
			continue
		}
		last := cols - 1
		for row[last] == 0 {
			last--
		}
		r.Left = append(r.Left, geometry.Point2D{X: float64(first), Y: float64(y)})
		r.Right = append(r.Right, geometry.Point2D{X: float64(last), Y: float64(y)})
	}
	return r
}
