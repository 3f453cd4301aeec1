package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewImagePointRoundsHalfToEven(t *testing.T) {
	assert.Equal(t, ImagePoint{X: 2, Y: 4}, NewImagePoint(2.5, 3.5))
	assert.Equal(t, ImagePoint{X: -2, Y: 1}, NewImagePoint(-2.4, 0.6))
}

func TestImagePointOrdering(t *testing.T) {
	low := ImagePoint{X: 5, Y: 900}
	high := ImagePoint{X: 5, Y: 100}

	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))
	assert.False(t, low.Less(ImagePoint{X: 0, Y: 900}))

	points := []ImagePoint{{1, 10}, {2, 30}, {3, 20}, {4, 30}}
	SortImagePoints(points)
	assert.Equal(t, []ImagePoint{{2, 30}, {4, 30}, {3, 20}, {1, 10}}, points)

	SortImagePointsReverse(points)
	assert.Equal(t, []ImagePoint{{1, 10}, {3, 20}, {2, 30}, {4, 30}}, points)
}

func TestImagePointMidpointAndEdges(t *testing.T) {
	assert.Equal(t, ImagePoint{X: 1, Y: 1}, ImagePoint{1, 1}.Midpoint(ImagePoint{2, 2}))
	assert.Equal(t, ImagePoint{X: 3, Y: -1}, ImagePoint{3, -1}.Midpoint(ImagePoint{4, -2}))
	assert.Equal(t, ImagePoint{X: 5, Y: 10}, ImagePoint{0, 0}.Midpoint(ImagePoint{10, 20}))

	p := ImagePoint{X: 5, Y: 995}
	assert.True(t, p.AtImageBottom(1000))
	assert.False(t, p.AtImageBottom(1010))
	assert.True(t, p.AtImageLeftSide())
	assert.True(t, ImagePoint{X: 1915, Y: 0}.AtImageRightSide(1920))
	assert.False(t, ImagePoint{X: 500, Y: 0}.AtImageSide(1920))

	assert.True(t, ImagePoint{X: -1, Y: 0}.InBounds(100, 100))
	assert.True(t, ImagePoint{X: 100, Y: 100}.InBounds(100, 100))
	assert.False(t, ImagePoint{X: 101, Y: 0}.InBounds(100, 100))
	assert.False(t, ImagePoint{X: 0, Y: -2}.InBounds(100, 100))
}

func TestWorldPointOffset(t *testing.T) {
	w := WorldPoint{X: 10, Y: 0, Z: 5000}

	got, err := w.Offset(AxisX, 33.5)
	require.NoError(t, err)
	assert.Equal(t, WorldPoint{X: 44, Y: 0, Z: 5000}, got)

	got, err = w.Offset(AxisZ, -5000)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Z)

	_, err = w.Offset(Axis("w"), 1)
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestIntersect(t *testing.T) {
	line := Line{P: r3.Vec{Y: 1000}, A: r3.Vec{Y: -1, Z: 1}}
	got, err := Intersect(GroundPlane, line)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
	assert.InDelta(t, 1000, got.Z, 1e-9)

	_, err = Intersect(GroundPlane, Line{P: r3.Vec{Y: 1000}, A: r3.Vec{Z: 1}})
	assert.ErrorIs(t, err, ErrParallel)
}

func TestRotate(t *testing.T) {
	center := ImagePoint{X: 100, Y: 100}

	assert.Equal(t, ImagePoint{X: 110, Y: 100}, Rotate(0, center, ImagePoint{X: 110, Y: 100}))
	assert.Equal(t, ImagePoint{X: 100, Y: 110}, Rotate(90, center, ImagePoint{X: 110, Y: 100}))
	assert.Equal(t, ImagePoint{X: 90, Y: 100}, Rotate(180, center, ImagePoint{X: 110, Y: 100}))
}

func TestInterpolateMarks(t *testing.T) {
	assert.Empty(t, InterpolateMarks(nil, 10))
	assert.Empty(t, InterpolateMarks([]ImagePoint{{1, 1}}, 10))

	marks := []ImagePoint{{100, 900}, {100, 800}}
	got := InterpolateMarks(marks, 15)
	require.Len(t, got, 15)
	assert.Equal(t, marks[0], got[0])
	assert.Equal(t, marks[1], got[len(got)-1])
	for _, p := range got {
		assert.Equal(t, 100, p.X)
	}

	three := []ImagePoint{{100, 900}, {150, 800}, {180, 700}}
	got = InterpolateMarks(three, 10)
	require.Len(t, got, 20)
	assert.Equal(t, three[0], got[0])
	assert.Equal(t, three[1], got[9])
	assert.Equal(t, three[1], got[10])
	assert.Equal(t, three[2], got[19])
}

func TestPointInPolygon(t *testing.T) {
	square := ImagePolygon([]ImagePoint{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	assert.True(t, PointInPolygon(Point2D{X: 5, Y: 5}, square))
	assert.False(t, PointInPolygon(Point2D{X: 15, Y: 5}, square))
	assert.False(t, PointInPolygon(Point2D{X: 5, Y: 5}, square[:2]))
}

func TestCloseToBottomCorner(t *testing.T) {
	outline := []ImagePoint{{300, 995}, {5, 500}}
	got := CloseToBottomCorner(outline, 640, 1000)
	assert.Equal(t, ImagePoint{X: 0, Y: 1000}, got[len(got)-1])

	outline = []ImagePoint{{635, 500}, {300, 995}}
	got = CloseToBottomCorner(outline, 640, 1000)
	assert.Equal(t, ImagePoint{X: 640, Y: 1000}, got[len(got)-1])

	outline = []ImagePoint{{300, 500}, {310, 400}}
	assert.Len(t, CloseToBottomCorner(outline, 640, 1000), 2)
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox([]ImagePoint{{10, 40}, {30, 20}})
	assert.Equal(t, RectInt{X: 10, Y: 20, Width: 20, Height: 20}, box)
	assert.Equal(t, ImagePoint{X: 20, Y: 30}, box.Center())
	assert.Equal(t, RectInt{}, BoundingBox(nil))
}
