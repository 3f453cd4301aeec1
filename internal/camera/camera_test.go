package camera

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rail-labeler/pkg/geometry"
)

const testCalibration = `%YAML:1.0
---
roll: 0.
pitch: 0.
yaw: 0.
width: 1920
height: 1080
f: 1000.
camera_matrix: !!opencv-matrix
   rows: 3
   cols: 3
   dt: d
   data: [ 1000., 0., 960., 0., 1000., 540., 0., 0., 1. ]
tvec: !!opencv-matrix
   rows: 3
   cols: 1
   dt: d
   data: [ 0., -2000., 0. ]
distortion_coefficients: [ 0., 0., 0., 0., 0. ]
`

func testCamera(t *testing.T) *Camera {
	t.Helper()
	cal, err := ParseCalibration([]byte(testCalibration))
	require.NoError(t, err)
	cam, err := New(cal)
	require.NoError(t, err)
	return cam
}

func TestParseCalibration(t *testing.T) {
	cal, err := ParseCalibration([]byte(testCalibration))
	require.NoError(t, err)

	assert.Equal(t, 1920.0, cal.Width)
	assert.Equal(t, 1080.0, cal.Height)
	assert.Equal(t, [3]float64{0, -2000, 0}, cal.Tvec)
	assert.Equal(t, 960.0, cal.CameraMatrix[2])
	assert.Len(t, cal.DistortionCoefficients, 5)
}

func TestParseCalibrationRejectsBadMatrix(t *testing.T) {
	bad := `roll: 0
pitch: 0
yaw: 0
tvec: [0, 0]
camera_matrix: [1, 0, 0, 0, 1, 0, 0, 0, 1]
`
	_, err := ParseCalibration([]byte(bad))
	assert.Error(t, err)

	_, err = ParseCalibration([]byte("roll: 0\n"))
	assert.ErrorContains(t, err, "missing field")
}

func TestLoadCalibration(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCalibration(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrCalibrationNotFound)

	path := filepath.Join(dir, "camera.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCalibration), 0644))
	cam, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, -2000.0, cam.Center().Y)
}

func TestWorldToPixel(t *testing.T) {
	cam := testCamera(t)

	px, ok := cam.WorldToPixel(geometry.WorldPoint{X: 500, Y: 0, Z: 10000})
	require.True(t, ok)
	assert.Equal(t, geometry.ImagePoint{X: 1010, Y: 740}, px)

	_, ok = cam.WorldToPixel(geometry.WorldPoint{X: 0, Y: 0, Z: -100})
	assert.False(t, ok)

	u, v := cam.Project(geometry.WorldPoint{X: 0, Y: 0, Z: -100})
	assert.True(t, math.IsNaN(u))
	assert.True(t, math.IsNaN(v))
}

func TestPixelToWorld(t *testing.T) {
	cam := testCamera(t)

	tests := []struct {
		name  string
		px    geometry.ImagePoint
		world geometry.WorldPoint
	}{
		{"centre near", geometry.ImagePoint{X: 960, Y: 1040}, geometry.WorldPoint{X: 0, Y: 0, Z: 4000}},
		{"left near", geometry.ImagePoint{X: 460, Y: 940}, geometry.WorldPoint{X: -2500, Y: 0, Z: 5000}},
		{"right near", geometry.ImagePoint{X: 1160, Y: 940}, geometry.WorldPoint{X: 1000, Y: 0, Z: 5000}},
		{"right mid", geometry.ImagePoint{X: 1010, Y: 740}, geometry.WorldPoint{X: 500, Y: 0, Z: 10000}},
		{"left mid", geometry.ImagePoint{X: 810, Y: 740}, geometry.WorldPoint{X: -1500, Y: 0, Z: 10000}},
		{"right far", geometry.ImagePoint{X: 1160, Y: 640}, geometry.WorldPoint{X: 4000, Y: 0, Z: 20000}},
		{"left far", geometry.ImagePoint{X: 930, Y: 640}, geometry.WorldPoint{X: -600, Y: 0, Z: 20000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := cam.PixelToWorld(tt.px)
			require.NoError(t, err)
			assert.Equal(t, tt.world, w)

			px, ok := cam.WorldToPixel(w)
			require.True(t, ok)
			assert.Equal(t, tt.px, px)
		})
	}

	// The optical axis is parallel to the ground for this camera.
	_, err := cam.PixelToWorld(geometry.ImagePoint{X: 960, Y: 540})
	assert.ErrorIs(t, err, geometry.ErrParallel)
}

func TestPointFromDistance(t *testing.T) {
	cam := testCamera(t)
	origin := geometry.ImagePoint{X: 960, Y: 740}

	got, err := cam.PointFromDistance(origin, 1435, geometry.AxisX)
	require.NoError(t, err)
	// u is exactly 1103.5 here and is truncated.
	assert.Equal(t, geometry.ImagePoint{X: 1103, Y: 740}, got)

	again, err := cam.PointFromDistance(origin, 1435, geometry.AxisX)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Len(t, cam.byDistance, 1)

	left, err := cam.PointFromDistance(geometry.ImagePoint{X: 100, Y: 900}, 1567, geometry.AxisX)
	require.NoError(t, err)
	// (-4778, 0, 5556) shifted to x=-3211 projects to (382.07, 899.97).
	assert.Equal(t, geometry.ImagePoint{X: 382, Y: 899}, left)

	// Moving behind the ground origin returns the input pixel.
	got, err = cam.PointFromDistance(origin, -20000, geometry.AxisZ)
	require.NoError(t, err)
	assert.Equal(t, origin, got)

	_, err = cam.PointFromDistance(origin, 1, geometry.Axis("q"))
	assert.ErrorIs(t, err, ErrInvalidAxis)
}
