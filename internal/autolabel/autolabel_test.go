package autolabel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

func assertPoints(t *testing.T, want, got []geometry.Point2D) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-9, "x of point %d", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-9, "y of point %d", i)
	}
}

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func TestClassificationsToRails(t *testing.T) {
	clf := [2][]int{{0, 1, 2, 3}, {2, 2, 2, 2}}
	r := ClassificationsToRails(clf, 3)

	// anchor 3 holds "no rail", the rails cross at anchor 2
	assertPoints(t, []geometry.Point2D{pt(0, 1), pt(0.5, 2.0/3)}, r.Left)
	assertPoints(t, []geometry.Point2D{pt(1, 1), pt(1, 2.0/3)}, r.Right)
}

func TestClassificationsWithoutRail(t *testing.T) {
	r := ClassificationsToRails([2][]int{{3, 0}, {1, 1}}, 3)
	assert.True(t, r.Empty())
}

func TestRegressionToRails(t *testing.T) {
	traj := [2][]float64{{-0.2, 0.2, 0.3, 0.4}, {0.5, 0.6, 1.5, 0.2}}

	r := RegressionToRails(traj, 0.5)
	assertPoints(t, []geometry.Point2D{pt(0, 1), pt(0.2, 2.0/3)}, r.Left)
	assertPoints(t, []geometry.Point2D{pt(0.5, 1), pt(0.6, 2.0/3)}, r.Right)

	r = RegressionToRails(traj, 1)
	require.Len(t, r.Right, 3)
	assert.Equal(t, 1.0, r.Right[2].X)
}

func TestScaleRails(t *testing.T) {
	r := Rails{Left: []geometry.Point2D{pt(0.5, 1)}, Right: []geometry.Point2D{pt(1, 0)}}

	full := ScaleRails(r, nil, 101, 51)
	assertPoints(t, []geometry.Point2D{pt(50, 50)}, full.Left)
	assertPoints(t, []geometry.Point2D{pt(100, 0)}, full.Right)

	cropped := ScaleRails(r, &CropCoords{XLeft: 10, YTop: 20, XRight: 110, YBottom: 70}, 200, 100)
	assertPoints(t, []geometry.Point2D{pt(60, 70)}, cropped.Left)
	assertPoints(t, []geometry.Point2D{pt(110, 20)}, cropped.Right)

	// the input is left untouched
	assert.Equal(t, 0.5, r.Left[0].X)
}

func oneHot(clf [2][]int, bins int) []float32 {
	var out []float32
	for _, rail := range clf {
		for _, c := range rail {
			row := make([]float32, bins)
			row[c] = 1
			out = append(out, row...)
		}
	}
	return out
}

func TestDecode(t *testing.T) {
	clfCfg := &ModelConfig{Method: MethodClassification, InputShape: []int{3, 8, 8}, Anchors: 4, Classes: 3}
	r, err := Decode(oneHot([2][]int{{0, 1, 2, 3}, {2, 2, 2, 2}}, 4), clfCfg)
	require.NoError(t, err)
	assertPoints(t, []geometry.Point2D{pt(0, 1), pt(0.5, 2.0/3)}, r.Left)

	regCfg := &ModelConfig{Method: MethodRegression, InputShape: []int{3, 8, 8}, Anchors: 4}
	pred := []float32{-0.2, 0.2, 0.3, 0.4, 0.5, 0.6, 1.5, 0.2, 0}
	r, err = Decode(pred, regCfg)
	require.NoError(t, err)
	require.Len(t, r.Left, 2)
	assert.InDelta(t, 0.6, r.Right[1].X, 1e-6)

	_, err = Decode(pred[:5], regCfg)
	assert.Error(t, err)
	_, err = Decode(pred, &ModelConfig{Method: MethodSegmentation})
	assert.Error(t, err)
}

func TestRailsToMask(t *testing.T) {
	r := Rails{
		Left:  []geometry.Point2D{pt(10, 50), pt(20, 10)},
		Right: []geometry.Point2D{pt(40, 50), pt(30, 10)},
	}
	mask := RailsToMask(r, 60, 60)
	defer mask.Close()
	assert.Equal(t, uint8(255), mask.GetUCharAt(30, 25))
	assert.Equal(t, uint8(0), mask.GetUCharAt(30, 5))
	assert.Equal(t, uint8(0), mask.GetUCharAt(55, 25))

	empty := RailsToMask(Rails{Left: r.Left}, 60, 60)
	defer empty.Close()
	assert.Equal(t, 0, gocv.CountNonZero(empty))
}

func filledMask(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	data := make([]byte, rows*cols)
	for i := range data {
		data[i] = 255
	}
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, data)
	require.NoError(t, err)
	return m
}

func TestScaleMask(t *testing.T) {
	mask := filledMask(t, 2, 2)
	defer mask.Close()

	out := ScaleMask(mask, &CropCoords{XLeft: 10, YTop: 20, XRight: 19, YBottom: 29}, 100, 50)
	defer out.Close()
	require.Equal(t, 50, out.Rows())
	require.Equal(t, 100, out.Cols())
	assert.Equal(t, uint8(255), out.GetUCharAt(20, 10))
	assert.Equal(t, uint8(255), out.GetUCharAt(29, 19))
	assert.Equal(t, uint8(0), out.GetUCharAt(30, 10))
	assert.Equal(t, uint8(0), out.GetUCharAt(20, 9))
	assert.Equal(t, 100, gocv.CountNonZero(out))

	full := ScaleMask(mask, nil, 8, 4)
	defer full.Close()
	assert.Equal(t, 4, full.Rows())
	assert.Equal(t, 32, gocv.CountNonZero(full))
}

func TestMaskToRails(t *testing.T) {
	rows, cols := 11, 20
	data := make([]byte, rows*cols)
	for y := 5; y < rows; y++ {
		for x := 4; x <= 12; x++ {
			data[y*cols+x] = 255
		}
	}
	mask, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, data)
	require.NoError(t, err)
	defer mask.Close()

	r := MaskToRails(mask, 3)
	assertPoints(t, []geometry.Point2D{pt(4, 10), pt(4, 5)}, r.Left)
	assertPoints(t, []geometry.Point2D{pt(12, 10), pt(12, 5)}, r.Right)
}

type fakeModel struct {
	out       Output
	gotWidth  int
	gotHeight int
}

func (f *fakeModel) Predict(img gocv.Mat) (Output, error) {
	f.gotWidth, f.gotHeight = img.Cols(), img.Rows()
	return f.out, nil
}

func TestModelDetectorRegression(t *testing.T) {
	model := &fakeModel{out: Output{Data: []float32{-0.2, 0.2, 0.3, 0.4, 0.5, 0.6, 1.5, 0.2, 0}}}
	cfg := &ModelConfig{Method: MethodRegression, InputShape: []int{3, 8, 8}, Anchors: 4}
	img := gocv.Zeros(51, 101, gocv.MatTypeCV8UC3)
	defer img.Close()

	rails, err := NewModelDetector(model, cfg).Detect(img)
	require.NoError(t, err)
	left, right := rails.Pixels()
	assert.Equal(t, []geometry.ImagePoint{{X: 0, Y: 50}, {X: 20, Y: 33}}, left)
	assert.Equal(t, []geometry.ImagePoint{{X: 50, Y: 50}, {X: 60, Y: 33}}, right)
	assert.Equal(t, 101, model.gotWidth)

	cfg.CropCoords = &CropCoords{XLeft: 10, YTop: 20, XRight: 60, YBottom: 40}
	_, err = NewModelDetector(model, cfg).Detect(img)
	require.NoError(t, err)
	assert.Equal(t, 51, model.gotWidth)
	assert.Equal(t, 21, model.gotHeight)
}

func TestModelDetectorSegmentation(t *testing.T) {
	data := make([]float32, 16)
	for y := 0; y < 4; y++ {
		data[y*4+1], data[y*4+2] = 1, 1
	}
	model := &fakeModel{out: Output{Data: data, Shape: []int{1, 1, 4, 4}}}
	cfg := &ModelConfig{Method: MethodSegmentation, InputShape: []int{3, 4, 4}, Anchors: 3}
	img := gocv.Zeros(8, 8, gocv.MatTypeCV8UC3)
	defer img.Close()

	d := NewModelDetector(model, cfg)
	rails, err := d.Detect(img)
	require.NoError(t, err)
	assertPoints(t, []geometry.Point2D{pt(2, 7), pt(2, 4), pt(2, 0)}, rails.Left)
	assertPoints(t, []geometry.Point2D{pt(5, 7), pt(5, 4), pt(5, 0)}, rails.Right)

	mask, err := d.DetectMask(img)
	require.NoError(t, err)
	defer mask.Close()
	assert.Equal(t, 32, gocv.CountNonZero(mask))
}

func TestDecodeMaskRejectsBadShape(t *testing.T) {
	_, err := DecodeMask(Output{Data: make([]float32, 5), Shape: []int{2, 2}})
	assert.Error(t, err)
	_, err = DecodeMask(Output{Data: make([]float32, 4)})
	assert.Error(t, err)
}

func TestLoadModelConfig(t *testing.T) {
	dir := t.TempDir()
	body := "method: classification\nbackbone: resnet18\ninput_shape: [3, 512, 512]\nanchors: 64\nclasses: 128\ncrop_coords: [10, 20, 500, 400]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(body), 0o644))

	cfg, err := LoadModelDir(dir)
	require.NoError(t, err)
	assert.Equal(t, MethodClassification, cfg.Method)
	assert.Equal(t, 64, cfg.Anchors)
	assert.Equal(t, 512, cfg.InputSize().X)
	assert.Equal(t, &CropCoords{XLeft: 10, YTop: 20, XRight: 500, YBottom: 400}, cfg.CropCoords)
	assert.Equal(t, 2*64*129, cfg.OutputLen())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("method: ssd\ninput_shape: [3, 8, 8]\n"), 0o644))
	_, err = LoadModelConfig(bad)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(bad, []byte("method: regression\ninput_shape: [3, 8, 8]\nanchors: 4\ncrop_coords: [1, 2]\n"), 0o644))
	_, err = LoadModelConfig(bad)
	assert.Error(t, err)

	_, err = OpenDir(t.TempDir())
	assert.Error(t, err)
}

func TestLabelEgo(t *testing.T) {
	r := Rails{
		Left:  []geometry.Point2D{pt(10, 100), pt(20, 50), pt(20.4, 50.2)},
		Right: []geometry.Point2D{pt(40, 100), pt(30, 50)},
	}

	sc := scene.New()
	track, ok := LabelEgo(sc, r, 67)
	require.True(t, ok)
	assert.Equal(t, scene.PositionEgo, track.Position)
	assert.Equal(t, []geometry.ImagePoint{{X: 10, Y: 100}, {X: 20, Y: 50}}, track.Left.Marks())

	track.Left.AddMark(geometry.ImagePoint{X: 1, Y: 1})
	again, ok := LabelEgo(sc, r, 67)
	require.True(t, ok)
	assert.Equal(t, track.ID, again.ID)
	assert.Equal(t, 2, again.Left.Len())
	assert.Len(t, sc.Tracks(), 1)

	_, ok = LabelEgo(sc, Rails{}, 67)
	assert.False(t, ok)
}
