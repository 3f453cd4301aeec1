package autolabel

import (
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
)

// Detector finds the rails of the ego track in a BGR image. The returned
// rails are in image pixels.
type Detector interface {
	Detect(img gocv.Mat) (Rails, error)
}

// Output is a flattened network prediction with its shape.
type Output struct {
	Data  []float32
	Shape []int
}

// Model runs a network on a BGR image already cropped to the model region.
type Model interface {
	Predict(img gocv.Mat) (Output, error)
}

// NetModel runs an ONNX network through the OpenCV DNN module.
type NetModel struct {
	net  gocv.Net
	size image.Point
}

// NewNetModel loads an ONNX network expecting inputs of the given size.
func NewNetModel(path string, size image.Point) (*NetModel, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "model weights")
	}
	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return nil, errors.Errorf("load model %s", path)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendOpenCV); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "set backend")
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "set target")
	}
	return &NetModel{net: net, size: size}, nil
}

// Predict resizes img to the input size and runs a forward pass. Pixels
// are scaled to [0, 1] in RGB order.
func (m *NetModel) Predict(img gocv.Mat) (Output, error) {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, m.size, 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(resized, 1.0/255.0, m.size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	m.net.SetInput(blob, "")

	out := m.net.Forward("")
	defer out.Close()
	data, err := out.DataPtrFloat32()
	if err != nil {
		return Output{}, errors.Wrap(err, "read prediction")
	}
	return Output{Data: slices.Clone(data), Shape: out.Size()}, nil
}

// Close releases the network.
func (m *NetModel) Close() error {
	return m.net.Close()
}

// ModelDetector adapts a Model to the Detector contract using the decoding
// rules of its configuration.
type ModelDetector struct {
	model Model
	cfg   *ModelConfig
}

// NewModelDetector wraps a model.
func NewModelDetector(model Model, cfg *ModelConfig) *ModelDetector {
	return &ModelDetector{model: model, cfg: cfg}
}

// OpenDir loads ConfigFile and WeightsFile from a model directory.
func OpenDir(dir string) (*ModelDetector, *NetModel, error) {
	cfg, err := LoadModelDir(dir)
	if err != nil {
		return nil, nil, err
	}
	net, err := NewNetModel(filepath.Join(dir, WeightsFile), cfg.InputSize())
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Loaded %s %s model from %s", cfg.Method, cfg.Backbone, dir)
	return NewModelDetector(net, cfg), net, nil
}

// Detect implements Detector. Segmentation masks are reduced to rails by
// sampling their edges on the configured anchor rows.
func (d *ModelDetector) Detect(img gocv.Mat) (Rails, error) {
	width, height := img.Cols(), img.Rows()
	out, err := d.predict(img)
	if err != nil {
		return Rails{}, err
	}

	if d.cfg.Method == MethodSegmentation {
		mask, err := d.scaledMask(out, width, height)
		if err != nil {
			return Rails{}, err
		}
		defer mask.Close()
		anchors := d.cfg.Anchors
		if anchors < 2 {
			anchors = d.cfg.InputShape[1]
		}
		return MaskToRails(mask, anchors), nil
	}

	rails, err := Decode(out.Data, d.cfg)
	if err != nil {
		return Rails{}, err
	}
	return ScaleRails(rails, d.cfg.CropCoords, width, height), nil
}

// DetectMask returns a single channel track mask of the image size.
func (d *ModelDetector) DetectMask(img gocv.Mat) (gocv.Mat, error) {
	if d.cfg.Method == MethodSegmentation {
		out, err := d.predict(img)
		if err != nil {
			return gocv.NewMat(), err
		}
		return d.scaledMask(out, img.Cols(), img.Rows())
	}
	rails, err := d.Detect(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	return RailsToMask(rails, img.Cols(), img.Rows()), nil
}

func (d *ModelDetector) predict(img gocv.Mat) (Output, error) {
	if img.Empty() {
		return Output{}, errors.New("empty image")
	}
	in := img
	if cc := d.cfg.CropCoords; cc != nil {
		region := img.Region(cc.Rect().Intersect(image.Rect(0, 0, img.Cols(), img.Rows())))
		defer region.Close()
		in = region
	}
	out, err := d.model.Predict(in)
	return out, errors.Wrap(err, "predict")
}

func (d *ModelDetector) scaledMask(out Output, width, height int) (gocv.Mat, error) {
	mask, err := DecodeMask(out)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer mask.Close()
	return ScaleMask(mask, d.cfg.CropCoords, width, height), nil
}

// Decode turns a flattened classification or regression prediction into
// normalized rails.
func Decode(pred []float32, cfg *ModelConfig) (Rails, error) {
	if want := cfg.OutputLen(); want == 0 || len(pred) != want {
		return Rails{}, fmt.Errorf("cannot decode %d values as %s output", len(pred), cfg.Method)
	}
	a := cfg.Anchors

	switch cfg.Method {
	case MethodClassification:
		bins := cfg.Classes + 1
		var clf [2][]int
		row := make([]float64, bins)
		for r := range clf {
			clf[r] = make([]int, a)
			for i := 0; i < a; i++ {
				for j := range row {
					row[j] = float64(pred[(r*a+i)*bins+j])
				}
				clf[r][i] = floats.MaxIdx(row)
			}
		}
		return ClassificationsToRails(clf, cfg.Classes), nil
	default:
		var traj [2][]float64
		for r := range traj {
			traj[r] = make([]float64, a)
			for i := 0; i < a; i++ {
				traj[r][i] = float64(pred[r*a+i])
			}
		}
		ylim := 1 / (1 + math.Exp(-float64(pred[len(pred)-1])))
		return RegressionToRails(traj, ylim), nil
	}
}

// DecodeMask thresholds a segmentation prediction of shape [..., H, W] at
// zero into a single channel mask of 0 and 255.
func DecodeMask(out Output) (gocv.Mat, error) {
	if len(out.Shape) < 2 {
		return gocv.NewMat(), fmt.Errorf("segmentation output shape %v", out.Shape)
	}
	rows, cols := out.Shape[len(out.Shape)-2], out.Shape[len(out.Shape)-1]
	if rows*cols != len(out.Data) {
		return gocv.NewMat(), fmt.Errorf("segmentation output shape %v holds %d values", out.Shape, len(out.Data))
	}
	pixels := make([]byte, len(out.Data))
	for i, v := range out.Data {
		if v > 0 {
			pixels[i] = 255
		}
	}
	return gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, pixels)
}
