package camera

import (
	"bytes"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrCalibrationNotFound is returned when the calibration file does not exist.
var ErrCalibrationNotFound = errors.New("camera calibration file not found")

// Calibration holds the extrinsic and intrinsic parameters of a camera as
// stored in an OpenCV FileStorage YAML file. Angles are in degrees.
type Calibration struct {
	Roll  float64
	Pitch float64
	Yaw   float64

	Width  float64
	Height float64
	F      float64

	// Tvec is the camera center in world millimetres.
	Tvec [3]float64

	// CameraMatrix is the 3x3 intrinsic matrix in row-major order.
	CameraMatrix [9]float64

	DistortionCoefficients []float64
}

// LoadCalibration reads an OpenCV style calibration YAML file.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrCalibrationNotFound, path)
		}
		return nil, errors.Wrapf(err, "read calibration %s", path)
	}
	cal, err := ParseCalibration(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse calibration %s", path)
	}
	return cal, nil
}

// ParseCalibration decodes calibration YAML. OpenCV writes a "%YAML:1.0"
// directive that is not valid YAML 1.2, so it is dropped before decoding.
func ParseCalibration(data []byte) (*Calibration, error) {
	if bytes.HasPrefix(data, []byte("%YAML")) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			data = nil
		}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("calibration is not a mapping")
	}
	root := doc.Content[0]

	cal := &Calibration{}
	scalars := map[string]*float64{
		"roll":   &cal.Roll,
		"pitch":  &cal.Pitch,
		"yaw":    &cal.Yaw,
		"width":  &cal.Width,
		"height": &cal.Height,
		"f":      &cal.F,
	}
	seen := map[string]bool{}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		seen[key] = true

		if dst, ok := scalars[key]; ok {
			v, err := nodeFloat(value)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s", key)
			}
			*dst = v
			continue
		}

		switch key {
		case "tvec":
			vals, err := nodeFloats(value)
			if err != nil {
				return nil, errors.Wrap(err, "field tvec")
			}
			if len(vals) != 3 {
				return nil, errors.Errorf("tvec: expected 3 values, got %d", len(vals))
			}
			copy(cal.Tvec[:], vals)
		case "camera_matrix":
			vals, err := nodeFloats(value)
			if err != nil {
				return nil, errors.Wrap(err, "field camera_matrix")
			}
			if len(vals) != 9 {
				return nil, errors.Errorf("camera_matrix: expected 9 values, got %d", len(vals))
			}
			copy(cal.CameraMatrix[:], vals)
		case "distortion_coefficients":
			vals, err := nodeFloats(value)
			if err != nil {
				return nil, errors.Wrap(err, "field distortion_coefficients")
			}
			cal.DistortionCoefficients = vals
		}
	}

	for _, required := range []string{"roll", "pitch", "yaw", "tvec", "camera_matrix"} {
		if !seen[required] {
			return nil, errors.Errorf("missing field %s", required)
		}
	}
	return cal, nil
}

func nodeFloat(n *yaml.Node) (float64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errors.Errorf("line %d: expected scalar", n.Line)
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d", n.Line)
	}
	return v, nil
}

// nodeFloats reads a plain sequence or an !!opencv-matrix mapping.
func nodeFloats(n *yaml.Node) ([]float64, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]float64, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeFloat(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		var rows, cols int
		var data []float64
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i].Value, n.Content[i+1]
			switch key {
			case "rows":
				if err := value.Decode(&rows); err != nil {
					return nil, errors.Wrap(err, "rows")
				}
			case "cols":
				if err := value.Decode(&cols); err != nil {
					return nil, errors.Wrap(err, "cols")
				}
			case "data":
				vals, err := nodeFloats(value)
				if err != nil {
					return nil, err
				}
				data = vals
			}
		}
		if rows*cols != len(data) {
			return nil, errors.Errorf("line %d: matrix %dx%d has %d values", n.Line, rows, cols, len(data))
		}
		return data, nil
	}
	return nil, errors.Errorf("line %d: expected sequence or matrix", n.Line)
}
