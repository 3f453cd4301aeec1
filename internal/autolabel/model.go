// Package autolabel detects the ego track in an image with a rail
// detection network and turns its raw output into rail marks.
package autolabel

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Method is the output encoding of a detection network.
type Method string

const (
	// MethodClassification predicts, per rail and anchor row, one of
	// classes column bins plus a "no rail" bin.
	MethodClassification Method = "classification"
	// MethodRegression predicts normalized x per rail and anchor row plus
	// one logit for the visible rail length.
	MethodRegression Method = "regression"
	// MethodSegmentation predicts a track mask.
	MethodSegmentation Method = "segmentation"
)

// Files inside a model directory.
const (
	ConfigFile  = "config.yaml"
	WeightsFile = "model.onnx"
)

// CropCoords is the inclusive image region fed to the network, written in
// YAML as [x_left, y_top, x_right, y_bottom].
type CropCoords struct {
	XLeft, YTop, XRight, YBottom int
}

// UnmarshalYAML reads the four element sequence form.
func (c *CropCoords) UnmarshalYAML(n *yaml.Node) error {
	var v []int
	if err := n.Decode(&v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("crop_coords: want 4 values, got %d", len(v))
	}
	c.XLeft, c.YTop, c.XRight, c.YBottom = v[0], v[1], v[2], v[3]
	return nil
}

// MarshalYAML writes the four element sequence form.
func (c CropCoords) MarshalYAML() (interface{}, error) {
	return []int{c.XLeft, c.YTop, c.XRight, c.YBottom}, nil
}

// Rect returns the region as a half-open rectangle.
func (c CropCoords) Rect() image.Rectangle {
	return image.Rect(c.XLeft, c.YTop, c.XRight+1, c.YBottom+1)
}

// ModelConfig describes a trained network.
type ModelConfig struct {
	Method     Method      `yaml:"method"`
	Backbone   string      `yaml:"backbone"`
	InputShape []int       `yaml:"input_shape"` // channels, height, width
	Anchors    int         `yaml:"anchors"`
	Classes    int         `yaml:"classes"`
	CropCoords *CropCoords `yaml:"crop_coords"`
}

// LoadModelConfig reads a model description.
func LoadModelConfig(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model config %s", path)
	}
	var cfg ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse model config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "model config %s", path)
	}
	return &cfg, nil
}

// LoadModelDir reads ConfigFile from a model directory.
func LoadModelDir(dir string) (*ModelConfig, error) {
	return LoadModelConfig(filepath.Join(dir, ConfigFile))
}

// Validate checks the fields needed to decode the network output.
func (c *ModelConfig) Validate() error {
	if len(c.InputShape) != 3 || c.InputShape[1] <= 0 || c.InputShape[2] <= 0 {
		return fmt.Errorf("input_shape must be [channels, height, width], got %v", c.InputShape)
	}
	switch c.Method {
	case MethodClassification:
		if c.Classes < 2 {
			return fmt.Errorf("classification needs at least 2 classes, got %d", c.Classes)
		}
		fallthrough
	case MethodRegression:
		if c.Anchors < 2 {
			return fmt.Errorf("need at least 2 anchors, got %d", c.Anchors)
		}
	case MethodSegmentation:
	default:
		return fmt.Errorf("unknown method %q", c.Method)
	}
	if cc := c.CropCoords; cc != nil && (cc.XRight <= cc.XLeft || cc.YBottom <= cc.YTop) {
		return fmt.Errorf("empty crop_coords %v", *cc)
	}
	return nil
}

// InputSize returns the network input as width and height.
func (c *ModelConfig) InputSize() image.Point {
	return image.Pt(c.InputShape[2], c.InputShape[1])
}

// OutputLen is the expected length of a flattened classification or
// regression prediction.
func (c *ModelConfig) OutputLen() int {
	switch c.Method {
	case MethodClassification:
		return 2 * c.Anchors * (c.Classes + 1)
	case MethodRegression:
		return 2*c.Anchors + 1
	}
	return 0
}
