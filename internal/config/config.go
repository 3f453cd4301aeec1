// Package config loads the labeler configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"rail-labeler/internal/aim"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/colorutil"
)

// Config is the complete labeler configuration.
type Config struct {
	Data          Data          `yaml:"data"`
	Targets       Targets       `yaml:"targets"`
	AimingDevices AimingDevices `yaml:"aiming_devices"`
	Filter        Filter        `yaml:"filter"`
	Autolabel     Autolabel     `yaml:"autolabel"`
}

// Data describes the dataset layout and physical dimensions.
type Data struct {
	TrackWidth float64             `yaml:"track_width"`
	RailWidth  float64             `yaml:"rail_width"`
	Paths      Paths               `yaml:"paths"`
	Tags       map[string][]string `yaml:"tags"`
}

// Paths are relative to a data chunk root.
type Paths struct {
	Images      string   `yaml:"images"`
	Extensions  []string `yaml:"extensions"`
	Annotations string   `yaml:"annotations"`
	Camera      string   `yaml:"camera"`
}

// Targets holds drawing settings per annotation target.
type Targets struct {
	Tracks   TrackTargets  `yaml:"tracks"`
	Switches SwitchTargets `yaml:"switches"`
}

// Track parts used in the drawing order.
const (
	PartRails    = "rails"
	PartTrackBed = "track_bed"
)

// DrawStep is one [position, part] pair of the drawing order.
type DrawStep struct {
	Position scene.Position
	Part     string
}

func (d *DrawStep) UnmarshalYAML(n *yaml.Node) error {
	var v []string
	if err := n.Decode(&v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("line %d: drawing step needs [position, part]", n.Line)
	}
	pos, err := scene.ParsePosition(v[0])
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	if v[1] != PartRails && v[1] != PartTrackBed {
		return fmt.Errorf("line %d: unknown track part %q", n.Line, v[1])
	}
	*d = DrawStep{Position: pos, Part: v[1]}
	return nil
}

func (d DrawStep) MarshalYAML() (interface{}, error) {
	return []string{string(d.Position), d.Part}, nil
}

type TrackTargets struct {
	InterpolationSteps int        `yaml:"interpolation_steps"`
	DrawingOrder       []DrawStep `yaml:"drawing_order"`
	Ego                TrackStyle `yaml:"ego"`
	Left               TrackStyle `yaml:"left"`
	Right              TrackStyle `yaml:"right"`
	Selected           TrackStyle `yaml:"selected"`
}

type TrackStyle struct {
	ExportMaskColor uint8         `yaml:"export_mask_color"`
	Rail            RailStyle     `yaml:"rail"`
	TrackBed        TrackBedStyle `yaml:"track_bed"`
	Transparency    float64       `yaml:"transparency"`
}

type RailStyle struct {
	MarksColor   colorutil.RGB `yaml:"marks_color"`
	SplinesColor colorutil.RGB `yaml:"splines_color"`
	ContourColor colorutil.RGB `yaml:"contour_color"`
	FillColor    colorutil.RGB `yaml:"fill_color"`
}

type TrackBedStyle struct {
	ContourColor colorutil.RGB `yaml:"contour_color"`
	FillColor    colorutil.RGB `yaml:"fill_color"`
}

type SwitchTargets struct {
	Fork    SwitchKindStyles `yaml:"fork"`
	Merge   SwitchKindStyles `yaml:"merge"`
	Unknown SwitchKindStyles `yaml:"unknown"`
}

type SwitchKindStyles struct {
	Left     SwitchStyle `yaml:"left"`
	Right    SwitchStyle `yaml:"right"`
	Unknown  SwitchStyle `yaml:"unknown"`
	Selected SwitchStyle `yaml:"selected"`
}

type SwitchStyle struct {
	MarksColor   colorutil.RGB `yaml:"marks_color"`
	BoxColor     colorutil.RGB `yaml:"box_color"`
	MarksRadius  int           `yaml:"marks_radius"`
	BoxThickness int           `yaml:"box_thickness"`
}

type AimingDevices struct {
	TrackStencil StencilSettings   `yaml:"track_stencil"`
	CrossHair    CrossHairSettings `yaml:"cross_hair"`
}

type StencilSettings struct {
	Color                  colorutil.RGB `yaml:"color"`
	DragColor              colorutil.RGB `yaml:"drag_color"`
	Thickness              int           `yaml:"thickness"`
	HairToMidpointDistance int           `yaml:"hair_to_midpoint_distance"`
	TrackWidth             float64       `yaml:"track_width"`
	RailWidth              float64       `yaml:"rail_width"`
	LabelMode              string        `yaml:"label_mode"`
}

type CrossHairSettings struct {
	Color          colorutil.RGB `yaml:"color"`
	Thickness      int           `yaml:"thickness"`
	MidPointBuffer float64       `yaml:"mid_point_buffer"`
}

// Filter selects annotations by tags for label export.
type Filter struct {
	Included map[string][]string `yaml:"included"`
	Excluded map[string][]string `yaml:"excluded"`
}

// Autolabel points at the detector model description.
type Autolabel struct {
	Model string `yaml:"model"`
}

// Load reads a YAML file over Default. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// LoadOrDefault is Load for a non-empty path and Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write config %s", path)
}

// Validate checks values that would break annotation.
func (c *Config) Validate() error {
	if c.Data.RailWidth <= 0 {
		return errors.Errorf("data.rail_width must be positive, got %g", c.Data.RailWidth)
	}
	if c.Data.TrackWidth <= 0 {
		return errors.Errorf("data.track_width must be positive, got %g", c.Data.TrackWidth)
	}
	if c.Targets.Tracks.InterpolationSteps < 1 {
		return errors.Errorf("targets.tracks.interpolation_steps must be at least 1, got %d", c.Targets.Tracks.InterpolationSteps)
	}
	if len(c.Data.Paths.Extensions) == 0 {
		return errors.New("data.paths.extensions is empty")
	}
	if c.AimingDevices.TrackStencil.LabelMode != "" {
		if _, err := aim.ParseLabelMode(c.AimingDevices.TrackStencil.LabelMode); err != nil {
			return err
		}
	}
	return nil
}

// TrackStyle returns the drawing style for a track.
func (c *Config) TrackStyle(pos scene.Position, selected bool) TrackStyle {
	t := c.Targets.Tracks
	if selected {
		return t.Selected
	}
	switch pos {
	case scene.PositionLeft:
		return t.Left
	case scene.PositionRight:
		return t.Right
	}
	return t.Ego
}

// SwitchStyle returns the drawing style for a switch.
func (c *Config) SwitchStyle(kind scene.SwitchKind, dir scene.SwitchDirection, selected bool) SwitchStyle {
	var k SwitchKindStyles
	switch kind {
	case scene.KindFork:
		k = c.Targets.Switches.Fork
	case scene.KindMerge:
		k = c.Targets.Switches.Merge
	default:
		k = c.Targets.Switches.Unknown
	}
	if selected {
		return k.Selected
	}
	switch dir {
	case scene.DirectionLeft:
		return k.Left
	case scene.DirectionRight:
		return k.Right
	}
	return k.Unknown
}

// Stencil returns the track stencil geometry settings. Widths not set on
// the stencil fall back to the data section.
func (c *Config) Stencil() aim.StencilConfig {
	s := c.AimingDevices.TrackStencil
	sc := aim.StencilConfig{
		TrackWidth:     s.TrackWidth,
		RailWidth:      s.RailWidth,
		HairToMidpoint: s.HairToMidpointDistance,
		Mode:           aim.LabelMode(s.LabelMode),
	}
	if sc.TrackWidth <= 0 {
		sc.TrackWidth = c.Data.TrackWidth
	}
	if sc.RailWidth <= 0 {
		sc.RailWidth = c.Data.RailWidth
	}
	return sc
}

// CrossHair returns the crosshair geometry settings.
func (c *Config) CrossHair() aim.CrossHairConfig {
	return aim.CrossHairConfig{MidPointBuffer: c.AimingDevices.CrossHair.MidPointBuffer}
}
