package config

import (
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/colorutil"
)

// Export mask values per track position.
const (
	MaskEgo   uint8 = 255
	MaskLeft  uint8 = 85
	MaskRight uint8 = 170
)

// Default returns the built in configuration.
func Default() *Config {
	return &Config{
		Data: Data{
			TrackWidth: 1435,
			RailWidth:  scene.DefaultRailWidth,
			Paths: Paths{
				Images:      "images",
				Extensions:  []string{"jpg", "jpeg", "png"},
				Annotations: "annotations",
				Camera:      "camera/camera.yaml",
			},
			Tags: map[string][]string{
				scene.GroupTrackLayout:          {"straight", "curve", "switch", "crossing", "unknown"},
				scene.GroupWeather:              {"sunny", "cloudy", "rain", "snow", "fog"},
				scene.GroupLight:                {"bright", "dim", "dark", "backlight"},
				scene.GroupTimeOfDay:            {"day", "dawn", "dusk", "night"},
				scene.GroupEnvironment:          {"urban", "rural", "forest", "station", "tunnel", "bridge"},
				scene.GroupAdditionalAttributes: {"duplicate", "blurred", "occluded"},
			},
		},
		Targets: Targets{
			Tracks: TrackTargets{
				InterpolationSteps: 15,
				DrawingOrder: []DrawStep{
					{scene.PositionLeft, PartTrackBed},
					{scene.PositionLeft, PartRails},
					{scene.PositionRight, PartTrackBed},
					{scene.PositionRight, PartRails},
					{scene.PositionEgo, PartTrackBed},
					{scene.PositionEgo, PartRails},
				},
				Ego:      trackStyle(MaskEgo, colorutil.Green, colorutil.Yellow),
				Left:     trackStyle(MaskLeft, colorutil.Blue, colorutil.Cyan),
				Right:    trackStyle(MaskRight, colorutil.Magenta, colorutil.Orange),
				Selected: trackStyle(MaskEgo, colorutil.Red, colorutil.White),
			},
			Switches: SwitchTargets{
				Fork:    switchStyles(colorutil.Green, colorutil.Cyan, colorutil.Yellow),
				Merge:   switchStyles(colorutil.Blue, colorutil.Magenta, colorutil.Orange),
				Unknown: switchStyles(colorutil.White, colorutil.White, colorutil.White),
			},
		},
		AimingDevices: AimingDevices{
			TrackStencil: StencilSettings{
				Color:                  colorutil.Yellow,
				DragColor:              colorutil.Red,
				Thickness:              1,
				HairToMidpointDistance: 2,
				TrackWidth:             1435,
				RailWidth:              scene.DefaultRailWidth,
				LabelMode:              "independent_mode",
			},
			CrossHair: CrossHairSettings{
				Color:          colorutil.Yellow,
				Thickness:      1,
				MidPointBuffer: 0.005,
			},
		},
		Filter: Filter{
			Included: map[string][]string{},
			Excluded: map[string][]string{},
		},
	}
}

func trackStyle(mask uint8, rail, bed colorutil.RGB) TrackStyle {
	return TrackStyle{
		ExportMaskColor: mask,
		Rail: RailStyle{
			MarksColor:   rail,
			SplinesColor: rail,
			ContourColor: rail,
			FillColor:    rail,
		},
		TrackBed: TrackBedStyle{
			ContourColor: bed,
			FillColor:    bed,
		},
		Transparency: 0.4,
	}
}

func switchStyles(left, right, unknown colorutil.RGB) SwitchKindStyles {
	style := func(c colorutil.RGB) SwitchStyle {
		return SwitchStyle{MarksColor: c, BoxColor: c, MarksRadius: 4, BoxThickness: 2}
	}
	return SwitchKindStyles{
		Left:     style(left),
		Right:    style(right),
		Unknown:  style(unknown),
		Selected: style(colorutil.Red),
	}
}
