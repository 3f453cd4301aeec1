package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rail-labeler/internal/aim"
	"rail-labeler/internal/scene"
	"rail-labeler/pkg/colorutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, MaskEgo, cfg.TrackStyle(scene.PositionEgo, false).ExportMaskColor)
	assert.Equal(t, MaskLeft, cfg.TrackStyle(scene.PositionLeft, false).ExportMaskColor)
	assert.Equal(t, MaskRight, cfg.TrackStyle(scene.PositionRight, false).ExportMaskColor)
	assert.Len(t, cfg.Targets.Tracks.DrawingOrder, 6)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  rail_width: 70
targets:
  tracks:
    ego:
      rail:
        fill_color: [1, 2, 3]
    drawing_order:
      - [ego, rails]
aiming_devices:
  track_stencil:
    label_mode: side_point
filter:
  excluded:
    weather: [fog]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 70.0, cfg.Data.RailWidth)
	assert.Equal(t, 1435.0, cfg.Data.TrackWidth)
	assert.Equal(t, 15, cfg.Targets.Tracks.InterpolationSteps)
	assert.Equal(t, colorutil.RGB{1, 2, 3}, cfg.Targets.Tracks.Ego.Rail.FillColor)
	assert.Equal(t, colorutil.Green, cfg.Targets.Tracks.Ego.Rail.MarksColor)
	assert.Equal(t, []DrawStep{{scene.PositionEgo, PartRails}}, cfg.Targets.Tracks.DrawingOrder)
	assert.Equal(t, []string{"fog"}, cfg.Filter.Excluded["weather"])

	st := cfg.Stencil()
	assert.Equal(t, aim.ModeSidePoint, st.Mode)
	assert.Equal(t, 2, st.HairToMidpoint)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "data:\n  rail_width: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "targets:\n  tracks:\n    drawing_order: [[ego, sleepers]]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "aiming_devices:\n  track_stencil:\n    label_mode: free\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Data.TrackWidth = 1000
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestStyles(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Targets.Tracks.Selected, cfg.TrackStyle(scene.PositionLeft, true))
	assert.Equal(t, cfg.Targets.Switches.Merge.Right, cfg.SwitchStyle(scene.KindMerge, scene.DirectionRight, false))
	assert.Equal(t, cfg.Targets.Switches.Fork.Selected, cfg.SwitchStyle(scene.KindFork, scene.DirectionLeft, true))

	cfg.AimingDevices.TrackStencil.RailWidth = 0
	assert.Equal(t, cfg.Data.RailWidth, cfg.Stencil().RailWidth)
}
