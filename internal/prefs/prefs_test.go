package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFile(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "nope", prefsFile))
	assert.Equal(t, "", p.String(KeyLastDataset))
	assert.Equal(t, 7, p.Int(KeyLastImage, 7))
	assert.True(t, p.Bool("x", true))
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rail-labeler", prefsFile)

	p := LoadFrom(path)
	p.SetString(KeyLastDataset, "/data/chunk_01")
	p.SetInt(KeyLastImage, 42)
	p.SetString(KeyLabelMode, "side_point")
	p.SetBool("dark", false)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, "/data/chunk_01", q.String(KeyLastDataset))
	assert.Equal(t, 42, q.Int(KeyLastImage, 0))
	assert.Equal(t, "side_point", q.StringWithFallback(KeyLabelMode, "independent_mode"))
	assert.False(t, q.Bool("dark", true))
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

	p := LoadFrom(path)
	p.SetInt(KeyLastImage, 1)
	assert.Equal(t, 1, p.Int(KeyLastImage, 0))
}
