// Package dataset provides access to the images, annotations and camera
// calibration of one data chunk.
package dataset

import (
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"rail-labeler/internal/camera"
	"rail-labeler/internal/config"
	"rail-labeler/internal/scene"
)

// ErrNotADirectory is returned when the image directory is missing.
var ErrNotADirectory = errors.New("expected images path to be a directory")

// Dataset lists the images of a chunk in natural order and maps each to
// its annotation file <annotations>/<stem>.json.
type Dataset struct {
	root        string
	images      []string
	annotations string
	camera      string
	railWidth   float64
	knownTags   map[string][]string
}

// Open scans a data chunk. Relative paths of cfg are resolved against
// root. The annotation directory is created when missing.
func Open(root string, cfg *config.Config) (*Dataset, error) {
	paths := cfg.Data.Paths
	imagesDir := resolve(root, paths.Images)

	info, err := os.Stat(imagesDir)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrap(ErrNotADirectory, imagesDir)
	}

	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", imagesDir)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name(), paths.Extensions) {
			continue
		}
		images = append(images, filepath.Join(imagesDir, e.Name()))
	}
	slices.SortFunc(images, func(a, b string) int {
		la, lb := strings.ToLower(filepath.Base(a)), strings.ToLower(filepath.Base(b))
		switch {
		case natural.Less(la, lb):
			return -1
		case natural.Less(lb, la):
			return 1
		}
		return strings.Compare(a, b)
	})

	annotations := resolve(root, paths.Annotations)
	if err := os.MkdirAll(annotations, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", annotations)
	}

	railWidth := cfg.Data.RailWidth
	if railWidth <= 0 {
		railWidth = scene.DefaultRailWidth
	}

	return &Dataset{
		root:        root,
		images:      images,
		annotations: annotations,
		camera:      resolve(root, paths.Camera),
		railWidth:   railWidth,
		knownTags:   cfg.Data.Tags,
	}, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func hasExtension(name string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	for _, e := range exts {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

// Root returns the chunk directory.
func (d *Dataset) Root() string { return d.root }

// Len returns the number of images.
func (d *Dataset) Len() int { return len(d.images) }

// ImagePath returns the path of image i.
func (d *Dataset) ImagePath(i int) string { return d.images[i] }

// ImageName returns the file name of image i.
func (d *Dataset) ImageName(i int) string { return filepath.Base(d.images[i]) }

// Name returns the file stem of image i, which names its annotation.
func (d *Dataset) Name(i int) string {
	base := filepath.Base(d.images[i])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Index finds an image by file name.
func (d *Dataset) Index(imageName string) (int, bool) {
	for i := range d.images {
		if d.ImageName(i) == imageName {
			return i, true
		}
	}
	return 0, false
}

// AnnotationsDir returns the directory holding the annotation files.
func (d *Dataset) AnnotationsDir() string { return d.annotations }

// AnnotationPath returns the annotation file of image i.
func (d *Dataset) AnnotationPath(i int) string {
	return filepath.Join(d.annotations, d.Name(i)+".json")
}

// CameraPath returns the calibration file of the chunk.
func (d *Dataset) CameraPath() string { return d.camera }

// Camera loads the chunk calibration.
func (d *Dataset) Camera() (*camera.Camera, error) {
	return camera.Load(d.camera)
}

// Resolution reads the size of image i from its file header.
func (d *Dataset) Resolution(i int) (width, height int, err error) {
	return ImageSize(d.images[i])
}

// ImageSize reads the size of an image file from its header.
func ImageSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(err, "open image")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "decode header %s", path)
	}
	return cfg.Width, cfg.Height, nil
}

// Image reads image i as a BGR matrix. The caller closes it.
func (d *Dataset) Image(i int) (gocv.Mat, error) {
	img := gocv.IMRead(d.images[i], gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), errors.Errorf("read image %s", d.images[i])
	}
	return img, nil
}

// Annotation loads the scene of image i. A missing or malformed file
// yields nil without error.
func (d *Dataset) Annotation(i int) (*scene.Scene, error) {
	path := d.AnnotationPath(i)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	sc, err := scene.Unmarshal(data, d.railWidth)
	if err != nil {
		log.Printf("Ignoring annotation %s: %v", path, err)
		return nil, nil
	}
	return sc, nil
}

// WriteAnnotation saves the scene of image i. Tag groups and tags found in
// the existing file but unknown to the configuration are merged into the
// scene first so they are not lost.
func (d *Dataset) WriteAnnotation(i int, sc *scene.Scene) error {
	path := d.AnnotationPath(i)
	if existing, err := readTagGroups(path); err == nil && existing != nil {
		mergeUnknownTags(&sc.Tags, existing, d.knownTags)
	}

	data, err := sc.Marshal()
	if err != nil {
		return errors.Wrap(err, "encode scene")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

func readTagGroups(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		TagGroups map[string][]string `json:"tag groups"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.TagGroups, nil
}

func mergeUnknownTags(tags *scene.TagGroups, existing, known map[string][]string) {
	for group, fileTags := range existing {
		knownTags, isKnown := known[group]
		if !isKnown {
			tags.SetGroup(group, fileTags)
			continue
		}
		current := tags.Group(group)
		merged := slices.Clone(current)
		for _, tag := range fileTags {
			if !slices.Contains(knownTags, tag) && !slices.Contains(merged, tag) {
				merged = append(merged, tag)
			}
		}
		if len(merged) != len(current) {
			tags.SetGroup(group, merged)
		}
	}
}
