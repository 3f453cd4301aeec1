package labels

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"rail-labeler/internal/config"
	"rail-labeler/internal/dataset"
	"rail-labeler/internal/render"
	"rail-labeler/internal/scene"
)

// ErrNoSource is returned when a converter gets neither a configuration,
// a dataset nor a chunk path.
var ErrNoSource = errors.New("expected a configuration, a dataset or a path to a data chunk")

// Source is the read side of a dataset the converter walks.
type Source interface {
	Len() int
	Name(i int) string
	Resolution(i int) (width, height int, err error)
	Annotation(i int) (*scene.Scene, error)
}

// Converter writes training labels for every annotated image of a data
// chunk that passes the configured tag filter.
type Converter struct {
	cfg    *config.Config
	data   Source
	cam    scene.Projector
	filter *TagFilter

	// camera is loaded on first use when cam is nil
	loadCamera func() (scene.Projector, error)
}

// NewConverter prepares a converter. A nil cfg means the default
// configuration. With a chunk path the default chunk layout below it is
// used; without data the dataset is opened from the configured paths.
func NewConverter(cfg *config.Config, data Source, chunk string) (*Converter, error) {
	if cfg == nil && data == nil && chunk == "" {
		return nil, ErrNoSource
	}
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Converter{cfg: cfg, data: data, filter: NewTagFilter(cfg.Filter)}

	if data == nil {
		root := ""
		if chunk != "" {
			cfg.Data.Paths = config.Default().Data.Paths
			root = chunk
		}
		ds, err := dataset.Open(root, cfg)
		if err != nil {
			return nil, err
		}
		c.data = ds
		c.loadCamera = func() (scene.Projector, error) { return ds.Camera() }
	}
	return c, nil
}

// SetCamera sets the projection used to draw track masks.
func (c *Converter) SetCamera(cam scene.Projector) { c.cam = cam }

func (c *Converter) camera() (scene.Projector, error) {
	if c.cam != nil {
		return c.cam, nil
	}
	if c.loadCamera == nil {
		return nil, errors.New("no camera for track masks")
	}
	cam, err := c.loadCamera()
	if err != nil {
		return nil, errors.Wrap(err, "load camera")
	}
	c.cam = cam
	return cam, nil
}

// selected yields the indices of annotated images passing the filter
// together with their scenes.
func (c *Converter) selected(fn func(i int, sc *scene.Scene) error) error {
	for i := 0; i < c.data.Len(); i++ {
		sc, err := c.data.Annotation(i)
		if err != nil {
			return err
		}
		if sc == nil {
			log.Printf("No labels created for %s, no annotation found", c.data.Name(i))
			continue
		}
		if !c.filter.Match(&sc.Tags) {
			continue
		}
		if err := fn(i, sc); err != nil {
			return err
		}
	}
	return nil
}

// SwitchLabels writes <name>.txt YOLO labels for the switches of every
// selected image and the class names file into dir.
func (c *Converter) SwitchLabels(dir string, kinds []scene.SwitchKind, dirs []scene.SwitchDirection) error {
	classes, err := SwitchClasses(kinds, dirs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	err = c.selected(func(i int, sc *scene.Scene) error {
		w, h, err := c.data.Resolution(i)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dir, c.data.Name(i)+".txt"), func(f *os.File) error {
			return WriteBoxes(f, SwitchBoxes(sc, classes, kinds, dirs, w, h))
		})
	})
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, ClassNamesFile), func(f *os.File) error {
		return WriteClasses(f, classes)
	})
}

// TrackMasks writes a <name>.png single channel mask of the tracks of
// every selected image into dir.
func (c *Converter) TrackMasks(dir string) error {
	cam, err := c.camera()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	drawer := render.NewDrawer(c.cfg, cam)

	return c.selected(func(i int, sc *scene.Scene) error {
		w, h, err := c.data.Resolution(i)
		if err != nil {
			return err
		}
		mask := drawer.DrawMask(sc, w, h)
		defer mask.Close()

		path := filepath.Join(dir, c.data.Name(i)+".png")
		if !gocv.IMWrite(path, mask) {
			return errors.Errorf("write %s", path)
		}
		return nil
	})
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
