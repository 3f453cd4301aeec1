package labels

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"rail-labeler/internal/dataset"
)

// ReverseOptions locates YOLO labels, the images they were made for and
// the annotation output directory.
type ReverseOptions struct {
	LabelDir   string
	ImageDir   string
	OutDir     string
	Extensions []string
}

// ReverseSwitchLabels turns every YOLO label file in LabelDir into a scene
// annotation <OutDir>/<stem>.json. The image of the same stem gives the
// resolution. Empty label files produce no annotation. It returns the
// number of annotations written.
func ReverseSwitchLabels(opts ReverseOptions) (int, error) {
	classes, err := readClassFile(filepath.Join(opts.LabelDir, ClassNamesFile))
	if err != nil {
		return 0, err
	}
	images, err := imagesByStem(opts.ImageDir, opts.Extensions)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(opts.LabelDir)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", opts.LabelDir)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "create %s", opts.OutDir)
	}

	written := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == ClassNamesFile || filepath.Ext(name) != ".txt" {
			continue
		}
		stem := strings.TrimSuffix(name, ".txt")
		image, ok := images[stem]
		if !ok {
			return written, errors.Errorf("no image found for label %s", stem)
		}

		boxes, err := readBoxFile(filepath.Join(opts.LabelDir, name))
		if err != nil {
			return written, err
		}
		if len(boxes) == 0 {
			continue
		}
		w, h, err := dataset.ImageSize(image)
		if err != nil {
			return written, err
		}
		sc, err := BoxesToScene(boxes, classes, w, h)
		if err != nil {
			return written, errors.Wrap(err, stem)
		}
		data, err := sc.Marshal()
		if err != nil {
			return written, errors.Wrap(err, "encode scene")
		}
		out := filepath.Join(opts.OutDir, stem+".json")
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return written, errors.Wrapf(err, "write %s", out)
		}
		written++
	}
	log.Printf("Wrote %d annotations to %s", written, opts.OutDir)
	return written, nil
}

func readClassFile(path string) ([]SwitchClass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open class names")
	}
	defer f.Close()
	return ReadClasses(f)
}

func readBoxFile(path string) ([]Box, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open labels")
	}
	defer f.Close()
	boxes, err := ReadBoxes(f)
	return boxes, errors.Wrap(err, path)
}

func imagesByStem(dir string, exts []string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if e.IsDir() || !hasExt(ext, exts) {
			continue
		}
		out[strings.TrimSuffix(name, filepath.Ext(name))] = filepath.Join(dir, name)
	}
	return out, nil
}

func hasExt(ext string, exts []string) bool {
	for _, e := range exts {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}
