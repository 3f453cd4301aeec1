package labels

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

// ClassNamesFile lists the class of each YOLO id, one per line.
const ClassNamesFile = "labels.txt"

// notApplicable names an attribute a class does not distinguish.
const notApplicable = "N.a."

// ErrNoSwitchAttributes is returned when neither kinds nor directions
// select switches.
var ErrNoSwitchAttributes = errors.New("expected at least one switch attribute (kind or direction)")

// SwitchClass is one YOLO class. An empty Kind or Direction matches any
// value of that attribute.
type SwitchClass struct {
	Kind      scene.SwitchKind
	Direction scene.SwitchDirection
}

// Matches reports whether a switch belongs to the class.
func (c SwitchClass) Matches(sw *scene.Switch) bool {
	return (c.Kind == "" || c.Kind == sw.Kind) && (c.Direction == "" || c.Direction == sw.Direction)
}

func (c SwitchClass) String() string {
	kind, dir := string(c.Kind), string(c.Direction)
	if kind == "" {
		kind = notApplicable
	}
	if dir == "" {
		dir = notApplicable
	}
	return fmt.Sprintf("kind:_%s,_direction:_%s", kind, dir)
}

// SwitchClasses returns every combination of the given kinds and
// directions. An empty list does not split classes by that attribute.
func SwitchClasses(kinds []scene.SwitchKind, dirs []scene.SwitchDirection) ([]SwitchClass, error) {
	if len(kinds) == 0 && len(dirs) == 0 {
		return nil, ErrNoSwitchAttributes
	}
	if len(kinds) == 0 {
		kinds = []scene.SwitchKind{""}
	}
	if len(dirs) == 0 {
		dirs = []scene.SwitchDirection{""}
	}
	classes := make([]SwitchClass, 0, len(kinds)*len(dirs))
	for _, k := range kinds {
		for _, d := range dirs {
			classes = append(classes, SwitchClass{Kind: k, Direction: d})
		}
	}
	return classes, nil
}

// Box is a YOLO label: class id, center and size relative to the image.
type Box struct {
	Class int
	CX    float64
	CY    float64
	W     float64
	H     float64
}

func (b Box) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("%d %s %s %s %s", b.Class, f(b.CX), f(b.CY), f(b.W), f(b.H))
}

// SwitchBoxes converts the switches of a scene to boxes. A switch is
// exported when its kind is in kinds or its direction in dirs, it has both
// marks, and one of the classes matches it.
func SwitchBoxes(sc *scene.Scene, classes []SwitchClass, kinds []scene.SwitchKind, dirs []scene.SwitchDirection,
	width, height int) []Box {
	var boxes []Box
	for _, sw := range sc.Switches() {
		if !slices.Contains(kinds, sw.Kind) && !slices.Contains(dirs, sw.Direction) {
			continue
		}
		marks := sw.Marks()
		if len(marks) != scene.MaxSwitchMarks {
			continue
		}
		id := slices.IndexFunc(classes, func(c SwitchClass) bool { return c.Matches(sw) })
		if id < 0 {
			continue
		}
		a, b := marks[0], marks[1]
		center := a.Midpoint(b)
		w, h := float64(width), float64(height)
		boxes = append(boxes, Box{
			Class: id,
			CX:    float64(center.X) / w,
			CY:    float64(center.Y) / h,
			W:     math.Abs(float64(a.X-b.X)) / w,
			H:     math.Abs(float64(a.Y-b.Y)) / h,
		})
	}
	return boxes
}

// WriteBoxes writes one label line per box.
func WriteBoxes(w io.Writer, boxes []Box) error {
	bw := bufio.NewWriter(w)
	for _, b := range boxes {
		if _, err := fmt.Fprintln(bw, b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteClasses writes the class names in id order.
func WriteClasses(w io.Writer, classes []SwitchClass) error {
	bw := bufio.NewWriter(w)
	for _, c := range classes {
		if _, err := fmt.Fprintln(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadClasses parses a class names file. Unknown attribute values become
// the unknown kind or direction.
func ReadClasses(r io.Reader) ([]SwitchClass, error) {
	var classes []SwitchClass
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		kindPart, dirPart, ok := strings.Cut(line, ",")
		if !ok {
			return nil, errors.Errorf("class line %d: missing direction: %q", n, line)
		}
		kind := strings.TrimSpace(strings.TrimPrefix(kindPart, "kind:_"))
		dir := strings.TrimSpace(strings.TrimPrefix(dirPart, "_direction:_"))

		var c SwitchClass
		if k, err := scene.ParseSwitchKind(kind); err == nil {
			c.Kind = k
		} else {
			c.Kind = scene.KindUnknown
		}
		if d, err := scene.ParseSwitchDirection(dir); err == nil {
			c.Direction = d
		} else {
			c.Direction = scene.DirectionUnknown
		}
		classes = append(classes, c)
	}
	return classes, errors.Wrap(sc.Err(), "read classes")
}

// ReadBoxes parses YOLO label lines.
func ReadBoxes(r io.Reader) ([]Box, error) {
	var boxes []Box
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			return nil, errors.Errorf("label line %d: want 5 fields, got %d", n, len(fields))
		}
		class, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "label line %d", n)
		}
		var v [4]float64
		for i := range v {
			if v[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
				return nil, errors.Wrapf(err, "label line %d", n)
			}
		}
		boxes = append(boxes, Box{Class: class, CX: v[0], CY: v[1], W: v[2], H: v[3]})
	}
	return boxes, errors.Wrap(sc.Err(), "read labels")
}

// BoxesToScene rebuilds switches from boxes on a width x height image.
// Switch ids count from 0 in box order. The first mark is the corner with
// the larger coordinates.
func BoxesToScene(boxes []Box, classes []SwitchClass, width, height int) (*scene.Scene, error) {
	sc := scene.New()
	w, h := float64(width), float64(height)
	for i, b := range boxes {
		if b.Class < 0 || b.Class >= len(classes) {
			return nil, errors.Errorf("box %d: class %d not in %d classes", i, b.Class, len(classes))
		}
		c := classes[b.Class]
		cx, cy := b.CX*w, b.CY*h
		dx, dy := b.W*w, b.H*h
		sc.PutSwitch(scene.NewSwitch(i, c.Kind, c.Direction,
			geometry.ImagePoint{X: roundInt(cx + dx/2), Y: roundInt(cy + dy/2)},
			geometry.ImagePoint{X: roundInt(cx - dx/2), Y: roundInt(cy - dy/2)},
		))
	}
	return sc, nil
}

func roundInt(v float64) int { return int(math.RoundToEven(v)) }
