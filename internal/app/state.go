// Package app wires the annotation strategies, the event hub and the
// dataset into an annotation session.
package app

import (
	"fmt"
	"log"
	"slices"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"rail-labeler/internal/aim"
	"rail-labeler/internal/autolabel"
	"rail-labeler/internal/config"
	"rail-labeler/internal/prefs"
	"rail-labeler/internal/render"
	"rail-labeler/internal/scene"
)

// Dataset is the image and annotation store a session works on.
type Dataset interface {
	Len() int
	ImageName(i int) string
	Index(imageName string) (int, bool)
	Resolution(i int) (width, height int, err error)
	Image(i int) (gocv.Mat, error)
	Annotation(i int) (*scene.Scene, error)
	WriteAnnotation(i int, sc *scene.Scene) error
}

// Tags that suppress the initial EGO track.
const (
	tagUnknownLayout = "unknown"
	tagDuplicate     = "duplicate"
)

// Session holds the annotation state of one dataset: the current image and
// scene, the active strategy and the aiming devices. It is driven by
// events posted on its hub and is not safe for concurrent use.
type Session struct {
	hub    *Hub
	cfg    *config.Config
	data   Dataset
	cam    scene.Projector
	drawer *render.Drawer
	prefs  *prefs.Prefs

	opts      render.Options
	stencil   *aim.TrackStencil
	crossHair *aim.CrossHair

	index         int
	sc            *scene.Scene
	width, height int

	strategy Strategy
	tracks   *TrackAnnotator
	switches *SwitchAnnotator
	tags     *TagAnnotator

	detector    autolabel.Detector
	displayPath string
	closed      bool
}

// NewSession creates a session on an empty hub. p may be nil.
func NewSession(hub *Hub, cfg *config.Config, data Dataset, cam scene.Projector, p *prefs.Prefs) (*Session, error) {
	if data.Len() == 0 {
		return nil, errors.New("dataset has no images")
	}
	s := &Session{
		hub:       hub,
		cfg:       cfg,
		data:      data,
		cam:       cam,
		drawer:    render.NewDrawer(cfg, cam),
		prefs:     p,
		opts:      render.DefaultOptions(),
		stencil:   aim.NewTrackStencil(cfg.Stencil(), cam),
		crossHair: aim.NewCrossHair(cfg.CrossHair()),
		strategy:  StrategyTrack,
	}
	if p != nil {
		if m, err := aim.ParseLabelMode(p.String(prefs.KeyLabelMode)); err == nil {
			s.stencil.SetMode(m)
		}
	}

	hub.Subscribe(EventNext, s, func(interface{}) { s.logErr(s.Next()) })
	hub.Subscribe(EventPrevious, s, func(interface{}) { s.logErr(s.Previous()) })
	hub.Subscribe(EventLoadScene, s, func(d interface{}) {
		if name, ok := d.(string); ok {
			s.logErr(s.LoadScene(name))
		}
	})
	hub.Subscribe(EventStrategy, s, s.onStrategy)
	hub.Subscribe(EventExit, s, func(interface{}) { s.logErr(s.Exit()) })
	hub.Subscribe(EventDisplay, s, func(interface{}) { s.logErr(s.Display()) })
	hub.Subscribe(EventTagCopy, s, func(interface{}) { s.logErr(s.CopyTags(false)) })
	hub.Subscribe(EventTagCopyOverwrite, s, func(interface{}) { s.logErr(s.CopyTags(true)) })
	hub.Subscribe(EventAutoLabelingTrack, s, func(interface{}) { s.logErr(s.AutoLabel()) })
	return s, nil
}

// Start opens image index, clamped into the dataset, with the track
// strategy.
func (s *Session) Start(index int) error {
	s.index = max(0, min(index, s.data.Len()-1))
	s.postPosition()
	if err := s.loadScene(); err != nil {
		return err
	}
	s.loadStrategy(StrategyTrack)
	return nil
}

func (s *Session) logErr(err error) {
	if err != nil {
		log.Printf("Session: %v", err)
	}
}

// SetDetector enables AUTO_LABELING_TRACK.
func (s *Session) SetDetector(d autolabel.Detector) { s.detector = d }

// SetDisplayPath makes DISPLAY write the rendered overlay to path.
func (s *Session) SetDisplayPath(path string) { s.displayPath = path }

// Hub returns the event hub of the session.
func (s *Session) Hub() *Hub { return s.hub }

// Scene returns the scene of the current image.
func (s *Session) Scene() *scene.Scene { return s.sc }

// Index returns the position of the current image.
func (s *Session) Index() int { return s.index }

// Strategy returns the active annotation strategy.
func (s *Session) Strategy() Strategy { return s.strategy }

// Options returns the draw options shared by the strategies of this
// session.
func (s *Session) Options() *render.Options { return &s.opts }

// Tracks returns the track annotator while the track strategy is active.
func (s *Session) Tracks() *TrackAnnotator { return s.tracks }

// Switches returns the switch annotator while the switch strategy is
// active.
func (s *Session) Switches() *SwitchAnnotator { return s.switches }

// Stencil returns the track stencil. Its mode survives image changes.
func (s *Session) Stencil() *aim.TrackStencil { return s.stencil }

// Next saves and moves to the next image, wrapping to the first.
func (s *Session) Next() error {
	return s.moveTo((s.index + 1) % s.data.Len())
}

// Previous saves and moves to the previous image, wrapping to the last.
func (s *Session) Previous() error {
	return s.moveTo((s.index - 1 + s.data.Len()) % s.data.Len())
}

// LoadScene saves and jumps to the image with the given file name. An
// unknown name reloads the current image.
func (s *Session) LoadScene(name string) error {
	i, ok := s.data.Index(name)
	if !ok {
		log.Printf("No image named %s", name)
		i = s.index
	}
	return s.moveTo(i)
}

func (s *Session) moveTo(i int) error {
	if err := s.Save(); err != nil {
		return err
	}
	s.index = i
	if err := s.loadScene(); err != nil {
		return err
	}
	s.loadStrategy(s.strategy)
	s.postPosition()
	s.addInitialEgo()

	if s.prefs != nil {
		s.prefs.SetInt(prefs.KeyLastImage, s.index)
	}
	return nil
}

func (s *Session) postPosition() {
	s.hub.Post(EventSceneCount, s.index)
	s.hub.Post(EventSceneName, s.data.ImageName(s.index))
}

func (s *Session) loadScene() error {
	w, h, err := s.data.Resolution(s.index)
	if err != nil {
		return errors.Wrapf(err, "image %d", s.index)
	}
	sc, err := s.data.Annotation(s.index)
	if err != nil {
		return errors.Wrapf(err, "annotation %d", s.index)
	}
	if sc == nil {
		sc = scene.New()
	}
	s.sc, s.width, s.height = sc, w, h
	return nil
}

// addInitialEgo gives an unlabeled image an EGO track to start from unless
// its tags say the layout is unknown or the image is a duplicate.
func (s *Session) addInitialEgo() {
	if len(s.sc.Tracks()) > 0 {
		return
	}
	if s.sc.Tags.Has(scene.GroupTrackLayout, tagUnknownLayout) ||
		s.sc.Tags.Has(scene.GroupAdditionalAttributes, tagDuplicate) {
		return
	}
	t := s.sc.AddTrack(scene.PositionEgo, s.railWidth())
	s.hub.Post(EventTrackListUpdate, trackList(s.sc, t.ID))
	s.hub.Post(EventTrackSelect, t.ID)
	s.hub.Post(EventDisplay, nil)
}

func (s *Session) railWidth() float64 {
	if s.cfg.Data.RailWidth > 0 {
		return s.cfg.Data.RailWidth
	}
	return scene.DefaultRailWidth
}

func (s *Session) onStrategy(data interface{}) {
	var st Strategy
	switch v := data.(type) {
	case Strategy:
		st = v
	case string:
		parsed, err := ParseStrategy(v)
		if err != nil {
			log.Printf("Session: %v", err)
			return
		}
		st = parsed
	default:
		return
	}
	s.loadStrategy(st)
}

// SetStrategy swaps the annotation strategy.
func (s *Session) SetStrategy(st Strategy) { s.loadStrategy(st) }

func (s *Session) loadStrategy(st Strategy) {
	s.closeStrategy()

	switch st {
	case StrategySwitch:
		s.switches = NewSwitchAnnotator(s.hub, s.sc, s.crossHair, &s.opts, s.width, s.height)
		for _, t := range s.sc.Tracks() {
			if t.Selected {
				t.Selected = false
				break
			}
		}
	default:
		st = StrategyTrack
		s.tracks = NewTrackAnnotator(s.hub, s.sc, s.stencil, &s.opts, s.cfg, s.width, s.height)
		for _, sw := range s.sc.Switches() {
			if sw.Selected {
				sw.Selected = false
				break
			}
		}
	}
	s.strategy = st
	s.tags = NewTagAnnotator(s.hub, s.sc, s.cfg.Data.Tags)
}

func (s *Session) closeStrategy() {
	if s.tracks != nil {
		s.tracks.Close()
		s.tracks = nil
	}
	if s.switches != nil {
		s.switches.Close()
		s.switches = nil
	}
	if s.tags != nil {
		s.tags.Close()
		s.tags = nil
	}
}

// Save writes the current scene. Switches with a single mark lose it and
// EGO tracks without marks are dropped first.
func (s *Session) Save() error {
	if s.sc == nil {
		return nil
	}
	for _, sw := range s.sc.Switches() {
		if sw.Len() == 1 {
			sw.ClearMarks()
		}
	}
	for _, t := range s.sc.Tracks() {
		if t.Position == scene.PositionEgo && t.Empty() {
			s.sc.DelTrack(t.ID)
		}
	}
	return errors.Wrapf(s.data.WriteAnnotation(s.index, s.sc), "save %s", s.data.ImageName(s.index))
}

// CopyTags takes the tags of the previous image. Without overwrite only
// empty groups are filled. It does nothing on the first image or when the
// previous image has no annotation.
func (s *Session) CopyTags(overwrite bool) error {
	if s.index == 0 {
		return nil
	}
	prev, err := s.data.Annotation(s.index - 1)
	if err != nil {
		return err
	}
	if prev == nil {
		return nil
	}
	for _, g := range scene.GroupNames {
		if overwrite || len(s.sc.Tags.Group(g)) == 0 {
			s.sc.Tags.SetGroup(g, slices.Clone(prev.Tags.Group(g)))
		}
	}
	if s.tags != nil {
		s.tags.Publish()
	}
	return nil
}

// AutoLabel runs the detector on the current image and writes the rails
// into the EGO track.
func (s *Session) AutoLabel() error {
	if s.detector == nil {
		return errors.New("no track detector configured")
	}
	img, err := s.data.Image(s.index)
	if err != nil {
		return err
	}
	defer img.Close()

	rails, err := s.detector.Detect(img)
	if err != nil {
		return errors.Wrap(err, "detect tracks")
	}
	t, ok := autolabel.LabelEgo(s.sc, rails, s.railWidth())
	if !ok {
		log.Printf("No track detected on %s", s.data.ImageName(s.index))
		return nil
	}
	s.hub.Post(EventTrackListUpdate, trackList(s.sc, t.ID))
	s.hub.Post(EventTrackSelect, t.ID)
	s.hub.Post(EventDisplay, nil)
	return nil
}

// Render draws the scene and the aiming device of the active strategy on
// the current image. The caller closes the result.
func (s *Session) Render() (gocv.Mat, error) {
	img, err := s.data.Image(s.index)
	if err != nil {
		return img, err
	}
	switch {
	case s.tracks != nil:
		s.drawer.DrawScene(&img, s.sc, s.opts, nil)
		s.drawer.DrawStencil(&img, s.stencil, s.tracks.StencilColor())
	case s.switches != nil:
		cursor := s.switches.Cursor()
		s.drawer.DrawScene(&img, s.sc, s.opts, &cursor)
		s.drawer.DrawCrossHair(&img, s.crossHair)
	default:
		s.drawer.DrawScene(&img, s.sc, s.opts, nil)
	}
	return img, nil
}

// Display renders the current image to the display path, if one is set.
func (s *Session) Display() error {
	if s.displayPath == "" {
		return nil
	}
	img, err := s.Render()
	if err != nil {
		return err
	}
	defer img.Close()
	if !gocv.IMWrite(s.displayPath, img) {
		return fmt.Errorf("write %s", s.displayPath)
	}
	return nil
}

// Exit saves the scene, stores the preferences and detaches the session
// from the hub.
func (s *Session) Exit() error {
	if s.closed {
		return nil
	}
	err := s.Save()
	if s.prefs != nil {
		s.prefs.SetInt(prefs.KeyLastImage, s.index)
		s.prefs.SetString(prefs.KeyLabelMode, string(s.stencil.Mode()))
		if perr := s.prefs.Save(); perr != nil && err == nil {
			err = perr
		}
	}
	s.closeStrategy()
	s.hub.UnsubscribeAll(s)
	s.closed = true
	return err
}

// Closed reports whether Exit ran.
func (s *Session) Closed() bool { return s.closed }
