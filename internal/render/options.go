package render

// Options selects which parts of the scene are drawn. Each annotation
// session owns its own set.
type Options uint16

const (
	RailMarks Options = 1 << iota
	RailSplines
	RailContour
	RailFill
	BedContour
	BedFill
	SwitchMarks
	SwitchBox
	SwitchText
)

// TrackOptions are the track toggles used by the annotation view on start.
const TrackOptions = RailMarks | RailContour | BedContour

// SwitchOptions are the switch toggles used on start.
const SwitchOptions = SwitchMarks | SwitchBox | SwitchText

// DefaultOptions returns the options an annotation session starts with.
func DefaultOptions() Options {
	return TrackOptions | SwitchOptions
}

// MaskOptions draws filled areas only, as used for pixel masks.
const MaskOptions = RailFill | BedFill

// Has reports whether every flag in f is set.
func (o Options) Has(f Options) bool { return o&f == f }

// Any reports whether at least one flag in f is set.
func (o Options) Any(f Options) bool { return o&f != 0 }

// Toggle flips every flag in f.
func (o *Options) Toggle(f Options) { *o ^= f }

// Set turns flags on or off.
func (o *Options) Set(f Options, on bool) {
	if on {
		*o |= f
	} else {
		*o &^= f
	}
}
