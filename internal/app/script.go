package app

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"rail-labeler/internal/scene"
	"rail-labeler/pkg/geometry"
)

// ParseCommand reads one script line: an event name followed by its
// payload. Points are "x y", ids and steps integers, display toggles
// "true" or "false", tags a comma separated list. TRACK_CHANGE_POSITION
// takes "id position" and SWITCH_CHANGE_SWITCH "id kind direction".
func ParseCommand(line string) (EventType, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, errors.New("empty command")
	}
	event, err := ParseEventType(strings.ToUpper(fields[0]))
	if err != nil {
		return 0, nil, err
	}
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch event {
	case EventMouseMove, EventDrag, EventDrop:
		p, err := parsePoint(args)
		return event, p, err

	case EventTrackSelect, EventSwitchSelect,
		EventTrackWidthIncr, EventTrackWidthDecr, EventTrackAngleIncr, EventTrackAngleDecr:
		if len(args) == 0 {
			return event, nil, nil
		}
		n, err := strconv.Atoi(args[0])
		return event, n, errors.Wrap(err, event.String())

	case EventTrackMarks, EventTrackSplines, EventTrackContour, EventTrackFill,
		EventSwitchShowBox, EventSwitchShowMarks, EventSwitchShowText:
		if len(args) != 1 {
			return event, nil, errors.Errorf("%s: want true or false", event)
		}
		on, err := strconv.ParseBool(args[0])
		return event, on, errors.Wrap(err, event.String())

	case EventLoadScene:
		if rest == "" {
			return event, nil, errors.Errorf("%s: missing image name", event)
		}
		return event, rest, nil

	case EventStrategy:
		if len(args) != 1 {
			return event, nil, errors.Errorf("%s: want TRACK or SWITCH", event)
		}
		st, err := ParseStrategy(strings.ToUpper(args[0]))
		return event, st, err

	case EventTrackChangePosition:
		if len(args) != 2 {
			return event, nil, errors.Errorf("%s: want id and position", event)
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return event, nil, errors.Wrap(err, event.String())
		}
		pos, err := scene.ParsePosition(strings.ToLower(args[1]))
		return event, PositionChange{TrackID: id, Position: pos}, err

	case EventSwitchChangeSwitch:
		if len(args) != 3 {
			return event, nil, errors.Errorf("%s: want id, kind and direction", event)
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return event, nil, errors.Wrap(err, event.String())
		}
		kind, err := scene.ParseSwitchKind(strings.ToLower(args[1]))
		if err != nil {
			return event, nil, err
		}
		dir, err := scene.ParseSwitchDirection(strings.ToLower(args[2]))
		return event, SwitchChange{SwitchID: id, Kind: kind, Direction: dir}, err

	case EventTagTrackLayout, EventTagWeather, EventTagLight, EventTagTimeOfDay,
		EventTagEnvironment, EventTagAdditional:
		tags := []string{}
		for _, t := range strings.Split(rest, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return event, tags, nil
	}
	return event, nil, nil
}

func parsePoint(args []string) (geometry.ImagePoint, error) {
	if len(args) != 2 {
		return geometry.ImagePoint{}, errors.Errorf("want x and y, got %d values", len(args))
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return geometry.ImagePoint{}, errors.Wrap(err, "x")
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return geometry.ImagePoint{}, errors.Wrap(err, "y")
	}
	return geometry.ImagePoint{X: x, Y: y}, nil
}

// RunScript posts the commands read from r on the session hub until the
// input ends or the session exits. Blank lines and lines starting with #
// are skipped. It returns the number of posted commands.
func RunScript(r io.Reader, s *Session) (int, error) {
	posted := 0
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		event, payload, err := ParseCommand(line)
		if err != nil {
			return posted, errors.Wrapf(err, "line %d", n)
		}
		s.Hub().Post(event, payload)
		posted++
		if s.Closed() {
			break
		}
	}
	return posted, errors.Wrap(sc.Err(), "read script")
}
