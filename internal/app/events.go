package app

import (
	"fmt"
	"sync"
)

// EventType identifies different annotation events.
type EventType int

const (
	EventExit EventType = iota
	EventNext
	EventPrevious
	EventSceneName
	EventSceneCount
	EventLoadScene
	EventMark
	EventRemove
	EventDisplay
	EventStrategy
	EventMouseMove

	EventTrackCreateEgo
	EventTrackCreateLeft
	EventTrackCreateRight
	EventTrackDelete
	EventTrackSelect
	EventTrackMarks
	EventTrackSplines
	EventTrackContour
	EventTrackFill
	EventTrackListUpdate
	EventTrackStencilSide
	EventTrackWidthIncr
	EventTrackWidthDecr
	EventTrackAngleIncr
	EventTrackAngleDecr
	EventTrackChangePosition
	EventIndependentMode
	EventAutoLabelingTrack
	EventDrag
	EventDrop

	EventSwitchForkRight
	EventSwitchForkLeft
	EventSwitchForkUnknown
	EventSwitchMergeRight
	EventSwitchMergeLeft
	EventSwitchMergeUnknown
	EventSwitchUnknownLeft
	EventSwitchUnknownRight
	EventSwitchUnknownUnknown
	EventSwitchDelete
	EventSwitchSelect
	EventSwitchShowBox
	EventSwitchShowMarks
	EventSwitchShowText
	EventSwitchListUpdate
	EventSwitchChangeSwitch

	EventTagTrackLayout
	EventTagWeather
	EventTagLight
	EventTagTimeOfDay
	EventTagEnvironment
	EventTagAdditional
	EventTagAllListsUpdate
	EventTagCopy
	EventTagCopyOverwrite
)

var eventNames = map[EventType]string{
	EventExit:                 "EXIT",
	EventNext:                 "NEXT",
	EventPrevious:             "PREVIOUS",
	EventSceneName:            "SCENE_NAME",
	EventSceneCount:           "SCENE_COUNT",
	EventLoadScene:            "LOAD_SCENE",
	EventMark:                 "MARK",
	EventRemove:               "REMOVE",
	EventDisplay:              "DISPLAY",
	EventStrategy:             "STRATEGY",
	EventMouseMove:            "MOUSE_MOVE",
	EventTrackCreateEgo:       "TRACK_CREATE_EGO",
	EventTrackCreateLeft:      "TRACK_CREATE_LEFT",
	EventTrackCreateRight:     "TRACK_CREATE_RIGHT",
	EventTrackDelete:          "TRACK_DELETE",
	EventTrackSelect:          "TRACK_SELECT",
	EventTrackMarks:           "TRACK_MARKS",
	EventTrackSplines:         "TRACK_SPLINES",
	EventTrackContour:         "TRACK_CONTOUR",
	EventTrackFill:            "TRACK_FILL",
	EventTrackListUpdate:      "TRACK_LIST_UPDATE",
	EventTrackStencilSide:     "TRACK_STENCIL_SIDE",
	EventTrackWidthIncr:       "TRACK_WIDTH_INCR",
	EventTrackWidthDecr:       "TRACK_WIDTH_DECR",
	EventTrackAngleIncr:       "TRACK_ANGLE_INCR",
	EventTrackAngleDecr:       "TRACK_ANGLE_DECR",
	EventTrackChangePosition:  "TRACK_CHANGE_POSITION",
	EventIndependentMode:      "INDEPENDENT_MODE",
	EventAutoLabelingTrack:    "AUTO_LABELING_TRACK",
	EventDrag:                 "DRAG",
	EventDrop:                 "DROP",
	EventSwitchForkRight:      "SWITCH_FORK_RIGHT",
	EventSwitchForkLeft:       "SWITCH_FORK_LEFT",
	EventSwitchForkUnknown:    "SWITCH_FORK_UNKNOWN",
	EventSwitchMergeRight:     "SWITCH_MERGE_RIGHT",
	EventSwitchMergeLeft:      "SWITCH_MERGE_LEFT",
	EventSwitchMergeUnknown:   "SWITCH_MERGE_UNKNOWN",
	EventSwitchUnknownLeft:    "SWITCH_UNKNOWN_LEFT",
	EventSwitchUnknownRight:   "SWITCH_UNKNOWN_RIGHT",
	EventSwitchUnknownUnknown: "SWITCH_UNKNOWN_UNKNOWN",
	EventSwitchDelete:         "SWITCH_DELETE",
	EventSwitchSelect:         "SWITCH_SELECT",
	EventSwitchShowBox:        "SWITCH_SHOW_BOX",
	EventSwitchShowMarks:      "SWITCH_SHOW_MARKS",
	EventSwitchShowText:       "SWITCH_SHOW_TEXT",
	EventSwitchListUpdate:     "SWITCH_LIST_UPDATE",
	EventSwitchChangeSwitch:   "SWITCH_CHANGE_SWITCH",
	EventTagTrackLayout:       "TAG_TRACK_LAYOUT",
	EventTagWeather:           "TAG_WEATHER",
	EventTagLight:             "TAG_LIGHT",
	EventTagTimeOfDay:         "TAG_TIME_OF_DAY",
	EventTagEnvironment:       "TAG_ENVIRONMENT",
	EventTagAdditional:        "TAG_ADDITIONAL",
	EventTagAllListsUpdate:    "TAG_ALL_LISTS_UPDATE",
	EventTagCopy:              "TAG_COPY",
	EventTagCopyOverwrite:     "TAG_COPY_OVERWRITE",
}

func (e EventType) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(e))
}

// ParseEventType looks an event up by its name, e.g. "TRACK_CREATE_EGO".
func ParseEventType(name string) (EventType, error) {
	for e, n := range eventNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Subscription identifies one registered listener.
type Subscription struct {
	Event EventType
	id    uint64
}

type subscriber struct {
	id       uint64
	owner    interface{}
	listener EventListener
}

// Hub dispatches events to listeners synchronously, in subscription order.
// The owner given on Subscribe groups listeners so a component can drop
// all of its subscriptions at once.
type Hub struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[EventType][]subscriber
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[EventType][]subscriber)}
}

// Subscribe registers a listener for an event. owner must be comparable,
// usually a pointer to the subscribing component.
func (h *Hub) Subscribe(event EventType, owner interface{}, listener EventListener) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.listeners[event] = append(h.listeners[event], subscriber{id: h.nextID, owner: owner, listener: listener})
	return Subscription{Event: event, id: h.nextID}
}

// Unsubscribe removes one listener.
func (h *Hub) Unsubscribe(sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.listeners[sub.Event]
	for i, s := range subs {
		if s.id == sub.id {
			h.listeners[sub.Event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll removes every listener registered by owner.
func (h *Hub) UnsubscribeAll(owner interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for event, subs := range h.listeners {
		kept := subs[:0:0]
		for _, s := range subs {
			if s.owner != owner {
				kept = append(kept, s)
			}
		}
		h.listeners[event] = kept
	}
}

// Post calls every listener of an event. Listeners subscribed or removed
// while the event is dispatched take effect from the next Post.
func (h *Hub) Post(event EventType, data interface{}) {
	h.mu.RLock()
	listeners := make([]EventListener, len(h.listeners[event]))
	for i, s := range h.listeners[event] {
		listeners[i] = s.listener
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		l(data)
	}
}

// Subscribers returns the number of listeners of an event.
func (h *Hub) Subscribers(event EventType) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[event])
}
