package app

// ListView mirrors a target list published on the hub, the way a list
// widget would. When an update asks for the newest item it selects the
// last row and posts the select event.
type ListView struct {
	hub         *Hub
	selectEvent EventType

	items    []ListItem
	selected int
}

// NewTrackListView follows TRACK_LIST_UPDATE.
func NewTrackListView(hub *Hub) *ListView {
	return newListView(hub, EventTrackListUpdate, EventTrackSelect)
}

// NewSwitchListView follows SWITCH_LIST_UPDATE.
func NewSwitchListView(hub *Hub) *ListView {
	return newListView(hub, EventSwitchListUpdate, EventSwitchSelect)
}

func newListView(hub *Hub, updateEvent, selectEvent EventType) *ListView {
	v := &ListView{hub: hub, selectEvent: selectEvent, selected: SelectNone}
	hub.Subscribe(updateEvent, v, v.onUpdate)
	hub.Subscribe(selectEvent, v, func(d interface{}) { v.selected = asInt(d, SelectNone) })
	return v
}

func (v *ListView) onUpdate(data interface{}) {
	u, ok := data.(ListUpdate)
	if !ok {
		return
	}
	v.items = u.Items
	switch {
	case u.Selected == SelectNewest && len(u.Items) > 0:
		v.Select(u.Items[len(u.Items)-1].ID)
	case u.Selected >= 0:
		v.selected = u.Selected
	default:
		v.selected = SelectNone
	}
}

// Select posts the select event for an id.
func (v *ListView) Select(id int) {
	v.selected = id
	v.hub.Post(v.selectEvent, id)
}

// Items returns the rows of the last update.
func (v *ListView) Items() []ListItem { return v.items }

// Selected returns the highlighted id or SelectNone.
func (v *ListView) Selected() int { return v.selected }

// Close drops the subscriptions of the view.
func (v *ListView) Close() { v.hub.UnsubscribeAll(v) }
