package mimic

// WindowID is the identifier the display server assigned to a window. It is
// stable for the window's lifetime and serves as the registry key.
type WindowID uint32

// None is the "no window" id.
const None WindowID = 0

// Window is the registry's view of one window.
type Window struct {
	ID      WindowID
	Class   string // instance.class, empty while unknown
	Title   string
	PID     uint32
	Target  bool
	Focused bool
}

type EventKind int

const (
	EventCreated EventKind = iota
	EventDestroyed
	EventClassChanged
	EventTitleChanged
	EventFocusOut
	EventFocusIn
	// EventGroupChanged reports a layout group change done by some other
	// client, so the switcher can resync its cached group.
	EventGroupChanged
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	case EventClassChanged:
		return "class-changed"
	case EventTitleChanged:
		return "title-changed"
	case EventFocusOut:
		return "focus-out"
	case EventFocusIn:
		return "focus-in"
	case EventGroupChanged:
		return "group-changed"
	}
	return "unknown"
}

// Event is one window-lifecycle, focus or keyboard-state change, already
// translated from the display server's wire format. Only the fields relevant
// for the Kind are set.
type Event struct {
	Kind   EventKind
	Window WindowID
	Class  string
	Title  string
	PID    uint32
	Group  int
}
