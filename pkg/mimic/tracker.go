package mimic

import (
	"go.uber.org/zap"
)

// Tracker applies window lifecycle and focus events to the registry, one at a
// time, in arrival order.
type Tracker struct {
	registry *Registry
	log      *zap.SugaredLogger
}

func NewTracker(registry *Registry, log *zap.SugaredLogger) *Tracker {
	return &Tracker{registry: registry, log: log}
}

func (t *Tracker) Apply(ev Event) {
	switch ev.Kind {
	case EventCreated:
		w := t.registry.Upsert(ev.Window, ev.Class)
		if ev.Title != "" {
			t.registry.SetTitle(ev.Window, ev.Title)
		}
		if ev.PID != 0 {
			t.registry.SetPID(ev.Window, ev.PID)
		}
		t.log.Debugf("window %d created, class %q, target: %v", ev.Window, w.Class, w.Target)

	case EventDestroyed:
		if w, ok := t.registry.Lookup(ev.Window); ok && w.Focused {
			t.log.Debugf("focused window %d destroyed", ev.Window)
		}
		t.registry.Remove(ev.Window)

	case EventClassChanged:
		w := t.registry.Upsert(ev.Window, ev.Class)
		t.log.Debugf("window %d class now %q, target: %v", ev.Window, w.Class, w.Target)

	case EventTitleChanged:
		t.registry.SetTitle(ev.Window, ev.Title)

	case EventFocusOut:
		t.registry.ClearFocus(ev.Window)

	case EventFocusIn:
		// The class is fetched fresh for every focus change, but an empty
		// result must not erase one learned earlier.
		if _, ok := t.registry.Lookup(ev.Window); !ok || ev.Class != "" {
			t.registry.Upsert(ev.Window, ev.Class)
		}
		if ev.Title != "" {
			t.registry.SetTitle(ev.Window, ev.Title)
		}
		if ev.PID != 0 {
			t.registry.SetPID(ev.Window, ev.PID)
		}
		t.registry.SetFocused(ev.Window)
		t.log.Debugf("window %d focused, target: %v", ev.Window, t.registry.IsMatch(ev.Window))
	}
}

// Focused reports the currently focused window after the events applied so
// far.
func (t *Tracker) Focused() (WindowID, bool) {
	return t.registry.Focused()
}
