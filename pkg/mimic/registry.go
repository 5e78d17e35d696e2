package mimic

// Registry holds the live set of windows known to the display server and
// which of them are targets for the layout override. It is only ever touched
// from the event loop, so there is no locking.
type Registry struct {
	selector Selector
	windows  map[WindowID]*Window
	focused  WindowID
	// bound is the window a non-continuous selector locked onto. Binding is
	// one-shot: it survives class changes and is not reassigned when the
	// bound window goes away.
	bound WindowID
}

func NewRegistry(selector Selector) *Registry {
	return &Registry{
		selector: selector,
		windows:  make(map[WindowID]*Window),
	}
}

// Upsert inserts a new record or updates the class of an existing one, then
// re-evaluates its target state. Idempotent.
func (r *Registry) Upsert(id WindowID, class string) *Window {
	w := r.getOrCreate(id)
	w.Class = class
	r.recompute(w)
	return w
}

// SetTitle records a window's title, creating the record if needed.
func (r *Registry) SetTitle(id WindowID, title string) *Window {
	w := r.getOrCreate(id)
	w.Title = title
	r.recompute(w)
	return w
}

// SetPID records the owning process, creating the record if needed.
func (r *Registry) SetPID(id WindowID, pid uint32) *Window {
	w := r.getOrCreate(id)
	w.PID = pid
	r.recompute(w)
	return w
}

// Remove drops the record. If the window was focused, focus becomes "none"
// until the next focus event.
func (r *Registry) Remove(id WindowID) {
	if r.focused == id {
		r.focused = None
	}
	delete(r.windows, id)
}

func (r *Registry) Lookup(id WindowID) (*Window, bool) {
	w, ok := r.windows[id]
	return w, ok
}

// IsMatch reports whether the window is currently a target. An id selector
// matches its handle even when the record (or its class) is unavailable.
func (r *Registry) IsMatch(id WindowID) bool {
	w, ok := r.windows[id]
	if !ok {
		return r.selector.MatchesID(id)
	}
	return w.Target
}

// SetFocused marks id as the focused window, clearing the flag on the
// previously focused record. Unknown windows get a record first.
func (r *Registry) SetFocused(id WindowID) {
	if r.focused == id {
		return
	}
	r.ClearFocus(r.focused)
	w := r.getOrCreate(id)
	w.Focused = true
	r.focused = id
}

// ClearFocus unmarks id if it is the focused window. It does not by itself
// pick a successor; the next focus-in is authoritative.
func (r *Registry) ClearFocus(id WindowID) {
	if id == None || r.focused != id {
		return
	}
	if w, ok := r.windows[id]; ok {
		w.Focused = false
	}
	r.focused = None
}

// Focused returns the currently focused window, if any.
func (r *Registry) Focused() (WindowID, bool) {
	return r.focused, r.focused != None
}

func (r *Registry) Len() int {
	return len(r.windows)
}

func (r *Registry) getOrCreate(id WindowID) *Window {
	w, ok := r.windows[id]
	if !ok {
		w = &Window{ID: id}
		r.windows[id] = w
		r.recompute(w)
	}
	return w
}

func (r *Registry) recompute(w *Window) {
	if r.selector.Continuous() {
		w.Target = r.selector.Matches(w)
		return
	}
	if r.bound == None && r.selector.Matches(w) {
		r.bound = w.ID
	}
	w.Target = w.ID == r.bound
}
