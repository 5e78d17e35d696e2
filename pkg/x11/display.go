package x11

import (
	"errors"
	"fmt"
	"strings"

	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/xkb"
	"github.com/linuxdeepin/go-x11-client/util/wm/ewmh"
	"go.uber.org/zap"

	"codeberg.org/miketth/mimicd/pkg/mimic"
)

var ErrNoXDisplay = errors.New("cannot connect to the X display, is DISPLAY set?")

// anyPropertyType is AnyPropertyType in X11 terms.
const anyPropertyType x.Atom = 0

// Display wraps the X connection and re-expresses the server's event stream
// as mimic events: window lifecycle from SubstructureNotify on the root,
// focus from _NET_ACTIVE_WINDOW, class/title updates from per-window
// PropertyNotify, and group changes from XkbStateNotify.
type Display struct {
	conn *x.Conn
	root x.Window
	log  *zap.SugaredLogger

	atomActiveWindow x.Atom
	atomWMClass      x.Atom
	atomWMName       x.Atom
	atomNetWMName    x.Atom
	atomRulesNames   x.Atom

	xkbFirstEvent uint8

	raw    chan x.GenericEvent
	events chan mimic.Event

	// last window reported as focused, touched only by the watch goroutine
	activeWindow x.Window
}

func Connect(log *zap.SugaredLogger) (*Display, error) {
	conn, err := x.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoXDisplay, err)
	}

	d := &Display{
		conn:   conn,
		root:   conn.GetDefaultScreen().Root,
		log:    log,
		raw:    make(chan x.GenericEvent, 64),
		events: make(chan mimic.Event, 64),
	}

	atoms := map[string]*x.Atom{
		"_NET_ACTIVE_WINDOW": &d.atomActiveWindow,
		"WM_CLASS":           &d.atomWMClass,
		"WM_NAME":            &d.atomWMName,
		"_NET_WM_NAME":       &d.atomNetWMName,
		"_XKB_RULES_NAMES":   &d.atomRulesNames,
	}
	for name, dst := range atoms {
		atom, err := conn.GetAtom(name)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("intern atom %s: %w", name, err)
		}
		*dst = atom
	}

	err = x.ChangeWindowAttributesChecked(conn, d.root, x.CWEventMask, []uint32{
		x.EventMaskPropertyChange | x.EventMaskSubstructureNotify,
	}).Check(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to root window events: %w", err)
	}

	return d, nil
}

func (d *Display) Close() error {
	d.conn.Close()
	return nil
}

// Events implements mimic.EventSource. The channel is closed when the
// connection goes down.
func (d *Display) Events() <-chan mimic.Event {
	return d.events
}

// Start registers for the raw event stream, snapshots the existing windows
// and current focus as synthetic events, and then translates live events
// until the connection closes. Call after Keyboard so Xkb events are
// selected.
func (d *Display) Start() error {
	if ext := d.conn.GetExtensionData(xkb.Ext()); ext != nil {
		d.xkbFirstEvent = ext.FirstEvent
	}
	d.conn.AddEventChan(d.raw)
	go d.watch()
	return nil
}

func (d *Display) watch() {
	defer close(d.events)

	// Existing windows first, then the current focus, so the engine's first
	// batch already reflects the real session.
	for _, win := range d.clients() {
		d.sendCreated(win)
	}
	d.emitFocusChange()

	for ev := range d.raw {
		switch ev.GetEventCode() {
		case x.CreateNotifyEventCode:
			e, err := x.NewCreateNotifyEvent(ev)
			if err != nil {
				continue
			}
			d.sendCreated(e.Window)

		case x.DestroyNotifyEventCode:
			e, err := x.NewDestroyNotifyEvent(ev)
			if err != nil {
				continue
			}
			if e.Window == d.activeWindow {
				d.activeWindow = 0
			}
			d.events <- mimic.Event{Kind: mimic.EventDestroyed, Window: mimic.WindowID(e.Window)}

		case x.PropertyNotifyEventCode:
			e, err := x.NewPropertyNotifyEvent(ev)
			if err != nil {
				continue
			}
			d.handleProperty(e)

		default:
			if d.xkbFirstEvent != 0 && ev.GetEventCode() == d.xkbFirstEvent {
				if state, err := xkb.NewStateNotifyEvent(ev); err == nil {
					d.events <- mimic.Event{Kind: mimic.EventGroupChanged, Group: int(state.LockedGroup)}
				}
			}
		}
	}

	d.log.Warn("X connection closed")
}

func (d *Display) handleProperty(e *x.PropertyNotifyEvent) {
	switch {
	case e.Window == d.root && e.Atom == d.atomActiveWindow:
		d.emitFocusChange()

	case e.Atom == d.atomWMClass:
		d.events <- mimic.Event{
			Kind:   mimic.EventClassChanged,
			Window: mimic.WindowID(e.Window),
			Class:  d.wmClass(e.Window),
		}

	case e.Atom == d.atomNetWMName || e.Atom == d.atomWMName:
		d.events <- mimic.Event{
			Kind:   mimic.EventTitleChanged,
			Window: mimic.WindowID(e.Window),
			Title:  d.wmName(e.Window),
		}
	}
}

// emitFocusChange reads _NET_ACTIVE_WINDOW and, when it moved, emits the
// focus-out for the old window strictly before the focus-in for the new one.
func (d *Display) emitFocusChange() {
	active, err := ewmh.GetActiveWindow(d.conn).Reply(d.conn)
	if err != nil {
		d.log.Debugf("get active window: %v", err)
		return
	}
	if active == d.activeWindow {
		return
	}

	if d.activeWindow != 0 {
		d.events <- mimic.Event{Kind: mimic.EventFocusOut, Window: mimic.WindowID(d.activeWindow)}
	}
	d.activeWindow = active
	if active != 0 {
		// Under a reparenting WM the focused window may be one we never saw a
		// CreateNotify for, so treat it exactly like a new window: watch it
		// and fetch the full property set, not just the class.
		d.watchWindow(active)
		d.events <- d.describe(mimic.EventFocusIn, active)
	}
}

func (d *Display) sendCreated(win x.Window) {
	d.watchWindow(win)
	d.events <- d.describe(mimic.EventCreated, win)
}

// watchWindow subscribes to the window's own PropertyNotify so later
// WM_CLASS / title changes reach us. The window may be gone already; that is
// fine.
func (d *Display) watchWindow(win x.Window) {
	err := x.ChangeWindowAttributesChecked(d.conn, win, x.CWEventMask, []uint32{
		x.EventMaskPropertyChange,
	}).Check(d.conn)
	if err != nil {
		d.log.Debugf("watch window %d: %v", win, err)
	}
}

// describe builds an event carrying everything the selectors can match on.
func (d *Display) describe(kind mimic.EventKind, win x.Window) mimic.Event {
	ev := mimic.Event{
		Kind:   kind,
		Window: mimic.WindowID(win),
		Class:  d.wmClass(win),
		Title:  d.wmName(win),
	}
	if pid, err := ewmh.GetWMPid(d.conn, win).Reply(d.conn); err == nil {
		ev.PID = uint32(pid)
	}
	return ev
}

func (d *Display) clients() []x.Window {
	reply, err := x.QueryTree(d.conn, d.root).Reply(d.conn)
	if err != nil {
		d.log.Warnf("query window tree: %v", err)
		return nil
	}
	return reply.Children
}

// wmClass returns the window's WM_CLASS as "instance.class", or "" when the
// property cannot be read.
func (d *Display) wmClass(win x.Window) string {
	reply, err := x.GetProperty(d.conn, false, win, d.atomWMClass, anyPropertyType, 0, 1024).Reply(d.conn)
	if err != nil || reply.Format != 8 {
		return ""
	}
	return parseWMClass(reply.Value)
}

// parseWMClass joins a raw WM_CLASS value ("instance\0class\0") as
// "instance.class". Windows that set only one field report just that field.
func parseWMClass(value []byte) string {
	if len(value) == 0 {
		return ""
	}
	parts := strings.Split(strings.TrimRight(string(value), "\x00"), "\x00")
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// wmName prefers _NET_WM_NAME and falls back to the legacy WM_NAME.
func (d *Display) wmName(win x.Window) string {
	if name, err := ewmh.GetWMName(d.conn, win).Reply(d.conn); err == nil && name != "" {
		return name
	}
	reply, err := x.GetProperty(d.conn, false, win, d.atomWMName, anyPropertyType, 0, 1024).Reply(d.conn)
	if err != nil || reply.Format != 8 {
		return ""
	}
	return parseWMName(reply.Value)
}

// parseWMName strips the terminating NUL some clients include in WM_NAME.
func parseWMName(value []byte) string {
	return strings.TrimRight(string(value), "\x00")
}

// RulesNames returns the raw _XKB_RULES_NAMES property of the root window,
// which lists the configured layouts and variants.
func (d *Display) RulesNames() ([]byte, error) {
	reply, err := x.GetProperty(d.conn, false, d.root, d.atomRulesNames, anyPropertyType, 0, 1024).Reply(d.conn)
	if err != nil {
		return nil, fmt.Errorf("get _XKB_RULES_NAMES: %w", err)
	}
	if reply.Format != 8 || len(reply.Value) == 0 {
		return nil, errors.New("_XKB_RULES_NAMES is empty, no XKB layout configured?")
	}
	return reply.Value, nil
}
