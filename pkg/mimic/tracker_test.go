package mimic

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTracker(selector Selector) (*Tracker, *Registry) {
	reg := NewRegistry(selector)
	return NewTracker(reg, zap.NewNop().Sugar()), reg
}

func TestTrackerLifecycle(t *testing.T) {
	tr, reg := newTestTracker(ByClass("discord.discord", true))

	tr.Apply(Event{Kind: EventCreated, Window: 1, Class: "discord.discord", PID: 500})
	tr.Apply(Event{Kind: EventCreated, Window: 2, Class: "xterm.XTerm"})

	assert.Equal(t, 2, reg.Len())
	assert.True(t, reg.IsMatch(1))
	assert.False(t, reg.IsMatch(2))

	tr.Apply(Event{Kind: EventDestroyed, Window: 1})
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Lookup(1)
	assert.False(t, ok, "destroyed windows leave no tombstone")
}

func TestTrackerClassKnownOnlyLater(t *testing.T) {
	tr, reg := newTestTracker(ByClass("discord.discord", true))

	// class not yet set at creation time
	tr.Apply(Event{Kind: EventCreated, Window: 1})
	assert.False(t, reg.IsMatch(1))

	// arrives with the property-change event
	tr.Apply(Event{Kind: EventClassChanged, Window: 1, Class: "discord.discord"})
	assert.True(t, reg.IsMatch(1))
}

func TestTrackerFocusOrdering(t *testing.T) {
	tr, reg := newTestTracker(ByClass("a", true))

	tr.Apply(Event{Kind: EventCreated, Window: 1, Class: "a.a"})
	tr.Apply(Event{Kind: EventCreated, Window: 2, Class: "b.b"})

	tr.Apply(Event{Kind: EventFocusIn, Window: 1, Class: "a.a"})
	id, ok := tr.Focused()
	require.True(t, ok)
	assert.Equal(t, WindowID(1), id)

	// focus-out arrives before the paired focus-in
	tr.Apply(Event{Kind: EventFocusOut, Window: 1})
	_, ok = tr.Focused()
	assert.False(t, ok)

	tr.Apply(Event{Kind: EventFocusIn, Window: 2, Class: "b.b"})
	id, ok = tr.Focused()
	require.True(t, ok)
	assert.Equal(t, WindowID(2), id)

	w1, _ := reg.Lookup(1)
	assert.False(t, w1.Focused)
}

func TestTrackerFocusInForUnknownWindow(t *testing.T) {
	tr, reg := newTestTracker(ByClass("discord", true))

	tr.Apply(Event{Kind: EventFocusIn, Window: 9, Class: "discord.discord"})

	id, ok := tr.Focused()
	require.True(t, ok)
	assert.Equal(t, WindowID(9), id)
	assert.True(t, reg.IsMatch(9))
}

// A reparenting WM can focus a window that never produced a CreateNotify on
// the root; the focus-in itself must carry enough for every selector kind.
func TestTrackerFocusInCarriesPidAndTitle(t *testing.T) {
	tr, reg := newTestTracker(ByPid(4321))

	tr.Apply(Event{Kind: EventFocusIn, Window: 7, Class: "xterm.XTerm", Title: "bash", PID: 4321})

	assert.True(t, reg.IsMatch(7), "pid selector matches a window first seen at focus time")
	id, ok := tr.Focused()
	require.True(t, ok)
	assert.Equal(t, WindowID(7), id)

	tr2, reg2 := newTestTracker(ByName("Inbox", false))
	tr2.Apply(Event{Kind: EventFocusIn, Window: 8, Class: "thunderbird.Thunderbird", Title: "Inbox - Thunderbird", PID: 99})
	assert.True(t, reg2.IsMatch(8), "name selector matches a window first seen at focus time")
}

func TestTrackerEmptyFocusClassKeepsKnownClass(t *testing.T) {
	tr, reg := newTestTracker(ByClass("discord", true))

	tr.Apply(Event{Kind: EventCreated, Window: 1, Class: "discord.discord"})
	// the class fetch failed transiently during the focus change
	tr.Apply(Event{Kind: EventFocusIn, Window: 1})

	assert.True(t, reg.IsMatch(1), "a transient class lookup failure must not unlearn the class")
}

func TestTrackerDestroyFocusedWindow(t *testing.T) {
	tr, _ := newTestTracker(ByID(1))

	tr.Apply(Event{Kind: EventCreated, Window: 1})
	tr.Apply(Event{Kind: EventFocusIn, Window: 1})
	tr.Apply(Event{Kind: EventDestroyed, Window: 1})

	_, ok := tr.Focused()
	assert.False(t, ok, "focus is none until the next focus event")
}

// At most one record is focused, under any interleaving of focus events.
func TestTrackerSingleFocusProperty(t *testing.T) {
	tr, reg := newTestTracker(ByClass("a", true))
	rng := rand.New(rand.NewSource(1))

	windows := []WindowID{1, 2, 3, 4, 5}
	for _, id := range windows {
		tr.Apply(Event{Kind: EventCreated, Window: id, Class: "w.w"})
	}

	for i := 0; i < 1000; i++ {
		id := windows[rng.Intn(len(windows))]
		if rng.Intn(2) == 0 {
			tr.Apply(Event{Kind: EventFocusIn, Window: id, Class: "w.w"})
		} else {
			tr.Apply(Event{Kind: EventFocusOut, Window: id})
		}

		focused := 0
		for _, wid := range windows {
			if w, ok := reg.Lookup(wid); ok && w.Focused {
				focused++
			}
		}
		require.LessOrEqual(t, focused, 1, "more than one window focused after %d events", i+1)
	}
}
