package mimic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrEventStreamClosed is returned by Engine.Run when the display connection
// stops delivering events. There is no retry; the process is expected to
// exit.
var ErrEventStreamClosed = errors.New("display event stream closed")

// Engine is the single-threaded event loop: it blocks until events arrive,
// drains everything queued into one batch, applies the batch to the tracker
// in order and then evaluates the switcher exactly once. All state mutation
// happens on the calling goroutine.
type Engine struct {
	source   EventSource
	registry *Registry
	tracker  *Tracker
	switcher *Switcher
	log      *zap.SugaredLogger
}

func NewEngine(source EventSource, keyboard GroupLocker, selector Selector, defaultGroup, targetGroup int, log *zap.SugaredLogger) *Engine {
	registry := NewRegistry(selector)
	return &Engine{
		source:   source,
		registry: registry,
		tracker:  NewTracker(registry, log),
		switcher: NewSwitcher(keyboard, defaultGroup, targetGroup, log),
		log:      log,
	}
}

// Run loops until ctx is cancelled or the event stream closes. On every exit
// path the default group is restored, best-effort.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if err := e.switcher.Restore(); err != nil {
			e.log.Warnf("restore default layout group: %v", err)
		}
	}()

	events := e.source.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return ErrEventStreamClosed
			}
			for _, ev := range drain(ev, events) {
				e.apply(ev)
			}
			focused, hasFocus := e.tracker.Focused()
			if err := e.switcher.Evaluate(focused, hasFocus, e.registry); err != nil {
				return fmt.Errorf("evaluate focus change: %w", err)
			}
		}
	}
}

func (e *Engine) apply(ev Event) {
	if ev.Kind == EventGroupChanged {
		e.switcher.Observe(ev.Group)
		return
	}
	e.tracker.Apply(ev)
}

// drain collects everything already queued behind the first event, so a focus
// transition that arrives as several events causes at most one lock request.
func drain(first Event, events <-chan Event) []Event {
	batch := []Event{first}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}
