package mimic

import (
	"fmt"

	"go.uber.org/zap"
)

// groupUnknown forces the first evaluation to issue a real lock request, so
// the device state is known from then on.
const groupUnknown = -1

// Switcher owns the keyboard group decision: target group while a target
// window is focused, default group otherwise. It caches the group it believes
// is active and suppresses redundant lock requests.
type Switcher struct {
	keyboard     GroupLocker
	log          *zap.SugaredLogger
	defaultGroup int
	targetGroup  int
	current      int
}

func NewSwitcher(keyboard GroupLocker, defaultGroup, targetGroup int, log *zap.SugaredLogger) *Switcher {
	return &Switcher{
		keyboard:     keyboard,
		log:          log,
		defaultGroup: defaultGroup,
		targetGroup:  targetGroup,
		current:      groupUnknown,
	}
}

// Evaluate decides the group for the given focus state and locks it if the
// decision changed. A rejected lock request is returned as-is and leaves the
// cached group untouched, so it keeps reflecting the real device state.
func (s *Switcher) Evaluate(focused WindowID, hasFocus bool, registry *Registry) error {
	want := s.defaultGroup
	if hasFocus && registry.IsMatch(focused) {
		want = s.targetGroup
	}

	if want == s.current {
		return nil
	}

	if err := s.keyboard.LockGroup(want); err != nil {
		return fmt.Errorf("lock group %d: %w", want, err)
	}

	s.log.Debugf("layout group %d -> %d", s.current, want)
	s.current = want
	return nil
}

// Observe folds in a group change done by another client. The cached group is
// just a mirror of the device, so an external change only updates the mirror;
// the next Evaluate issues a real request again if needed.
func (s *Switcher) Observe(group int) {
	if group == s.current {
		return
	}
	s.log.Debugf("layout group changed externally to %d", group)
	s.current = group
}

// Restore puts the default group back. Called on every exit path.
func (s *Switcher) Restore() error {
	if s.current == s.defaultGroup {
		return nil
	}
	if err := s.keyboard.LockGroup(s.defaultGroup); err != nil {
		return fmt.Errorf("lock group %d: %w", s.defaultGroup, err)
	}
	s.current = s.defaultGroup
	return nil
}
