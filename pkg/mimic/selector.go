package mimic

import (
	"fmt"
	"strings"
)

type selectorKind int

const (
	selectByID selectorKind = iota
	selectByClass
	selectByPid
	selectByName
)

// Selector decides which windows get the target layout group. It is immutable
// once constructed; binding state for non-continuous selectors lives in the
// Registry.
type Selector struct {
	kind    selectorKind
	id      WindowID
	pid     uint32
	pattern string
	all     bool
}

func ByID(id WindowID) Selector {
	return Selector{kind: selectByID, id: id}
}

// ByClass matches on the instance.class string the window reports
// (case-sensitive substring). With all=true every present and future match is
// a target, otherwise only the first match observed.
func ByClass(pattern string, all bool) Selector {
	return Selector{kind: selectByClass, pattern: pattern, all: all}
}

func ByPid(pid uint32) Selector {
	return Selector{kind: selectByPid, pid: pid}
}

// ByName matches on the window title, same semantics as ByClass.
func ByName(pattern string, all bool) Selector {
	return Selector{kind: selectByName, pattern: pattern, all: all}
}

// Continuous reports whether the selector keeps matching windows that appear
// after the first match, instead of binding once.
func (s Selector) Continuous() bool {
	return s.all
}

// Matches is the raw predicate, ignoring any binding. A window with no class
// (or title) known yet never matches a class (or name) selector.
func (s Selector) Matches(w *Window) bool {
	switch s.kind {
	case selectByID:
		return w.ID == s.id
	case selectByClass:
		return w.Class != "" && strings.Contains(w.Class, s.pattern)
	case selectByPid:
		return w.PID != 0 && w.PID == s.pid
	case selectByName:
		return w.Title != "" && strings.Contains(w.Title, s.pattern)
	}
	return false
}

// MatchesID reports whether the selector targets the handle itself, without a
// registry record. Only id selectors can do that.
func (s Selector) MatchesID(id WindowID) bool {
	return s.kind == selectByID && id == s.id
}

func (s Selector) String() string {
	suffix := ""
	if s.all {
		suffix = " (all)"
	}
	switch s.kind {
	case selectByID:
		return fmt.Sprintf("window %d", s.id)
	case selectByClass:
		return fmt.Sprintf("class %q%s", s.pattern, suffix)
	case selectByPid:
		return fmt.Sprintf("pid %d", s.pid)
	case selectByName:
		return fmt.Sprintf("name %q%s", s.pattern, suffix)
	}
	return "invalid selector"
}
