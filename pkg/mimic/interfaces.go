package mimic

// EventSource delivers translated display-server events. The channel is
// closed when the connection is lost.
type EventSource interface {
	Events() <-chan Event
}

// GroupLocker switches the keyboard to a layout group.
type GroupLocker interface {
	LockGroup(group int) error
}
