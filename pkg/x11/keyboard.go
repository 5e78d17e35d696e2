package x11

import (
	"fmt"

	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/xkb"
)

// groupLockDetail is XkbGroupLockMask: we only care about lock changes.
const groupLockDetail = 1 << 7

// Keyboard drives the core keyboard's layout group through the Xkb
// extension.
type Keyboard struct {
	conn *x.Conn
}

// Keyboard initializes the Xkb extension on the display's connection and
// subscribes to state-notify events, so group changes made by other clients
// show up in the event stream.
func (d *Display) Keyboard() (*Keyboard, error) {
	if _, err := xkb.UseExtension(d.conn, xkb.MajorVersion, xkb.MinorVersion).Reply(d.conn); err != nil {
		return nil, fmt.Errorf("initialize XKB extension: %w", err)
	}

	selectOpts := xkb.SelectDetail(xkb.EventTypeStateNotify, map[uint]bool{groupLockDetail: true})
	if err := xkb.SelectEventsChecked(d.conn, xkb.IDUseCoreKbd, selectOpts).Check(d.conn); err != nil {
		return nil, fmt.Errorf("select XKB state events: %w", err)
	}

	return &Keyboard{conn: d.conn}, nil
}

// LockGroup implements mimic.GroupLocker.
func (k *Keyboard) LockGroup(group int) error {
	err := xkb.LatchLockStateChecked(k.conn, xkb.IDUseCoreKbd,
		0, 0, // don't touch modifier locks
		true, uint8(group),
		0, 0, // don't touch modifier latches
		false, 0,
	).Check(k.conn)
	if err != nil {
		return fmt.Errorf("xkb lock group %d: %w", group, err)
	}
	return nil
}
