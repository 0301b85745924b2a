// Package client implements the session-local side of movement:
// prediction over not-yet-acknowledged inputs and reconciliation against
// the authoritative state. Everything here is driven by a single
// goroutine (the session's update loop), so there are no locks.
package client

import (
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
)

// InputSnapshot is one locally issued input awaiting a server ack,
// together with the position predicted after applying it.
type InputSnapshot struct {
	Seq       uint32
	Movement  protocol.MovementIntent
	Rotation  float64
	Timestamp int64
	Predicted geo.Vector3
}

// History is the bounded buffer of unacknowledged inputs. Entries are
// appended in issue order (ascending seq) and pruned two ways: by ack
// (the server reported processing them) and by age (older than the
// window, so a stalled ack cannot grow the buffer without bound).
type History struct {
	windowMs int64
	entries  []InputSnapshot
}

func NewHistory(windowMs int64) *History {
	if windowMs <= 0 {
		windowMs = DefaultHistoryWindowMs
	}
	return &History{windowMs: windowMs}
}

// Record appends one snapshot and prunes entries that have aged out of
// the window relative to the new snapshot's timestamp.
func (h *History) Record(snap InputSnapshot) {
	h.entries = append(h.entries, snap)
	cutoff := snap.Timestamp - h.windowMs
	i := 0
	for i < len(h.entries) && h.entries[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		h.entries = append(h.entries[:0], h.entries[i:]...)
	}
}

// AckThrough drops every entry with seq <= acked. Entries arrive in
// ascending seq order, so this is a prefix cut.
func (h *History) AckThrough(acked uint32) {
	i := 0
	for i < len(h.entries) && h.entries[i].Seq <= acked {
		i++
	}
	if i > 0 {
		h.entries = append(h.entries[:0], h.entries[i:]...)
	}
}

// Unacked returns the live entries in ascending seq order. The slice
// aliases internal storage and is only valid until the next mutation.
func (h *History) Unacked() []InputSnapshot { return h.entries }

func (h *History) Len() int { return len(h.entries) }
