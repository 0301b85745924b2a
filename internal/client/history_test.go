package client

import (
	"testing"

	"arrakis.gg/internal/protocol"
)

func recordN(h *History, seqs []uint32, ts []int64) {
	for i, s := range seqs {
		h.Record(InputSnapshot{Seq: s, Timestamp: ts[i], Movement: protocol.MovementIntent{Forward: 1}})
	}
}

func TestHistoryRecordKeepsIssueOrder(t *testing.T) {
	h := NewHistory(200)
	recordN(h, []uint32{1, 2, 3}, []int64{0, 10, 20})
	got := h.Unacked()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []uint32{1, 2, 3} {
		if got[i].Seq != want {
			t.Fatalf("entry %d seq = %d, want %d", i, got[i].Seq, want)
		}
	}
}

func TestHistoryPrunesByAge(t *testing.T) {
	h := NewHistory(200)
	recordN(h, []uint32{1, 2, 3, 4, 5, 6}, []int64{0, 50, 100, 150, 200, 250})
	// The newest entry is at t=250; everything older than 250-200=50
	// ages out, boundary kept.
	if h.Len() != 5 {
		t.Fatalf("len = %d, want 5", h.Len())
	}
	if h.Unacked()[0].Seq != 2 {
		t.Fatalf("oldest surviving seq = %d, want 2", h.Unacked()[0].Seq)
	}
}

func TestHistoryAckThrough(t *testing.T) {
	h := NewHistory(200)
	recordN(h, []uint32{1, 2, 3, 4, 5}, []int64{0, 5, 10, 15, 20})

	h.AckThrough(3)
	got := h.Unacked()
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("after ack 3: %+v", got)
	}

	// Acking below the oldest pending is a no-op.
	h.AckThrough(2)
	if h.Len() != 2 {
		t.Fatalf("stale ack changed buffer: len=%d", h.Len())
	}

	h.AckThrough(99)
	if h.Len() != 0 {
		t.Fatalf("ack past newest left %d entries", h.Len())
	}
}

func TestHistoryZeroWindowUsesDefault(t *testing.T) {
	h := NewHistory(0)
	if h.windowMs != DefaultHistoryWindowMs {
		t.Fatalf("windowMs = %d, want %d", h.windowMs, DefaultHistoryWindowMs)
	}
}
