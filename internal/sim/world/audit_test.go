package world

import (
	"testing"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
)

type memAudit struct {
	entries []AuditEntry
}

func (m *memAudit) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) byAction(action string) []AuditEntry {
	var out []AuditEntry
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func TestAudit_DeathWritesEntry(t *testing.T) {
	w := newTestWorld(t, 5, testTuning())
	aud := &memAudit{}
	w.SetAuditLogger(aud)

	id := joinOne(t, w, "jamis")
	w.DebugSetSpice(id, 100)
	w.DebugSetVitals(id, 0, 100)
	stepN(w, 1)

	deaths := aud.byAction("DEATH")
	if len(deaths) != 1 {
		t.Fatalf("death entries = %d, want 1", len(deaths))
	}
	e := deaths[0]
	if e.Actor != id {
		t.Fatalf("actor = %q, want %q", e.Actor, id)
	}
	if e.Details["spice_lost"] != 20 {
		t.Fatalf("spice_lost = %v, want 20", e.Details["spice_lost"])
	}
	if e.Details["corpse_id"] == "" {
		t.Fatal("missing corpse_id detail")
	}
}

func TestAudit_TradeWritesEntryOnlyOnSuccess(t *testing.T) {
	w := newTestWorld(t, 6, testTuning())
	aud := &memAudit{}
	w.SetAuditLogger(aud)

	id := joinOne(t, w, "chani")
	w.DebugSetPlayerPos(id, geo.Vector3{X: 150, Z: 150})
	w.DebugSetSpice(id, 10) // not enough for boots

	trade := func(reqID, itemID string) {
		w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: protocol.TradeMsg{
			Type: protocol.TypeTrade, ProtocolVersion: protocol.Version,
			ReqID: reqID, Op: protocol.TradeOpBuy, ItemID: itemID,
		}}})
	}

	trade("r1", "desert_boots")
	if n := len(aud.byAction("TRADE")); n != 0 {
		t.Fatalf("failed trade audited %d times", n)
	}

	w.DebugSetSpice(id, 500)
	trade("r2", "desert_boots")
	entries := aud.byAction("TRADE")
	if len(entries) != 1 {
		t.Fatalf("trade entries = %d, want 1", len(entries))
	}
	if entries[0].Details["item_id"] != "desert_boots" || entries[0].Details["op"] != protocol.TradeOpBuy {
		t.Fatalf("trade details = %+v", entries[0].Details)
	}

	// A replayed req_id returns the cached result without a second entry.
	trade("r2", "desert_boots")
	if n := len(aud.byAction("TRADE")); n != 1 {
		t.Fatalf("dedupe re-audited: %d entries", n)
	}
}

func TestAudit_NilLoggerIsSafe(t *testing.T) {
	w := newTestWorld(t, 7, testTuning())
	id := joinOne(t, w, "stilgar")
	w.DebugSetVitals(id, 0, 100)
	stepN(w, 2) // would panic on a nil-deref bug
}
