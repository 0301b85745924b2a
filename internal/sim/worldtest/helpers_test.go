package worldtest

import (
	"strconv"
	"testing"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/tuning"
)

var worldOrigin = geo.Vector3{}

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return cat
}

// slowTuning runs worlds at 2Hz. Depletion and deadlines are wall-clock
// based, so long survival horizons cost few ticks.
func slowTuning() tuning.Tuning {
	tun := tuning.Defaults()
	tun.TickRateHz = 2
	return tun
}

// fastTuning runs worlds at 20Hz so a tick is an even 50ms and millisecond
// deadlines land exactly on tick boundaries.
func fastTuning() tuning.Tuning {
	tun := tuning.Defaults()
	tun.TickRateHz = 20
	return tun
}

func findEvent(events []protocol.GameEvent, kind string) (protocol.GameEvent, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}
	return protocol.GameEvent{}, false
}

func findCombat(events []protocol.CombatEvent, kind string) (protocol.CombatEvent, bool) {
	for _, e := range events {
		if e.Kind == kind {
			return e, true
		}
	}
	return protocol.CombatEvent{}, false
}

// actionResultFor picks the action_result event answering one input seq.
func actionResultFor(events []protocol.GameEvent, seq uint32) (protocol.GameEvent, bool) {
	ref := strconv.FormatUint(uint64(seq), 10)
	for _, e := range events {
		if e.Kind == protocol.EventActionResult && e.Ref == ref {
			return e, true
		}
	}
	return protocol.GameEvent{}, false
}

func invCount(inv []protocol.ItemStack, itemID string) int {
	for _, it := range inv {
		if it.ID == itemID {
			return it.Quantity
		}
	}
	return 0
}

func findOutpost(outposts []protocol.OutpostState, id string) (protocol.OutpostState, bool) {
	for _, o := range outposts {
		if o.ID == id {
			return o, true
		}
	}
	return protocol.OutpostState{}, false
}

func findPlayer(players []protocol.PlayerState, id string) (protocol.PlayerState, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return protocol.PlayerState{}, false
}

func findWorm(worms []protocol.WormState, id string) (protocol.WormState, bool) {
	for _, w := range worms {
		if w.ID == id {
			return w, true
		}
	}
	return protocol.WormState{}, false
}
