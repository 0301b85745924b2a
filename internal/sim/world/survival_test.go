package world

import (
	"testing"

	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/survival"
)

func TestSurvival_IdleDrainWiring(t *testing.T) {
	w := newTestWorld(t, 3, testTuning())
	id := joinOne(t, w, "paul")
	dt := 1.0 / 20

	w.StepOnce(nil, nil, nil, nil)

	want := survival.Deplete(100, survival.Idle, dt, 0)
	if got := w.players[id].Res.Water; got != want {
		t.Fatalf("water = %v want %v", got, want)
	}
}

func TestSurvival_StillsuitReducesDrain(t *testing.T) {
	w := newTestWorld(t, 3, testTuning())
	id := joinOne(t, w, "paul")
	dt := 1.0 / 20

	w.DebugAddInventory(id, "stillsuit_basic", 1)
	w.StepOnce(nil, nil, []InputEnvelope{actionInput(id, 1, "equip", "stillsuit_basic")}, nil)

	res, _ := w.DebugPlayerResources(id)
	if res.Equipment.Body != "stillsuit_basic" {
		t.Fatalf("equipment = %+v", res.Equipment)
	}
	waterBefore := res.Water

	w.StepOnce(nil, nil, nil, nil)

	want := survival.Deplete(waterBefore, survival.Idle, dt, 0.25)
	if got := w.players[id].Res.Water; got != want {
		t.Fatalf("water = %v want %v with suit reduction", got, want)
	}
}

func TestSurvival_SevereThirstDrainsHealth(t *testing.T) {
	w := newTestWorld(t, 3, testTuning())
	id := joinOne(t, w, "paul")
	dt := 1.0 / 20

	w.DebugSetVitals(id, 5, 100)
	w.StepOnce(nil, nil, nil, nil)

	p := w.players[id]
	if want := 100 - 1*dt; p.Res.Health != want {
		t.Fatalf("health = %v want %v", p.Res.Health, want)
	}
	if p.Res.Water >= 5 {
		t.Fatalf("water did not continue depleting: %v", p.Res.Water)
	}
}

// Damage notifications are throttled to once a second even though health
// drains every tick.
func TestSurvival_DamageEventOncePerSecond(t *testing.T) {
	w := newTestWorld(t, 3, testTuning())
	id := joinOne(t, w, "paul")
	w.DebugSetVitals(id, 9, 100)

	damage := 0
	for i := 0; i < 20; i++ {
		w.StepOnce(nil, nil, nil, nil)
		for _, ev := range w.combat {
			if ev.Kind == protocol.CombatDamage && ev.PlayerID == id {
				damage++
				if ev.Amount != 1 || ev.Source != "dehydration" {
					t.Fatalf("damage event = %+v", ev)
				}
			}
		}
	}
	if damage != 1 {
		t.Fatalf("damage events over one second = %d want 1", damage)
	}
}

func TestSurvival_RidingRateWhileMounted(t *testing.T) {
	w := newTestWorld(t, 3, testTuning())
	id := joinOne(t, w, "paul")
	dt := 1.0 / 20

	wormID := w.DebugWormIDs()[0]
	head, _ := w.DebugWormHead(wormID)
	w.DebugSetPlayerPos(id, head)
	w.StepOnce(nil, nil, []InputEnvelope{actionInput(id, 1, "mount", wormID)}, nil)

	p := w.players[id]
	if p.RidingWormID != wormID {
		t.Fatalf("mount failed: riding %q", p.RidingWormID)
	}
	waterBefore := p.Res.Water

	w.StepOnce(nil, nil, nil, nil)

	want := survival.Deplete(waterBefore, survival.RidingWorm, dt, 0)
	if p.Res.Water != want {
		t.Fatalf("water = %v want riding rate %v", p.Res.Water, want)
	}
	if p.Activity != survival.RidingWorm {
		t.Fatalf("activity = %v want RIDING_WORM", p.Activity)
	}
}
