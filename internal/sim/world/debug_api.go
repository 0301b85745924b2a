package world

import (
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/sim/corpse"
	"arrakis.gg/internal/sim/objective"
	"arrakis.gg/internal/sim/player"
)

// ---- Debug/Test Helpers ----
//
// These helpers exist so black-box tests in sibling packages (e.g.
// internal/sim/worldtest) can set up deterministic preconditions without
// reaching into world internals.
//
// They are NOT safe to call concurrently with Run(). Prefer using them
// only in tests that drive the world via StepOnce(), from a single
// goroutine.

func (w *World) DebugSetPlayerPos(playerID string, pos geo.Vector3) bool {
	p := w.players[playerID]
	if p == nil || !pos.IsFinite() {
		return false
	}
	p.Pos = pos
	return true
}

func (w *World) DebugSetVitals(playerID string, water, health float64) bool {
	p := w.players[playerID]
	if p == nil {
		return false
	}
	p.Res.Water = water
	p.Res.Health = health
	p.Res.Clamp()
	return true
}

func (w *World) DebugSetSpice(playerID string, spice int) bool {
	p := w.players[playerID]
	if p == nil || spice < 0 {
		return false
	}
	p.Res.Spice = spice
	return true
}

func (w *World) DebugAddInventory(playerID, itemID string, delta int) bool {
	p := w.players[playerID]
	if p == nil || delta <= 0 {
		return false
	}
	def, ok := w.cat.Lookup(itemID)
	if !ok {
		return false
	}
	return p.Res.Inventory.Add(def.ID, def.Tier, delta) == nil
}

// DebugPlayerResources returns a deep copy of the player's record.
func (w *World) DebugPlayerResources(playerID string) (player.Resources, bool) {
	p := w.players[playerID]
	if p == nil {
		return player.Resources{}, false
	}
	return p.Res.Clone(), true
}

func (w *World) DebugPlayerPos(playerID string) (geo.Vector3, bool) {
	p := w.players[playerID]
	if p == nil {
		return geo.Vector3{}, false
	}
	return p.Pos, true
}

func (w *World) DebugWormIDs() []string { return w.sortedWormIDs() }

func (w *World) DebugWormHead(wormID string) (geo.Vector3, bool) {
	wm := w.worms[wormID]
	if wm == nil {
		return geo.Vector3{}, false
	}
	return wm.Head(), true
}

func (w *World) DebugWormState(wormID string) (string, bool) {
	wm := w.worms[wormID]
	if wm == nil {
		return "", false
	}
	return wm.State, true
}

// DebugMoveWorm translates the whole body so the head lands on pos,
// keeping the chain shape and heading.
func (w *World) DebugMoveWorm(wormID string, pos geo.Vector3) bool {
	wm := w.worms[wormID]
	if wm == nil || !pos.IsFinite() {
		return false
	}
	delta := pos.Sub(wm.Head())
	for i := range wm.Points {
		wm.Points[i] = wm.Points[i].Add(delta)
	}
	return true
}

// DebugSpawnObjective replaces the current objective with one at target.
func (w *World) DebugSpawnObjective(target geo.Vector3) *objective.Objective {
	return w.objectives.Spawn(target, w.nowMs(w.tick.Load()))
}

// DebugObjective returns a copy of the live objective, nil if none.
func (w *World) DebugObjective() *objective.Objective {
	o := w.objectives.Current()
	if o == nil {
		return nil
	}
	cp := *o
	return &cp
}

func (w *World) DebugCorpses() []corpse.Marker { return w.corpses.Export() }

func (w *World) DebugOutposts() []Outpost {
	out := make([]Outpost, 0, len(w.outposts))
	for _, o := range w.outposts {
		out = append(out, *o)
	}
	return out
}

func (w *World) DebugStateDigest(nowTick uint64) string { return w.stateDigest(nowTick) }
