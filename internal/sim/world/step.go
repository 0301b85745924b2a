package world

import (
	"math"
	"strconv"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/economy"
	"arrakis.gg/internal/sim/motion"
	"arrakis.gg/internal/sim/objective"
	"arrakis.gg/internal/sim/survival"
)

func (w *World) step(joins []JoinRequest, leaves []string, inputs []InputEnvelope, trades []TradeEnvelope) {
	nowTick := w.tick.Load()
	nowMs := w.nowMs(nowTick)
	dt := 1.0 / float64(w.tun.TickRateHz)

	w.events = w.events[:0]
	w.combat = w.combat[:0]

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if p := w.players[id]; p != nil && p.Connected {
			w.handleLeave(id, nowTick, nowMs)
			recordedLeaves = append(recordedLeaves, id)
		} else {
			delete(w.clients, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp, rec := w.joinPlayer(req, nowMs)
		if req.Resp != nil {
			req.Resp <- resp
		}
		recordedJoins = append(recordedJoins, rec)
	}

	// Exactly one objective exists once the world ticks.
	if w.objectives.Current() == nil {
		o := w.objectives.SpawnRandom(nowMs)
		target := o.Target
		w.broadcast(protocol.GameEvent{Kind: protocol.EventObjectiveSpawned, ObjectiveID: o.ID, Position: &target})
	}

	// Activity is re-derived from this tick's inputs; a silent client
	// must not keep last tick's class.
	for _, p := range w.players {
		if p.RidingWormID == "" {
			p.Activity = survival.Idle
		}
	}

	// Inputs and trades in server receive order.
	recordedInputs := make([]RecordedInput, 0, len(inputs))
	for _, env := range inputs {
		p := w.players[env.PlayerID]
		if p == nil || !p.Connected {
			continue
		}
		recordedInputs = append(recordedInputs, RecordedInput{PlayerID: env.PlayerID, Msg: env.Msg})
		w.applyInput(p, env.Msg, nowMs, dt)
	}
	recordedTrades := make([]RecordedTrade, 0, len(trades))
	for _, env := range trades {
		p := w.players[env.PlayerID]
		if p == nil || !p.Connected {
			continue
		}
		recordedTrades = append(recordedTrades, RecordedTrade{PlayerID: env.PlayerID, Msg: env.Msg})
		w.applyTrade(p, env.Msg, nowTick)
	}

	// Systems. Worms move before survival so rider positions and the
	// riding class are settled when water depletes.
	w.systemWorms(nowMs, dt)
	w.systemSurvival(nowTick, nowMs, dt)
	w.systemObjective(nowMs)
	w.systemOutposts(dt)
	w.systemThumpers(nowMs)
	w.systemCorpses(nowMs)
	w.prunePlayers(nowTick)

	w.flushSaves(nowTick)

	w.sendStates(nowTick, nowMs)

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:   nowTick,
			Joins:  recordedJoins,
			Leaves: recordedLeaves,
			Inputs: recordedInputs,
			Trades: recordedTrades,
			Digest: digest,
		})
	}

	if w.snapshotSink != nil && nowTick != 0 && nowTick%uint64(w.tun.SnapshotEveryTicks) == 0 {
		snap := w.ExportSnapshot(nowTick)
		select {
		case w.snapshotSink <- snap:
		default:
			// Drop snapshot if sink is backed up.
		}
	}

	w.tick.Add(1)
}

func (w *World) applyInput(p *Player, msg protocol.InputMsg, nowMs int64, dt float64) {
	if msg.Seq <= p.LastInputSeq {
		// Duplicate or reordered; the newest applied seq wins.
		return
	}
	p.LastInputSeq = msg.Seq

	if p.RidingWormID != "" {
		// Movement axes are ignored while riding; the worm is the ride.
		if msg.WormControl != nil {
			if wm := w.worms[p.RidingWormID]; wm != nil {
				wm.Control = sanitizeControl(*msg.WormControl)
			}
		}
	} else {
		if msg.WormControl != nil {
			p.addEvent(actionResult(msg.Seq, false, protocol.ErrStale, "not riding a worm"))
		}
		w.movePlayer(p, msg, dt)
	}

	if msg.Action != nil {
		w.applyAction(p, msg.Seq, *msg.Action, nowMs)
	}
}

func (w *World) movePlayer(p *Player, msg protocol.InputMsg, dt float64) {
	if !math.IsNaN(msg.Rotation) && !math.IsInf(msg.Rotation, 0) {
		p.Yaw = msg.Rotation
	}
	in := motion.Intent{
		Forward:  clampAxis(msg.Movement.Forward),
		Right:    clampAxis(msg.Movement.Right),
		Rotation: p.Yaw,
	}
	next, _ := motion.Step(p.Pos, in, w.playerSpeed(p), dt)
	next = motion.ClampRadius(next, w.tun.WorldRadius)
	moved := geo.DistXZ(p.Pos, next)
	p.Res.Stats.DistanceTraveled += moved
	p.Pos = next
	// Classify on realized displacement, so pushing against the boundary
	// reads as standing still.
	p.Activity = survival.Classify(moved/dt, false)
}

// playerSpeed is the effective speed for this tick: base scaled by the
// current thirst penalty and any equipment boost.
func (w *World) playerSpeed(p *Player) float64 {
	eff := survival.EffectOf(survival.Thirst(p.Res.Water))
	agg := economy.AggregateStats(w.cat, &p.Res.Equipment)
	return w.tun.Movement.BaseSpeedMps * eff.SpeedMultiplier * (1 + agg.SpeedBoost)
}

func clampAxis(v int8) int8 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func sanitizeControl(c protocol.WormControl) protocol.WormControl {
	if math.IsNaN(c.Direction) || math.IsInf(c.Direction, 0) {
		c.Direction = 0
	}
	if math.IsNaN(c.SpeedIntent) || math.IsInf(c.SpeedIntent, 0) {
		c.SpeedIntent = 0
	}
	if c.Direction > 1 {
		c.Direction = 1
	} else if c.Direction < -1 {
		c.Direction = -1
	}
	if c.SpeedIntent > 1 {
		c.SpeedIntent = 1
	} else if c.SpeedIntent < 0 {
		c.SpeedIntent = 0
	}
	return c
}

func actionResult(seq uint32, ok bool, code, message string) protocol.GameEvent {
	return protocol.GameEvent{
		Kind:    protocol.EventActionResult,
		Ref:     strconv.FormatUint(uint64(seq), 10),
		OK:      ok,
		Code:    code,
		Message: message,
	}
}

func (w *World) applyAction(p *Player, seq uint32, act protocol.ActionReq, nowMs int64) {
	ev := actionResult(seq, true, "", "")
	var err error
	switch act.Type {
	case protocol.ActionDeployThumper:
		err = w.deployThumper(p, nowMs, &ev)
	case protocol.ActionMount:
		err = w.mountWorm(p, act.Target, &ev)
	case protocol.ActionDismount:
		err = w.dismountWorm(p, nowMs, &ev)
	case protocol.ActionRecoverCorpse:
		err = w.recoverCorpse(p, act.Target, nowMs, &ev)
	case protocol.ActionEquip:
		err = economy.Equip(w.cat, &p.Res.Inventory, &p.Res.Equipment, act.Target)
	case protocol.ActionUnequip:
		err = economy.Unequip(w.cat, &p.Res.Inventory, &p.Res.Equipment, catalog.Slot(act.Target))
	default:
		err = protocol.Errf(protocol.ErrBadRequest, "unknown action %q", act.Type)
	}
	if err != nil {
		ev.OK = false
		ev.Code = protocol.CodeOf(err)
		ev.Message = protocol.ReasonOf(err)
	}
	p.addEvent(ev)
}

func (w *World) recoverCorpse(p *Player, corpseID string, nowMs int64, ev *protocol.GameEvent) error {
	amount, err := w.corpses.Recover(p.ID, corpseID, p.Pos, nowMs)
	if err != nil {
		return err
	}
	p.Res.Spice += amount
	ev.CorpseID = corpseID
	ev.Spice = amount
	w.broadcast(protocol.GameEvent{Kind: protocol.EventCorpseRecovered, CorpseID: corpseID, PlayerID: p.ID, Spice: amount})
	w.audit("CORPSE_RECOVERED", p.ID, p.Pos, map[string]any{"corpse_id": corpseID, "spice": amount})
	return nil
}

func (w *World) systemSurvival(nowTick uint64, nowMs int64, dt float64) {
	damageTick := nowTick%uint64(w.tun.TickRateHz) == 0
	for _, p := range w.sortedPlayers() {
		if !p.Connected {
			continue
		}
		act := p.Activity
		if p.RidingWormID != "" {
			act = survival.RidingWorm
		}
		agg := economy.AggregateStats(w.cat, &p.Res.Equipment)
		p.Res.Water = survival.Deplete(p.Res.Water, act, dt, agg.WaterReduction)
		eff := survival.EffectOf(survival.Thirst(p.Res.Water))
		if eff.HealthDrainPerSec > 0 && p.Res.Health > 0 {
			p.Res.Health -= eff.HealthDrainPerSec * dt
			if p.Res.Health < 0 {
				p.Res.Health = 0
			}
			if damageTick {
				w.combatEvent(protocol.CombatEvent{
					Kind:     protocol.CombatDamage,
					PlayerID: p.ID,
					Amount:   eff.HealthDrainPerSec,
					Source:   "dehydration",
				})
			}
		}
		if survival.Fatal(p.Res.Water) || p.Res.Health <= 0 {
			w.killPlayer(p, nowMs)
		}
	}
}

// killPlayer runs the full death pipeline in one tick: corpse with the
// spice penalty, then an immediate respawn. Equipment and inventory ride
// through untouched.
func (w *World) killPlayer(p *Player, nowMs int64) {
	if p.RidingWormID != "" {
		w.forceDismount(p, nowMs)
	}
	deathPos := p.Pos
	out := w.corpses.ProcessDeath(p.ID, deathPos, p.Res.Spice, &p.Res.Stats, nowMs)
	p.Res.Spice = out.SpiceRemaining
	p.Pos = out.Respawn.Position
	p.Res.Water = out.Respawn.Water
	p.Res.Health = out.Respawn.Health
	p.Activity = survival.Idle
	w.combatEvent(protocol.CombatEvent{
		Kind:      protocol.CombatDeath,
		PlayerID:  p.ID,
		Source:    "dehydration",
		Position:  &deathPos,
		CorpseID:  out.Corpse.ID,
		SpiceLost: out.SpiceLost,
	})
	w.audit("DEATH", p.ID, deathPos, map[string]any{
		"corpse_id":  out.Corpse.ID,
		"spice_lost": out.SpiceLost,
	})
	w.combatEvent(protocol.CombatEvent{
		Kind:     protocol.CombatRespawn,
		PlayerID: p.ID,
		Respawn: &protocol.RespawnState{
			Position: out.Respawn.Position,
			Water:    out.Respawn.Water,
			Health:   out.Respawn.Health,
		},
	})
}

func (w *World) systemObjective(nowMs int64) {
	// Completion first, in player sort order; the transitioning player
	// takes the whole reward.
	for _, p := range w.sortedPlayers() {
		if !p.Connected {
			continue
		}
		if !w.objectives.CheckCompletion(p.Pos) {
			continue
		}
		o := w.objectives.Current()
		reward := w.tun.Objective.RewardSpice
		p.Res.Spice += reward
		p.Res.Stats.ObjectivesCompleted++
		p.Res.Stats.TotalSpiceEarned += reward
		w.objRespawnAtMs = nowMs + w.tun.Objective.RespawnDelayMs
		w.broadcast(protocol.GameEvent{
			Kind:        protocol.EventObjectiveCompleted,
			ObjectiveID: o.ID,
			PlayerID:    p.ID,
			Spice:       reward,
		})
		w.audit("OBJECTIVE_COMPLETED", p.ID, o.Target, map[string]any{"objective_id": o.ID, "reward": reward})
	}

	// Timeout and post-failure replacement.
	for _, ev := range w.objectives.Update(nowMs) {
		switch ev.Kind {
		case objective.EventFailed:
			w.broadcast(protocol.GameEvent{Kind: protocol.EventObjectiveFailed, ObjectiveID: ev.Objective.ID})
		case objective.EventRespawned:
			target := ev.Objective.Target
			w.broadcast(protocol.GameEvent{Kind: protocol.EventObjectiveSpawned, ObjectiveID: ev.Objective.ID, Position: &target})
		}
	}

	// A completed objective is replaced after the same delay as a failed
	// one; the manager only tracks the failure path.
	if o := w.objectives.Current(); o != nil && o.Status == objective.StatusCompleted && nowMs >= w.objRespawnAtMs {
		fresh := w.objectives.SpawnRandom(nowMs)
		target := fresh.Target
		w.broadcast(protocol.GameEvent{Kind: protocol.EventObjectiveSpawned, ObjectiveID: fresh.ID, Position: &target})
	}
}

func (w *World) systemCorpses(nowMs int64) {
	for _, m := range w.corpses.Sweep(nowMs) {
		w.broadcast(protocol.GameEvent{
			Kind:     protocol.EventCorpseExpired,
			CorpseID: m.ID,
			PlayerID: m.PlayerID,
			Spice:    m.SpiceAmount,
		})
		w.audit("CORPSE_EXPIRED", m.PlayerID, m.Position, map[string]any{"corpse_id": m.ID, "spice": m.SpiceAmount})
	}
}
