package world

import (
	"encoding/json"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/survival"
)

func (w *World) broadcast(ev protocol.GameEvent) { w.events = append(w.events, ev) }

func (w *World) combatEvent(ev protocol.CombatEvent) { w.combat = append(w.combat, ev) }

// sendStates pushes the tick's messages to every attached client in the
// fixed order S_STATE, S_EVENT, S_COMBAT_EVENT, S_TRADE_RESULT. Private
// outboxes drain whether or not a client is attached.
func (w *World) sendStates(nowTick uint64, nowMs int64) {
	shared := w.buildShared(nowTick, nowMs)

	for _, p := range w.sortedPlayers() {
		if cl := w.clients[p.ID]; cl != nil {
			msg := shared
			msg.LastProcessedInputSeq = p.LastInputSeq
			msg.Self = w.buildSelf(p)
			if b, err := json.Marshal(msg); err == nil {
				sendLatest(cl.Out, b)
			}

			events := w.events
			if len(p.events) > 0 {
				events = append(append([]protocol.GameEvent{}, w.events...), p.events...)
			}
			if len(events) > 0 {
				em := protocol.EventMsg{
					Type:            protocol.TypeEvent,
					ProtocolVersion: protocol.Version,
					Tick:            nowTick,
					Events:          events,
				}
				if b, err := json.Marshal(em); err == nil {
					sendLatest(cl.Out, b)
				}
			}
			if len(w.combat) > 0 {
				cm := protocol.CombatEventMsg{
					Type:            protocol.TypeCombatEvent,
					ProtocolVersion: protocol.Version,
					Tick:            nowTick,
					Events:          w.combat,
				}
				if b, err := json.Marshal(cm); err == nil {
					sendLatest(cl.Out, b)
				}
			}
			for _, tr := range p.trades {
				if b, err := json.Marshal(tr); err == nil {
					sendLatest(cl.Out, b)
				}
			}
		}
		p.events = p.events[:0]
		p.trades = p.trades[:0]
	}
}

// buildShared assembles the public S_STATE body once per tick; per-client
// copies only fill in Self and the input ack.
func (w *World) buildShared(nowTick uint64, nowMs int64) protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Timestamp:       nowMs,
	}

	for _, p := range w.sortedPlayers() {
		if !p.Connected {
			continue
		}
		msg.Players = append(msg.Players, protocol.PlayerState{
			ID:       p.ID,
			Name:     p.Name,
			Position: p.Pos,
			Yaw:      p.Yaw,
			Activity: p.Activity.String(),
			Thirst:   survival.Thirst(p.Res.Water).String(),
			Riding:   p.RidingWormID,
		})
	}
	for _, id := range w.sortedWormIDs() {
		wm := w.worms[id]
		msg.Worms = append(msg.Worms, protocol.WormState{
			ID:            wm.ID,
			AIState:       wm.State,
			Heading:       wm.Heading,
			Health:        wm.Health,
			RiderID:       wm.RiderID,
			ControlPoints: append([]geo.Vector3(nil), wm.Points...),
		})
	}
	for _, id := range w.sortedThumperIDs() {
		th := w.thumpers[id]
		msg.Thumpers = append(msg.Thumpers, protocol.ThumperState{
			ID:        th.ID,
			Position:  th.Position,
			PlacedBy:  th.PlacedBy,
			ExpiresAt: th.ExpiresAt,
		})
	}
	if o := w.objectives.Current(); o != nil {
		msg.Objective = &protocol.ObjectiveState{
			ID:        o.ID,
			Type:      o.Type,
			Target:    o.Target,
			Radius:    o.Radius,
			ExpiresAt: o.ExpiresAt,
			Status:    string(o.Status),
		}
	}
	for _, o := range w.outposts {
		msg.Outposts = append(msg.Outposts, protocol.OutpostState{
			ID:          o.ID,
			Position:    o.Position,
			Owner:       o.Owner,
			CapturingBy: o.CapturingBy,
			Progress:    o.ProgressSec,
		})
	}
	for _, m := range w.corpses.List(nowMs) {
		msg.Corpses = append(msg.Corpses, protocol.CorpseState{
			ID:        m.ID,
			PlayerID:  m.PlayerID,
			Position:  m.Position,
			Spice:     m.SpiceAmount,
			ExpiresAt: m.ExpiresAt,
		})
	}
	return msg
}

func (w *World) buildSelf(p *Player) *protocol.SelfState {
	self := &protocol.SelfState{
		Water:        p.Res.Water,
		Health:       p.Res.Health,
		Spice:        p.Res.Spice,
		VFXIntensity: survival.VFXIntensity(p.Res.Water),
		Equipment: protocol.EquipmentState{
			Head: p.Res.Equipment.Head,
			Body: p.Res.Equipment.Body,
			Feet: p.Res.Equipment.Feet,
		},
		Stats: protocol.StatsState{
			ObjectivesCompleted: p.Res.Stats.ObjectivesCompleted,
			TotalSpiceEarned:    p.Res.Stats.TotalSpiceEarned,
			DistanceTraveled:    p.Res.Stats.DistanceTraveled,
			Deaths:              p.Res.Stats.Deaths,
			WormsRidden:         p.Res.Stats.WormsRidden,
			OutpostsCaptured:    p.Res.Stats.OutpostsCaptured,
		},
		Inventory: []protocol.ItemStack{},
	}
	for _, it := range p.Res.Inventory.Sorted() {
		self.Inventory = append(self.Inventory, protocol.ItemStack{
			ID:       it.ID,
			Type:     it.Type,
			Tier:     it.Tier,
			Quantity: it.Quantity,
		})
	}
	return self
}
