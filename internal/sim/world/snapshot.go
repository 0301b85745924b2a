package world

import (
	"fmt"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/persistence/snapshot"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/corpse"
	"arrakis.gg/internal/sim/economy"
	"arrakis.gg/internal/sim/objective"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/trading"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:               snapshot.Header{Version: 1, WorldID: w.cfg.ID, Tick: nowTick},
		Seed:                 w.cfg.Seed,
		RNGState:             w.src.state,
		Tuning:               w.tun,
		ObjectiveRespawnAtMs: w.objRespawnAtMs,
	}

	for _, p := range w.sortedPlayers() {
		pv := snapshot.PlayerV1{
			ID:   p.ID,
			Name: p.Name,
			Pos:  p.Pos,
			Yaw:  p.Yaw,

			Water:  p.Res.Water,
			Health: p.Res.Health,
			Spice:  p.Res.Spice,

			Equipment: snapshot.EquipmentV1{
				Head: p.Res.Equipment.Head,
				Body: p.Res.Equipment.Body,
				Feet: p.Res.Equipment.Feet,
			},
			Stats: snapshot.StatsV1{
				ObjectivesCompleted: p.Res.Stats.ObjectivesCompleted,
				TotalSpiceEarned:    p.Res.Stats.TotalSpiceEarned,
				DistanceTraveled:    p.Res.Stats.DistanceTraveled,
				Deaths:              p.Res.Stats.Deaths,
				WormsRidden:         p.Res.Stats.WormsRidden,
				OutpostsCaptured:    p.Res.Stats.OutpostsCaptured,
			},

			RidingWormID: p.RidingWormID,
			LastInputSeq: p.LastInputSeq,

			Connected:          p.Connected,
			DisconnectedAtTick: p.DisconnectedAtTick,
		}
		for _, it := range p.Res.Inventory.Sorted() {
			pv.Inventory = append(pv.Inventory, snapshot.ItemStackV1{
				ItemID:   it.Type,
				Tier:     it.Tier,
				Quantity: it.Quantity,
			})
		}
		snap.Players = append(snap.Players, pv)
	}

	for _, id := range w.sortedWormIDs() {
		wm := w.worms[id]
		snap.Worms = append(snap.Worms, snapshot.WormV1{
			ID:               wm.ID,
			State:            wm.State,
			Heading:          wm.Heading,
			Speed:            wm.Speed,
			Health:           wm.Health,
			RiderID:          wm.RiderID,
			TargetThumperID:  wm.TargetThumperID,
			ControlDirection: wm.Control.Direction,
			ControlSpeed:     wm.Control.SpeedIntent,
			SpiralUntilMs:    wm.SpiralUntilMs,
			WanderAtMs:       wm.WanderAtMs,
			Points:           append([]geo.Vector3(nil), wm.Points...),
		})
	}

	for _, id := range w.sortedThumperIDs() {
		th := w.thumpers[id]
		snap.Thumpers = append(snap.Thumpers, snapshot.ThumperV1{
			ID:        th.ID,
			Pos:       th.Position,
			PlacedBy:  th.PlacedBy,
			CreatedAt: th.CreatedAt,
			ExpiresAt: th.ExpiresAt,
		})
	}

	for _, m := range w.corpses.Export() {
		snap.Corpses = append(snap.Corpses, snapshot.CorpseV1{
			ID:        m.ID,
			PlayerID:  m.PlayerID,
			Pos:       m.Position,
			Spice:     m.SpiceAmount,
			CreatedAt: m.CreatedAt,
			ExpiresAt: m.ExpiresAt,
		})
	}

	for _, o := range w.outposts {
		snap.Outposts = append(snap.Outposts, snapshot.OutpostV1{
			ID:          o.ID,
			Pos:         o.Position,
			Owner:       o.Owner,
			CapturingBy: o.CapturingBy,
			ProgressSec: o.ProgressSec,
		})
	}

	if o := w.objectives.Current(); o != nil {
		snap.Objective = &snapshot.ObjectiveV1{
			ID:          o.ID,
			Type:        o.Type,
			Target:      o.Target,
			Radius:      o.Radius,
			TimeLimitMs: o.TimeLimitMs,
			ExpiresAt:   o.ExpiresAt,
			Status:      string(o.Status),
			FailedAt:    o.FailedAt,
		}
	}

	return snap
}

// ImportSnapshot replaces the current in-memory world state with the
// snapshot. It sets the world's tick to snapshotTick+1 (the next tick to
// simulate).
//
// This must be called only when the world is stopped or from the world
// loop goroutine.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != 1 {
		return fmt.Errorf("unsupported snapshot version: %d", snap.Header.Version)
	}
	if w.cfg.Seed != snap.Seed {
		return fmt.Errorf("snapshot seed mismatch: cfg=%d snap=%d", w.cfg.Seed, snap.Seed)
	}
	if snap.Tuning.TickRateHz <= 0 {
		return fmt.Errorf("snapshot carries no tuning")
	}

	// The snapshot's tuning is authoritative; managers whose knobs derive
	// from it are rebuilt around the shared rng and id stream.
	w.tun = snap.Tuning
	w.objectives = objective.NewManager(objective.Config{
		Type:           "spice_blow",
		Radius:         w.tun.Objective.Radius,
		TimeLimitMs:    w.tun.Objective.TimeLimitMs,
		RespawnDelayMs: w.tun.Objective.RespawnDelayMs,
		SpawnMinDist:   w.tun.Objective.SpawnMinDist,
		SpawnMaxDist:   w.tun.Objective.SpawnMaxDist,
	}, w.newID, w.rng)
	w.corpses = corpse.NewStore(corpse.Config{
		TTLMs:         w.tun.Corpse.TTLMs,
		RecoverRadius: w.tun.Corpse.RecoverRadius,
		PenaltyRate:   w.tun.Corpse.SpicePenaltyRate,
	}, w.newID)
	w.sietch = trading.New(trading.Config{
		Center:          sietchCenter(w.tun),
		Radius:          w.tun.Sietch.Radius,
		SellPriceFactor: w.tun.Sietch.SellPriceFactor,
	}, w.cat)

	w.players = make(map[string]*Player, len(snap.Players))
	for _, pv := range snap.Players {
		res := player.Resources{
			Water:  pv.Water,
			Health: pv.Health,
			Spice:  pv.Spice,
			Equipment: economy.Equipment{
				Head: pv.Equipment.Head,
				Body: pv.Equipment.Body,
				Feet: pv.Equipment.Feet,
			},
			Stats: player.Stats{
				ObjectivesCompleted: pv.Stats.ObjectivesCompleted,
				TotalSpiceEarned:    pv.Stats.TotalSpiceEarned,
				DistanceTraveled:    pv.Stats.DistanceTraveled,
				Deaths:              pv.Stats.Deaths,
				WormsRidden:         pv.Stats.WormsRidden,
				OutpostsCaptured:    pv.Stats.OutpostsCaptured,
			},
		}
		for _, st := range pv.Inventory {
			_ = res.Inventory.Add(st.ItemID, st.Tier, st.Quantity)
		}
		w.players[pv.ID] = &Player{
			ID:                 pv.ID,
			Name:               pv.Name,
			Pos:                pv.Pos,
			Yaw:                pv.Yaw,
			Res:                res,
			RidingWormID:       pv.RidingWormID,
			LastInputSeq:       pv.LastInputSeq,
			Connected:          pv.Connected,
			DisconnectedAtTick: pv.DisconnectedAtTick,
		}
	}

	w.worms = make(map[string]*Worm, len(snap.Worms))
	for _, wv := range snap.Worms {
		w.worms[wv.ID] = &Worm{
			ID:              wv.ID,
			State:           wv.State,
			Heading:         wv.Heading,
			Speed:           wv.Speed,
			Health:          wv.Health,
			RiderID:         wv.RiderID,
			TargetThumperID: wv.TargetThumperID,
			Control:         protocol.WormControl{Direction: wv.ControlDirection, SpeedIntent: wv.ControlSpeed},
			SpiralUntilMs:   wv.SpiralUntilMs,
			WanderAtMs:      wv.WanderAtMs,
			Points:          append([]geo.Vector3(nil), wv.Points...),
		}
	}

	w.thumpers = make(map[string]*Thumper, len(snap.Thumpers))
	for _, tv := range snap.Thumpers {
		w.thumpers[tv.ID] = &Thumper{
			ID:        tv.ID,
			Position:  tv.Pos,
			PlacedBy:  tv.PlacedBy,
			CreatedAt: tv.CreatedAt,
			ExpiresAt: tv.ExpiresAt,
		}
	}

	markers := make([]corpse.Marker, 0, len(snap.Corpses))
	for _, cv := range snap.Corpses {
		markers = append(markers, corpse.Marker{
			ID:          cv.ID,
			PlayerID:    cv.PlayerID,
			Position:    cv.Pos,
			SpiceAmount: cv.Spice,
			CreatedAt:   cv.CreatedAt,
			ExpiresAt:   cv.ExpiresAt,
		})
	}
	w.corpses.Import(markers)

	w.outposts = w.outposts[:0]
	for _, ov := range snap.Outposts {
		w.outposts = append(w.outposts, &Outpost{
			ID:          ov.ID,
			Position:    ov.Pos,
			Owner:       ov.Owner,
			CapturingBy: ov.CapturingBy,
			ProgressSec: ov.ProgressSec,
		})
	}

	if snap.Objective != nil {
		w.objectives.SetCurrent(&objective.Objective{
			ID:          snap.Objective.ID,
			Type:        snap.Objective.Type,
			Target:      snap.Objective.Target,
			Radius:      snap.Objective.Radius,
			TimeLimitMs: snap.Objective.TimeLimitMs,
			ExpiresAt:   snap.Objective.ExpiresAt,
			Status:      objective.Status(snap.Objective.Status),
			FailedAt:    snap.Objective.FailedAt,
		})
	}
	w.objRespawnAtMs = snap.ObjectiveRespawnAtMs

	w.tradeSeen = map[tradeKey]tradeSeenEntry{}
	w.src.state = snap.RNGState
	w.tick.Store(snap.Header.Tick + 1)
	return nil
}

// ConnectedPlayerIDs lists identities the snapshot recorded as attached.
// A resumed server has no live sessions for them, so it feeds these to
// Leave before serving.
func (w *World) ConnectedPlayerIDs() []string {
	var ids []string
	for _, p := range w.sortedPlayers() {
		if p.Connected {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
