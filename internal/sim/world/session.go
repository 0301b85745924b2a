package world

import (
	"sort"

	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/survival"
)

func (w *World) joinPlayer(req JoinRequest, nowMs int64) (JoinResponse, RecordedJoin) {
	rec := RecordedJoin{PlayerID: req.PlayerID, Name: req.Name}

	p := w.players[req.PlayerID] // "" never matches
	if p == nil {
		id := req.PlayerID
		if id == "" {
			id = w.newID()
		}
		p = &Player{ID: id, Name: "wanderer"}
		if req.Resources != nil {
			p.Res = req.Resources.Clone()
			p.Res.Clamp()
			rec.Resources = req.Resources
		} else {
			p.Res = w.starterResources()
		}
		w.players[id] = p
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	p.Connected = true
	p.DisconnectedAtTick = 0
	p.LastInputSeq = 0
	if req.Out != nil {
		w.clients[p.ID] = &clientState{Out: req.Out}
	}
	rec.AssignedID = p.ID
	return JoinResponse{Welcome: w.buildWelcome(p.ID, nowMs)}, rec
}

func (w *World) starterResources() player.Resources {
	res := player.Defaults()
	res.Spice = w.tun.StarterSpice
	ids := make([]string, 0, len(w.tun.StarterItems))
	for id := range w.tun.StarterItems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := w.tun.StarterItems[id]
		def, ok := w.cat.Lookup(id)
		if !ok || n <= 0 {
			continue
		}
		_ = res.Inventory.Add(def.ID, def.Tier, n)
	}
	return res
}

func (w *World) buildWelcome(playerID string, nowMs int64) protocol.WelcomeMsg {
	listings := w.sietch.MerchantCatalog()
	merchant := make([]protocol.MerchantListing, 0, len(listings))
	for _, l := range listings {
		merchant = append(merchant, protocol.MerchantListing{
			ItemID: l.Item.ID,
			Name:   l.Item.Name,
			Tier:   l.Item.Tier,
			Price:  l.Price,
		})
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        playerID,
		Seed:            w.cfg.Seed,
		Timestamp:       nowMs,
		WorldParams: protocol.WorldParams{
			TickRateHz:  w.tun.TickRateHz,
			WorldRadius: w.tun.WorldRadius,
			Sietch: protocol.SietchRef{
				X:      w.tun.Sietch.X,
				Z:      w.tun.Sietch.Z,
				Radius: w.tun.Sietch.Radius,
			},
		},
		ItemCatalog: protocol.DigestRef{Digest: w.cat.Digest, Count: len(w.cat.IDs)},
		Merchant:    merchant,
	}
}

// handleLeave detaches the session and freezes the player record. Riding
// ends immediately so the worm is not locked for the grace window.
func (w *World) handleLeave(playerID string, nowTick uint64, nowMs int64) {
	delete(w.clients, playerID)
	p := w.players[playerID]
	if p == nil || !p.Connected {
		return
	}
	if p.RidingWormID != "" {
		w.forceDismount(p, nowMs)
	}
	p.Connected = false
	p.DisconnectedAtTick = nowTick
	p.Activity = survival.Idle
	w.pushSave(p)
}

// prunePlayers drops identities whose disconnect outlived the grace
// window. The store keeps their record; a later hello restores it.
func (w *World) prunePlayers(nowTick uint64) {
	grace := uint64(w.tun.Session.DisconnectGraceTicks)
	var gone []string
	for id, p := range w.players {
		if !p.Connected && nowTick-p.DisconnectedAtTick >= grace {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		w.pushSave(w.players[id])
		delete(w.players, id)
	}
}

func (w *World) pushSave(p *Player) {
	if w.saveSink == nil || p == nil {
		return
	}
	select {
	case w.saveSink <- SaveRequest{PlayerID: p.ID, Name: p.Name, Resources: p.Res.Clone()}:
	default:
		// Drop if the writer is backed up; the next cadence retries.
	}
}

func (w *World) flushSaves(nowTick uint64) {
	if w.saveSink == nil {
		return
	}
	every := uint64(w.tun.Session.SaveEveryTicks)
	if every == 0 || nowTick == 0 || nowTick%every != 0 {
		return
	}
	for _, p := range w.sortedPlayers() {
		if p.Connected {
			w.pushSave(p)
		}
	}
}
