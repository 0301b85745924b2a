package world

import (
	"sort"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
)

const itemThumper = "thumper"

// Thumper is a deployed rhythm device. It attracts worms until its
// lifetime runs out or a worm reaches it.
type Thumper struct {
	ID        string
	Position  geo.Vector3
	PlacedBy  string
	CreatedAt int64
	ExpiresAt int64
}

func (w *World) deployThumper(p *Player, nowMs int64, ev *protocol.GameEvent) error {
	def, ok := w.cat.Lookup(itemThumper)
	if !ok {
		return protocol.Errf(protocol.ErrUnknownItem, "thumper missing from catalog")
	}
	if err := p.Res.Inventory.Remove(def.ID, def.Tier, 1); err != nil {
		return err
	}
	th := &Thumper{
		ID:        w.newID(),
		Position:  p.Pos,
		PlacedBy:  p.ID,
		CreatedAt: nowMs,
		ExpiresAt: nowMs + w.tun.Thumpers.LifetimeMs,
	}
	w.thumpers[th.ID] = th
	ev.ThumperID = th.ID
	pos := th.Position
	w.broadcast(protocol.GameEvent{Kind: protocol.EventThumperDeployed, ThumperID: th.ID, PlayerID: p.ID, Position: &pos})
	return nil
}

func (w *World) systemThumpers(nowMs int64) {
	for _, id := range w.sortedThumperIDs() {
		th := w.thumpers[id]
		if nowMs >= th.ExpiresAt {
			delete(w.thumpers, id)
			w.broadcast(protocol.GameEvent{Kind: protocol.EventThumperExpired, ThumperID: id, PlayerID: th.PlacedBy})
		}
	}
}

func (w *World) sortedThumperIDs() []string {
	ids := make([]string, 0, len(w.thumpers))
	for id := range w.thumpers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
