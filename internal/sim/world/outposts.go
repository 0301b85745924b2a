package world

import (
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
)

// Outpost is a fixed capture site. Progress accrues only while exactly
// one connected non-owner stands inside the ring; anything else resets it.
type Outpost struct {
	ID          string
	Position    geo.Vector3
	Owner       string
	CapturingBy string
	ProgressSec float64
}

func (w *World) spawnOutposts() {
	for _, site := range w.tun.Outposts.Sites {
		w.outposts = append(w.outposts, &Outpost{
			ID:       site.ID,
			Position: geo.Vector3{X: site.X, Z: site.Z},
		})
	}
}

func (w *World) systemOutposts(dt float64) {
	players := w.sortedPlayers()
	for _, o := range w.outposts {
		var inside []*Player
		for _, p := range players {
			if p.Connected && geo.WithinXZ(p.Pos, o.Position, w.tun.Outposts.CaptureRadius) {
				inside = append(inside, p)
			}
		}
		if len(inside) != 1 || inside[0].ID == o.Owner {
			// Contested, empty, or the owner holding their own ground.
			o.CapturingBy = ""
			o.ProgressSec = 0
			continue
		}
		p := inside[0]
		if o.CapturingBy != p.ID {
			o.CapturingBy = p.ID
			o.ProgressSec = 0
		}
		o.ProgressSec += dt
		if o.ProgressSec >= w.tun.Outposts.CaptureSeconds {
			o.Owner = p.ID
			o.CapturingBy = ""
			o.ProgressSec = 0
			p.Res.Stats.OutpostsCaptured++
			w.broadcast(protocol.GameEvent{Kind: protocol.EventOutpostCaptured, OutpostID: o.ID, PlayerID: p.ID})
			w.audit("OUTPOST_CAPTURED", p.ID, o.Position, map[string]any{"outpost_id": o.ID})
		}
	}
}
