package world

import (
	"math"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/motion"
	"arrakis.gg/internal/sim/survival"
)

// Worm AI states, carried verbatim on the wire.
const (
	WormPatrolling         = "PATROLLING"
	WormApproachingThumper = "APPROACHING_THUMPER"
	WormRidden             = "RIDDEN_BY"
	WormSafeSpiral         = "SAFE_SPIRAL"
)

// Patrol heading changes at this cadence while nothing attracts the worm.
const wormWanderIntervalMs = 4000

// Worm is one sandworm: a head pose plus a chain of trailing control
// points rendered as the body. Points[0] is the head.
type Worm struct {
	ID      string
	State   string
	Heading float64
	Speed   float64
	Health  float64

	RiderID         string
	TargetThumperID string
	Control         protocol.WormControl
	SpiralUntilMs   int64
	WanderAtMs      int64

	Points []geo.Vector3
}

func (wm *Worm) Head() geo.Vector3 { return wm.Points[0] }

// headingDir maps a heading to its unit direction, zero facing +Z and
// pi/2 facing +X, the same convention player movement uses.
func headingDir(h float64) geo.Vector3 {
	return geo.Vector3{X: math.Sin(h), Z: math.Cos(h)}
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func steerToward(heading, want, turnMax float64) float64 {
	delta := wrapAngle(want - heading)
	if delta > turnMax {
		delta = turnMax
	} else if delta < -turnMax {
		delta = -turnMax
	}
	return wrapAngle(heading + delta)
}

// spawnWorms places the initial population on a fixed ring so a given
// seed and tuning always starts identically. Only the ids draw from the
// simulation stream.
func (w *World) spawnWorms() {
	n := w.tun.Worms.Count
	ring := w.tun.WorldRadius * 0.3
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		head := geo.Vector3{X: ring * math.Sin(angle), Z: ring * math.Cos(angle)}
		heading := wrapAngle(angle + math.Pi/2)
		wm := &Worm{
			ID:      w.newID(),
			State:   WormPatrolling,
			Heading: heading,
			Speed:   w.tun.Worms.PatrolSpeedMps,
			Health:  w.tun.Worms.Health,
			Points:  make([]geo.Vector3, w.tun.Worms.SegmentCount),
		}
		back := headingDir(heading).Scale(-w.tun.Worms.SegmentSpacing)
		for s := range wm.Points {
			wm.Points[s] = head.Add(back.Scale(float64(s)))
		}
		w.worms[wm.ID] = wm
	}
}

func (w *World) systemWorms(nowMs int64, dt float64) {
	for _, id := range w.sortedWormIDs() {
		w.stepWorm(w.worms[id], nowMs, dt)
	}
}

func (w *World) stepWorm(wm *Worm, nowMs int64, dt float64) {
	turnMax := w.tun.Worms.TurnRateRadPerSec * dt

	switch wm.State {
	case WormRidden:
		wm.Speed = wm.Control.SpeedIntent * w.tun.Worms.RiddenSpeedMps
		wm.Heading = wrapAngle(wm.Heading + wm.Control.Direction*turnMax)
	case WormSafeSpiral:
		if nowMs >= wm.SpiralUntilMs {
			wm.State = WormPatrolling
			wm.Speed = w.tun.Worms.PatrolSpeedMps
			wm.WanderAtMs = nowMs + wormWanderIntervalMs
		} else {
			// Constant turn at patrol speed until the spiral runs out.
			wm.Speed = w.tun.Worms.PatrolSpeedMps
			wm.Heading = wrapAngle(wm.Heading + turnMax)
		}
	default:
		w.steerWild(wm, nowMs, turnMax)
	}

	// Advance the head, then let the body trail at fixed spacing.
	head := motion.ClampRadius(wm.Head().Add(headingDir(wm.Heading).Scale(wm.Speed*dt)), w.tun.WorldRadius)
	wm.Points[0] = head
	spacing := w.tun.Worms.SegmentSpacing
	for i := 1; i < len(wm.Points); i++ {
		prev := wm.Points[i-1]
		seg := wm.Points[i]
		d := geo.DistXZ(prev, seg)
		if d > spacing {
			t := (d - spacing) / d
			seg.X += (prev.X - seg.X) * t
			seg.Z += (prev.Z - seg.Z) * t
			wm.Points[i] = seg
		}
	}

	// Wild worms pinned on the boundary turn back toward the center.
	if wm.State != WormRidden && geo.DistXZ(head, geo.Origin) >= w.tun.WorldRadius-1 {
		toCenter := math.Atan2(-head.X, -head.Z)
		wm.Heading = steerToward(wm.Heading, toCenter, turnMax)
	}

	// An approaching worm that reaches its thumper silences it.
	if wm.State == WormApproachingThumper {
		if th := w.thumpers[wm.TargetThumperID]; th != nil && geo.DistXZ(head, th.Position) <= w.tun.Worms.ArriveRadius {
			w.consumeThumper(th, wm, nowMs)
		}
	}

	// A mounted rider is pinned to the head.
	if wm.RiderID != "" {
		if p := w.players[wm.RiderID]; p != nil {
			p.Res.Stats.DistanceTraveled += geo.DistXZ(p.Pos, head)
			p.Pos = head
			p.Yaw = wm.Heading
		}
	}
}

// steerWild picks the wild worm's goal for this tick: the nearest live
// thumper in attract range wins over wandering.
func (w *World) steerWild(wm *Worm, nowMs int64, turnMax float64) {
	head := wm.Head()
	if th := w.nearestThumper(head); th != nil && geo.DistXZ(head, th.Position) <= w.tun.Worms.AttractRadius {
		wm.State = WormApproachingThumper
		wm.TargetThumperID = th.ID
		wm.Speed = w.tun.Worms.ApproachSpeedMps
		want := math.Atan2(th.Position.X-head.X, th.Position.Z-head.Z)
		wm.Heading = steerToward(wm.Heading, want, turnMax)
		return
	}
	wm.State = WormPatrolling
	wm.TargetThumperID = ""
	wm.Speed = w.tun.Worms.PatrolSpeedMps
	if nowMs >= wm.WanderAtMs {
		wm.WanderAtMs = nowMs + wormWanderIntervalMs
		wm.Heading = wrapAngle(wm.Heading + (w.rng.Float64()*2-1)*0.8)
	}
}

// nearestThumper scans in sorted id order so distance ties break the same
// way in every run.
func (w *World) nearestThumper(from geo.Vector3) *Thumper {
	var best *Thumper
	bestD := math.MaxFloat64
	for _, id := range w.sortedThumperIDs() {
		th := w.thumpers[id]
		if d := geo.DistXZ(from, th.Position); d < bestD {
			best, bestD = th, d
		}
	}
	return best
}

func (w *World) consumeThumper(th *Thumper, wm *Worm, nowMs int64) {
	delete(w.thumpers, th.ID)
	wm.State = WormPatrolling
	wm.TargetThumperID = ""
	wm.Speed = w.tun.Worms.PatrolSpeedMps
	wm.WanderAtMs = nowMs + wormWanderIntervalMs
	w.broadcast(protocol.GameEvent{
		Kind:      protocol.EventThumperExpired,
		ThumperID: th.ID,
		WormID:    wm.ID,
		PlayerID:  th.PlacedBy,
	})
}

func (w *World) mountWorm(p *Player, wormID string, ev *protocol.GameEvent) error {
	if p.RidingWormID != "" {
		return protocol.Errf(protocol.ErrBadRequest, "already riding")
	}
	wm := w.worms[wormID]
	if wm == nil {
		return protocol.Errf(protocol.ErrNotFound, "no such worm")
	}
	if wm.RiderID != "" {
		return protocol.Errf(protocol.ErrBadRequest, "worm already ridden")
	}
	if wm.State == WormSafeSpiral {
		return protocol.Errf(protocol.ErrBadRequest, "worm is spiraling")
	}
	if geo.DistXZ(p.Pos, wm.Head()) > w.tun.Worms.MountRadius {
		return protocol.Errf(protocol.ErrTooFar, "worm out of reach")
	}
	wm.State = WormRidden
	wm.RiderID = p.ID
	wm.TargetThumperID = ""
	wm.Control = protocol.WormControl{Direction: 0, SpeedIntent: 1}
	p.RidingWormID = wm.ID
	p.Activity = survival.RidingWorm
	p.Res.Stats.WormsRidden++
	ev.WormID = wm.ID
	w.broadcast(protocol.GameEvent{Kind: protocol.EventWormMounted, WormID: wm.ID, PlayerID: p.ID})
	return nil
}

func (w *World) dismountWorm(p *Player, nowMs int64, ev *protocol.GameEvent) error {
	if p.RidingWormID == "" {
		return protocol.Errf(protocol.ErrBadRequest, "not riding")
	}
	ev.WormID = p.RidingWormID
	w.forceDismount(p, nowMs)
	return nil
}

// forceDismount drops the rider at the head and releases the worm into a
// safety spiral so it cannot be chain-mounted on the spot.
func (w *World) forceDismount(p *Player, nowMs int64) {
	wm := w.worms[p.RidingWormID]
	p.RidingWormID = ""
	p.Activity = survival.Idle
	if wm == nil {
		return
	}
	wm.RiderID = ""
	wm.State = WormSafeSpiral
	wm.SpiralUntilMs = nowMs + w.tun.Worms.SafeSpiralDurationMs
	wm.Speed = w.tun.Worms.PatrolSpeedMps
	wm.Control = protocol.WormControl{}
	w.broadcast(protocol.GameEvent{Kind: protocol.EventWormDismounted, WormID: wm.ID, PlayerID: p.ID})
}
