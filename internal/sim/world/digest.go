package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// stateDigest folds every replay-relevant field into sha256. Collections
// walk in sorted id order so two worlds that agree produce identical
// digests byte for byte.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, w.src.state)
	digestWriteI64(h, &tmp, w.objRespawnAtMs)

	w.digestPlayers(h, &tmp)
	w.digestWorms(h, &tmp)
	w.digestThumpers(h, &tmp)
	w.digestObjective(h, &tmp)
	w.digestCorpses(h, &tmp)
	w.digestOutposts(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteVec(h hashWriter, tmp *[8]byte, x, y, z float64) {
	digestWriteF64(h, tmp, x)
	digestWriteF64(h, tmp, y)
	digestWriteF64(h, tmp, z)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (w *World) digestPlayers(h hashWriter, tmp *[8]byte) {
	players := w.sortedPlayers()
	digestWriteU64(h, tmp, uint64(len(players)))
	for _, p := range players {
		digestWriteString(h, tmp, p.ID)
		digestWriteString(h, tmp, p.Name)
		h.Write([]byte{boolByte(p.Connected)})
		digestWriteU64(h, tmp, p.DisconnectedAtTick)
		digestWriteVec(h, tmp, p.Pos.X, p.Pos.Y, p.Pos.Z)
		digestWriteF64(h, tmp, p.Yaw)
		digestWriteF64(h, tmp, p.Res.Water)
		digestWriteF64(h, tmp, p.Res.Health)
		digestWriteI64(h, tmp, int64(p.Res.Spice))
		digestWriteU64(h, tmp, uint64(p.LastInputSeq))
		digestWriteU64(h, tmp, uint64(p.Activity))
		digestWriteString(h, tmp, p.RidingWormID)
		digestWriteString(h, tmp, p.Res.Equipment.Head)
		digestWriteString(h, tmp, p.Res.Equipment.Body)
		digestWriteString(h, tmp, p.Res.Equipment.Feet)

		stacks := p.Res.Inventory.Sorted()
		digestWriteU64(h, tmp, uint64(len(stacks)))
		for _, it := range stacks {
			digestWriteString(h, tmp, it.Type)
			digestWriteI64(h, tmp, int64(it.Tier))
			digestWriteI64(h, tmp, int64(it.Quantity))
		}

		digestWriteI64(h, tmp, int64(p.Res.Stats.ObjectivesCompleted))
		digestWriteI64(h, tmp, int64(p.Res.Stats.TotalSpiceEarned))
		digestWriteF64(h, tmp, p.Res.Stats.DistanceTraveled)
		digestWriteI64(h, tmp, int64(p.Res.Stats.Deaths))
		digestWriteI64(h, tmp, int64(p.Res.Stats.WormsRidden))
		digestWriteI64(h, tmp, int64(p.Res.Stats.OutpostsCaptured))
	}
}

func (w *World) digestWorms(h hashWriter, tmp *[8]byte) {
	ids := w.sortedWormIDs()
	digestWriteU64(h, tmp, uint64(len(ids)))
	for _, id := range ids {
		wm := w.worms[id]
		digestWriteString(h, tmp, wm.ID)
		digestWriteString(h, tmp, wm.State)
		digestWriteF64(h, tmp, wm.Heading)
		digestWriteF64(h, tmp, wm.Speed)
		digestWriteF64(h, tmp, wm.Health)
		digestWriteString(h, tmp, wm.RiderID)
		digestWriteString(h, tmp, wm.TargetThumperID)
		digestWriteF64(h, tmp, wm.Control.Direction)
		digestWriteF64(h, tmp, wm.Control.SpeedIntent)
		digestWriteI64(h, tmp, wm.SpiralUntilMs)
		digestWriteI64(h, tmp, wm.WanderAtMs)
		digestWriteU64(h, tmp, uint64(len(wm.Points)))
		for _, pt := range wm.Points {
			digestWriteVec(h, tmp, pt.X, pt.Y, pt.Z)
		}
	}
}

func (w *World) digestThumpers(h hashWriter, tmp *[8]byte) {
	ids := w.sortedThumperIDs()
	digestWriteU64(h, tmp, uint64(len(ids)))
	for _, id := range ids {
		th := w.thumpers[id]
		digestWriteString(h, tmp, th.ID)
		digestWriteVec(h, tmp, th.Position.X, th.Position.Y, th.Position.Z)
		digestWriteString(h, tmp, th.PlacedBy)
		digestWriteI64(h, tmp, th.CreatedAt)
		digestWriteI64(h, tmp, th.ExpiresAt)
	}
}

func (w *World) digestObjective(h hashWriter, tmp *[8]byte) {
	o := w.objectives.Current()
	h.Write([]byte{boolByte(o != nil)})
	if o == nil {
		return
	}
	digestWriteString(h, tmp, o.ID)
	digestWriteString(h, tmp, o.Type)
	digestWriteVec(h, tmp, o.Target.X, o.Target.Y, o.Target.Z)
	digestWriteF64(h, tmp, o.Radius)
	digestWriteI64(h, tmp, o.TimeLimitMs)
	digestWriteI64(h, tmp, o.ExpiresAt)
	digestWriteString(h, tmp, string(o.Status))
	digestWriteI64(h, tmp, o.FailedAt)
}

func (w *World) digestCorpses(h hashWriter, tmp *[8]byte) {
	markers := w.corpses.Export()
	digestWriteU64(h, tmp, uint64(len(markers)))
	for _, m := range markers {
		digestWriteString(h, tmp, m.ID)
		digestWriteString(h, tmp, m.PlayerID)
		digestWriteVec(h, tmp, m.Position.X, m.Position.Y, m.Position.Z)
		digestWriteI64(h, tmp, int64(m.SpiceAmount))
		digestWriteI64(h, tmp, m.CreatedAt)
		digestWriteI64(h, tmp, m.ExpiresAt)
	}
}

func (w *World) digestOutposts(h hashWriter, tmp *[8]byte) {
	digestWriteU64(h, tmp, uint64(len(w.outposts)))
	for _, o := range w.outposts {
		digestWriteString(h, tmp, o.ID)
		digestWriteVec(h, tmp, o.Position.X, o.Position.Y, o.Position.Z)
		digestWriteString(h, tmp, o.Owner)
		digestWriteString(h, tmp, o.CapturingBy)
		digestWriteF64(h, tmp, o.ProgressSec)
	}
}
