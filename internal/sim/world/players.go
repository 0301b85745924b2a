package world

import (
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/survival"
)

// Player is the live runtime record for one identity, connected or not.
// Mutated only from the world loop goroutine.
type Player struct {
	ID   string
	Name string

	Pos geo.Vector3
	Yaw float64

	Res player.Resources

	Activity     survival.Activity
	RidingWormID string

	// LastInputSeq is the newest applied C_INPUT seq of the current
	// session. Every (re)join resets it because clients restart their
	// sequence at 1.
	LastInputSeq uint32

	Connected          bool
	DisconnectedAtTick uint64

	// Per-tick private outboxes, drained by the state sender.
	events []protocol.GameEvent
	trades []protocol.TradeResultMsg
}

func (p *Player) addEvent(ev protocol.GameEvent) { p.events = append(p.events, ev) }

type clientState struct {
	Out chan []byte
}
