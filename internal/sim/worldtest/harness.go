package worldtest

import (
	"encoding/json"
	"testing"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/persistence/snapshot"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/objective"
	world "arrakis.gg/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Join() attaches sessions via StepOnce()
// - Move()/Action()/Trade() feed wire messages via StepOnce()
// - Per-player Out channels carry the server frames, classified by type tag
// - Snapshot/Debug* helpers provide deterministic preconditions
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T   *testing.T
	Cat *catalog.Catalog
	W   *world.World

	DefaultPlayerID string

	sessions map[string]*session
}

func NewHarness(t *testing.T, cfg world.Config, cat *catalog.Catalog, playerName string) *Harness {
	t.Helper()

	w, err := world.New(cfg, cat)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}

	h := &Harness{
		T:        t,
		Cat:      cat,
		W:        w,
		sessions: map[string]*session{},
	}
	h.DefaultPlayerID = h.Join(playerName)
	return h
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world
// instance. This is useful for snapshot round-trip tests where the snapshot is
// imported before join.
func NewHarnessWithWorld(t *testing.T, w *world.World, cat *catalog.Catalog, playerName string) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}

	h := &Harness{
		T:        t,
		Cat:      cat,
		W:        w,
		sessions: map[string]*session{},
	}
	h.DefaultPlayerID = h.Join(playerName)
	return h
}

// session tracks one attached player: the newest S_STATE plus every event,
// combat and trade frame received since the last Take call.
type session struct {
	PlayerID string
	Out      chan []byte

	seq       uint32
	lastState protocol.StateMsg
	events    []protocol.GameEvent
	combat    []protocol.CombatEvent
	trades    []protocol.TradeResultMsg
}

func (h *Harness) Join(playerName string) string {
	h.T.Helper()

	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	_, _ = h.W.StepOnce([]world.JoinRequest{{
		Name: playerName,
		Out:  out,
		Resp: resp,
	}}, nil, nil, nil)
	jr := <-resp
	if jr.Welcome.PlayerID == "" {
		h.T.Fatalf("join returned empty player id")
	}
	s := &session{PlayerID: jr.Welcome.PlayerID, Out: out}
	h.sessions[s.PlayerID] = s
	h.drainAll()
	return s.PlayerID
}

// Leave detaches a session at the next tick boundary. The player record
// stays frozen for the disconnect grace window; the session keeps its last
// drained frames.
func (h *Harness) Leave(playerID string) {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, []string{playerID}, nil, nil)
	h.drainAll()
}

func (h *Harness) LastState() protocol.StateMsg {
	return h.LastStateFor(h.DefaultPlayerID)
}

func (h *Harness) LastStateFor(playerID string) protocol.StateMsg {
	h.T.Helper()
	return h.session(playerID).lastState
}

// TakeEvents returns the game events accumulated for the default player and
// clears the buffer.
func (h *Harness) TakeEvents() []protocol.GameEvent {
	return h.TakeEventsFor(h.DefaultPlayerID)
}

func (h *Harness) TakeEventsFor(playerID string) []protocol.GameEvent {
	h.T.Helper()
	s := h.session(playerID)
	out := s.events
	s.events = nil
	return out
}

func (h *Harness) TakeCombatEvents() []protocol.CombatEvent {
	return h.TakeCombatEventsFor(h.DefaultPlayerID)
}

func (h *Harness) TakeCombatEventsFor(playerID string) []protocol.CombatEvent {
	h.T.Helper()
	s := h.session(playerID)
	out := s.combat
	s.combat = nil
	return out
}

func (h *Harness) TakeTradeResultsFor(playerID string) []protocol.TradeResultMsg {
	h.T.Helper()
	s := h.session(playerID)
	out := s.trades
	s.trades = nil
	return out
}

// Move submits one movement input for the default player and steps one tick.
func (h *Harness) Move(fwd, right int8, rotation float64) protocol.StateMsg {
	return h.MoveFor(h.DefaultPlayerID, fwd, right, rotation)
}

func (h *Harness) MoveFor(playerID string, fwd, right int8, rotation float64) protocol.StateMsg {
	h.T.Helper()
	in := h.nextInput(playerID)
	in.Movement = protocol.MovementIntent{Forward: fwd, Right: right}
	in.Rotation = rotation
	h.stepWith([]world.InputEnvelope{{PlayerID: playerID, Msg: in}}, nil)
	return h.LastStateFor(playerID)
}

// Action submits one action for the default player and steps one tick.
func (h *Harness) Action(actType, target string) protocol.StateMsg {
	return h.ActionFor(h.DefaultPlayerID, actType, target)
}

func (h *Harness) ActionFor(playerID, actType, target string) protocol.StateMsg {
	h.T.Helper()
	in := h.nextInput(playerID)
	in.Action = &protocol.ActionReq{Type: actType, Target: target}
	h.stepWith([]world.InputEnvelope{{PlayerID: playerID, Msg: in}}, nil)
	return h.LastStateFor(playerID)
}

// Steer submits a worm control input for the default player and steps one tick.
func (h *Harness) Steer(direction, speedIntent float64) protocol.StateMsg {
	h.T.Helper()
	in := h.nextInput(h.DefaultPlayerID)
	in.WormControl = &protocol.WormControl{Direction: direction, SpeedIntent: speedIntent}
	h.stepWith([]world.InputEnvelope{{PlayerID: h.DefaultPlayerID, Msg: in}}, nil)
	return h.LastState()
}

// Trade submits one C_TRADE for the default player, steps one tick and
// returns the matching result frame.
func (h *Harness) Trade(op, itemID, reqID string) protocol.TradeResultMsg {
	return h.TradeFor(h.DefaultPlayerID, op, itemID, reqID)
}

func (h *Harness) TradeFor(playerID, op, itemID, reqID string) protocol.TradeResultMsg {
	h.T.Helper()
	h.stepWith(nil, []world.TradeEnvelope{{PlayerID: playerID, Msg: protocol.TradeMsg{
		Type:            protocol.TypeTrade,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Op:              op,
		ItemID:          itemID,
	}}})
	trs := h.TakeTradeResultsFor(playerID)
	if len(trs) == 0 {
		h.T.Fatalf("no trade result for %q", playerID)
	}
	return trs[len(trs)-1]
}

func (h *Harness) StepNoop() protocol.StateMsg {
	h.T.Helper()
	h.stepWith(nil, nil)
	return h.LastState()
}

// StepN advances n ticks with no client traffic, draining frames every tick
// so nothing falls to the outbox drop-oldest policy.
func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.stepWith(nil, nil)
	}
}

// Seq returns the sequence number of the player's most recent input, the
// ref an action_result event answers with.
func (h *Harness) Seq(playerID string) uint32 {
	h.T.Helper()
	return h.session(playerID).seq
}

// nextInput builds a minimal C_INPUT carrying the session's next sequence
// number; stale or duplicate seqs would be dropped by the world.
func (h *Harness) nextInput(playerID string) protocol.InputMsg {
	h.T.Helper()
	s := h.session(playerID)
	s.seq++
	return protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             s.seq,
	}
}

func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	// Keep tick stable: export at currentTick-1 then import would restore to currentTick.
	cur := h.W.CurrentTick()
	if cur == 0 {
		return 0, h.W.ExportSnapshot(0)
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) SetPos(pos geo.Vector3) {
	h.SetPosFor(h.DefaultPlayerID, pos)
}

func (h *Harness) SetPosFor(playerID string, pos geo.Vector3) {
	h.T.Helper()
	if ok := h.W.DebugSetPlayerPos(playerID, pos); !ok {
		h.T.Fatalf("DebugSetPlayerPos returned false")
	}
}

func (h *Harness) SetVitals(water, health float64) {
	h.SetVitalsFor(h.DefaultPlayerID, water, health)
}

func (h *Harness) SetVitalsFor(playerID string, water, health float64) {
	h.T.Helper()
	if ok := h.W.DebugSetVitals(playerID, water, health); !ok {
		h.T.Fatalf("DebugSetVitals returned false")
	}
}

func (h *Harness) SetSpice(spice int) {
	h.SetSpiceFor(h.DefaultPlayerID, spice)
}

func (h *Harness) SetSpiceFor(playerID string, spice int) {
	h.T.Helper()
	if ok := h.W.DebugSetSpice(playerID, spice); !ok {
		h.T.Fatalf("DebugSetSpice returned false")
	}
}

func (h *Harness) AddInventory(itemID string, delta int) {
	h.AddInventoryFor(h.DefaultPlayerID, itemID, delta)
}

func (h *Harness) AddInventoryFor(playerID, itemID string, delta int) {
	h.T.Helper()
	if ok := h.W.DebugAddInventory(playerID, itemID, delta); !ok {
		h.T.Fatalf("DebugAddInventory returned false")
	}
}

func (h *Harness) MoveWorm(wormID string, pos geo.Vector3) {
	h.T.Helper()
	if ok := h.W.DebugMoveWorm(wormID, pos); !ok {
		h.T.Fatalf("DebugMoveWorm returned false")
	}
}

func (h *Harness) SpawnObjective(target geo.Vector3) *objective.Objective {
	h.T.Helper()
	o := h.W.DebugSpawnObjective(target)
	if o == nil {
		h.T.Fatalf("DebugSpawnObjective returned nil")
	}
	return o
}

func (h *Harness) session(playerID string) *session {
	h.T.Helper()
	s := h.sessions[playerID]
	if s == nil {
		h.T.Fatalf("unknown player id: %q", playerID)
	}
	return s
}

func (h *Harness) stepWith(inputs []world.InputEnvelope, trades []world.TradeEnvelope) {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, inputs, trades)
	h.drainAll()
}

func (h *Harness) drainAll() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOne(s)
	}
}

// drainOne classifies every buffered frame by its type tag. S_STATE keeps
// only the newest; events, combat and trade results accumulate until a Take
// helper collects them.
func (h *Harness) drainOne(s *session) {
	h.T.Helper()
	for {
		var b []byte
		select {
		case b = <-s.Out:
		default:
			return
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(b, &head); err != nil {
			h.T.Fatalf("unmarshal frame header: %v", err)
		}
		switch head.Type {
		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(b, &st); err != nil {
				h.T.Fatalf("unmarshal S_STATE: %v", err)
			}
			s.lastState = st
		case protocol.TypeEvent:
			var em protocol.EventMsg
			if err := json.Unmarshal(b, &em); err != nil {
				h.T.Fatalf("unmarshal S_EVENT: %v", err)
			}
			s.events = append(s.events, em.Events...)
		case protocol.TypeCombatEvent:
			var cm protocol.CombatEventMsg
			if err := json.Unmarshal(b, &cm); err != nil {
				h.T.Fatalf("unmarshal S_COMBAT_EVENT: %v", err)
			}
			s.combat = append(s.combat, cm.Events...)
		case protocol.TypeTradeResult:
			var tr protocol.TradeResultMsg
			if err := json.Unmarshal(b, &tr); err != nil {
				h.T.Fatalf("unmarshal S_TRADE_RESULT: %v", err)
			}
			s.trades = append(s.trades, tr)
		default:
			h.T.Fatalf("unexpected frame type %q", head.Type)
		}
	}
}
