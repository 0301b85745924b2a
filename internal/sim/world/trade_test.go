package world

import (
	"testing"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
)

func tradeMsg(reqID, op, itemID string) protocol.TradeMsg {
	return protocol.TradeMsg{
		Type:            protocol.TypeTrade,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		Op:              op,
		ItemID:          itemID,
	}
}

// tradeWorld parks a funded player inside the sietch, with the objective
// pinned far away so it cannot complete under the player mid-test.
func tradeWorld(t *testing.T) (*World, string) {
	t.Helper()
	w := newTestWorld(t, 5, testTuning())
	id := joinOne(t, w, "paul")
	w.DebugSpawnObjective(geo.Vector3{X: -400})
	w.DebugSetPlayerPos(id, geo.Vector3{X: 150, Z: 150})
	w.DebugSetSpice(id, 200)
	return w, id
}

func TestTrade_BuyInsideSietch(t *testing.T) {
	w, id := tradeWorld(t)

	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R1", "buy", "desert_boots")}})

	res, _ := w.DebugPlayerResources(id)
	if res.Spice != 80 {
		t.Fatalf("spice = %d want 80", res.Spice)
	}
	if got := res.Inventory.Count("desert_boots", 1); got != 1 {
		t.Fatalf("boots = %d want 1", got)
	}
}

func TestTrade_SellHalvesFloored(t *testing.T) {
	w, id := tradeWorld(t)

	// Starter kit carries two thumpers; buy price 50 sells for 25.
	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R1", "sell", "thumper")}})

	res, _ := w.DebugPlayerResources(id)
	if res.Spice != 225 {
		t.Fatalf("spice = %d want 225", res.Spice)
	}
	if got := res.Inventory.Count("thumper", 1); got != 1 {
		t.Fatalf("thumpers = %d want 1", got)
	}
}

func TestTrade_OutsideSafeZoneRejected(t *testing.T) {
	w, id := tradeWorld(t)
	w.DebugSetPlayerPos(id, geo.Vector3{}) // origin is ~212m from the sietch

	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R1", "buy", "desert_boots")}})

	res, _ := w.DebugPlayerResources(id)
	if res.Spice != 200 || res.Inventory.Count("desert_boots", 1) != 0 {
		t.Fatalf("trade went through outside the sietch: %+v", res)
	}
}

func TestTrade_InsufficientSpice(t *testing.T) {
	w, id := tradeWorld(t)
	w.DebugSetSpice(id, 100)

	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R1", "buy", "stillsuit_basic")}})

	res, _ := w.DebugPlayerResources(id)
	if res.Spice != 100 || res.Inventory.Count("stillsuit_basic", 1) != 0 {
		t.Fatalf("underfunded buy mutated state: %+v", res)
	}
}

func TestTrade_UnpricedAndUnknownItems(t *testing.T) {
	w, id := tradeWorld(t)
	w.DebugAddInventory(id, "spice_crystal", 3)

	w.StepOnce(nil, nil, nil, []TradeEnvelope{
		{PlayerID: id, Msg: tradeMsg("R1", "buy", "spice_crystal")},
		{PlayerID: id, Msg: tradeMsg("R2", "sell", "spice_crystal")},
		{PlayerID: id, Msg: tradeMsg("R3", "buy", "lasgun")},
	})

	res, _ := w.DebugPlayerResources(id)
	if res.Spice != 200 {
		t.Fatalf("spice = %d want 200", res.Spice)
	}
	if got := res.Inventory.Count("spice_crystal", 1); got != 3 {
		t.Fatalf("crystals = %d want 3", got)
	}
}

// A duplicate req_id must replay the original outcome, not re-run the
// trade.
func TestTrade_DuplicateReqIDReplaysResult(t *testing.T) {
	w, id := tradeWorld(t)

	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R1", "buy", "desert_boots")}})
	res, _ := w.DebugPlayerResources(id)
	if res.Spice != 80 || res.Inventory.Count("desert_boots", 1) != 1 {
		t.Fatalf("first buy: %+v", res)
	}

	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R1", "buy", "desert_boots")}})
	res, _ = w.DebugPlayerResources(id)
	if res.Spice != 80 || res.Inventory.Count("desert_boots", 1) != 1 {
		t.Fatalf("duplicate req re-ran the trade: %+v", res)
	}

	// A fresh req_id is a genuine second purchase.
	w.StepOnce(nil, nil, nil, []TradeEnvelope{{PlayerID: id, Msg: tradeMsg("R2", "buy", "thumper")}})
	res, _ = w.DebugPlayerResources(id)
	if res.Spice != 30 || res.Inventory.Count("thumper", 1) != 3 {
		t.Fatalf("second buy: %+v", res)
	}
}

func TestTrade_BuySellNeverProfits(t *testing.T) {
	w, id := tradeWorld(t)

	w.StepOnce(nil, nil, nil, []TradeEnvelope{
		{PlayerID: id, Msg: tradeMsg("R1", "buy", "fremkit_hood")},
		{PlayerID: id, Msg: tradeMsg("R2", "sell", "fremkit_hood")},
	})

	res, _ := w.DebugPlayerResources(id)
	// 200 - 85 + floor(85/2) = 157
	if res.Spice != 157 {
		t.Fatalf("spice after round trip = %d want 157", res.Spice)
	}
	if res.Spice > 200 {
		t.Fatalf("round trip profited")
	}
}
