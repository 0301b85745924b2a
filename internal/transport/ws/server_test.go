package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"arrakis.gg/internal/persistence/store"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/tuning"
	"arrakis.gg/internal/sim/world"
)

func startServer(t *testing.T, st *store.PlayerStore) string {
	t.Helper()
	cat, err := catalog.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	tun := tuning.Defaults()
	tun.TickRateHz = 20
	w, err := world.New(world.Config{ID: "ws-test", Seed: 42, Tuning: tun}, cat)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()
	t.Cleanup(cancel)

	srv := httptest.NewServer(NewServer(w, st, log.New(os.Stdout, "[ws-test] ", 0)).Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readType skips frames until one of the wanted type arrives.
func readType(t *testing.T, conn *websocket.Conn, wantType string) []byte {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", wantType, err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode base: %v", err)
		}
		if base.Type == wantType {
			return msg
		}
	}
	t.Fatalf("no %s frame before deadline", wantType)
	return nil
}

func hello(name, playerID string) protocol.HelloMsg {
	return protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      name,
		PlayerID:        playerID,
	}
}

func TestHandshakeThenInputRoundTrip(t *testing.T) {
	url := startServer(t, nil)
	conn := dial(t, url)

	sendJSON(t, conn, hello("paul", ""))

	var wm protocol.WelcomeMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeWelcome), &wm); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if wm.PlayerID == "" || wm.WorldParams.TickRateHz != 20 {
		t.Fatalf("welcome = %+v", wm)
	}

	var st protocol.StateMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeState), &st); err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Self == nil {
		t.Fatal("state missing self block")
	}

	sendJSON(t, conn, protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             1,
		Movement:        protocol.MovementIntent{Forward: 1},
	})

	// The ack must show up in a subsequent state frame.
	acked := false
	for i := 0; i < 40 && !acked; i++ {
		if err := json.Unmarshal(readType(t, conn, protocol.TypeState), &st); err != nil {
			t.Fatalf("state: %v", err)
		}
		acked = st.LastProcessedInputSeq >= 1
	}
	if !acked {
		t.Fatal("input seq never acknowledged")
	}

	var selfPos *protocol.PlayerState
	for i := range st.Players {
		if st.Players[i].ID == wm.PlayerID {
			selfPos = &st.Players[i]
		}
	}
	if selfPos == nil || selfPos.Position.Z <= 0 {
		t.Fatalf("player did not move forward: %+v", selfPos)
	}
}

func TestFirstFrameMustBeHello(t *testing.T) {
	url := startServer(t, nil)
	conn := dial(t, url)

	sendJSON(t, conn, protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             1,
	})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("connection survived a non-HELLO first frame")
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("close = %v, want policy violation", err)
	}
}

func TestTradeRoutedToWorld(t *testing.T) {
	url := startServer(t, nil)
	conn := dial(t, url)

	sendJSON(t, conn, hello("gurney", ""))
	readType(t, conn, protocol.TypeWelcome)

	sendJSON(t, conn, protocol.TradeMsg{
		Type:            protocol.TypeTrade,
		ProtocolVersion: protocol.Version,
		ReqID:           "t-1",
		Op:              protocol.TradeOpBuy,
		ItemID:          "desert_boots",
	})

	var res protocol.TradeResultMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeTradeResult), &res); err != nil {
		t.Fatalf("trade result: %v", err)
	}
	// Spawn is far from the sietch, so the trade must bounce.
	if res.OK || res.Code != protocol.ErrNotInSafeZone {
		t.Fatalf("trade result = %+v", res)
	}
	if res.ReqID != "t-1" {
		t.Fatalf("req id = %q", res.ReqID)
	}
}

func TestReconnectRestoresStoredRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "players.db")
	seed, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	saved := player.Defaults()
	saved.Spice = 777
	saved.Water = 61
	seed.Save(world.SaveRequest{PlayerID: "veteran-1", Name: "duncan", Resources: saved})
	if err := seed.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	url := startServer(t, st)
	conn := dial(t, url)

	sendJSON(t, conn, hello("", "veteran-1"))

	var wm protocol.WelcomeMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeWelcome), &wm); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if wm.PlayerID != "veteran-1" {
		t.Fatalf("player id = %q, want veteran-1", wm.PlayerID)
	}

	var state protocol.StateMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeState), &state); err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Self == nil || state.Self.Spice != 777 || state.Self.Water != 61 {
		t.Fatalf("restored self = %+v", state.Self)
	}
	for _, p := range state.Players {
		if p.ID == "veteran-1" && p.Name != "duncan" {
			t.Fatalf("restored name = %q", p.Name)
		}
	}
}
