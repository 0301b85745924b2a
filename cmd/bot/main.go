package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"arrakis.gg/internal/client"
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/survival"
)

// The server never advertises effective speed, so the predictor starts from
// the shipped base rate; any misestimate washes out through reconciliation.
const baseSpeedMps = 8.0

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "player name")
		playerID = flag.String("player_id", "", "identity to resume (optional)")
		retries  = flag.Int("retries", 5, "reconnect attempts before giving up")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	id := *playerID
	for attempt := 0; ; attempt++ {
		got, err := runSession(*url, *name, id, stop, logger)
		if got != "" {
			id = got
		}
		if err == nil {
			return
		}
		if attempt >= *retries {
			logger.Fatalf("giving up after %d sessions: %v", attempt+1, err)
		}
		logger.Printf("session ended: %v; reconnecting as player_id=%s", err, id)
		select {
		case <-stop:
			return
		case <-time.After(2 * time.Second):
		}
	}
}

// runSession drives one connection until interrupt or transport error and
// returns the identity the server assigned so the next dial can resume it.
func runSession(url, name, playerID string, stop <-chan os.Signal, logger *log.Logger) (string, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      name,
		PlayerID:        playerID,
	}
	if err := conn.WriteJSON(hello); err != nil {
		return "", fmt.Errorf("send HELLO: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("await WELCOME: %w", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil {
		return "", fmt.Errorf("decode WELCOME: %w", err)
	}
	if welcome.Type != protocol.TypeWelcome {
		return "", fmt.Errorf("expected WELCOME, got %s", welcome.Type)
	}
	logger.Printf("WELCOME player_id=%s tick_rate=%d seed=%d", welcome.PlayerID, welcome.WorldParams.TickRateHz, welcome.Seed)

	pred := client.NewPredictor(client.Config{
		TickRateHz:  welcome.WorldParams.TickRateHz,
		SpeedMps:    baseSpeedMps,
		WorldRadius: welcome.WorldParams.WorldRadius,
	})

	states := make(chan protocol.StateMsg, 1)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeState {
				continue
			}
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			// Latest state wins; a lagging consumer skips frames.
			select {
			case <-states:
			default:
			}
			states <- st
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(welcome.WorldParams.TickRateHz))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var target geo.Vector3
	synced := false
	var lastLog time.Time

	for {
		select {
		case <-stop:
			return welcome.PlayerID, nil

		case err := <-readErr:
			return welcome.PlayerID, err

		case st := <-states:
			self := findSelf(st.Players, welcome.PlayerID)
			if self == nil {
				continue
			}
			if !synced {
				pred.Reset(self.Position, self.Yaw)
				target = self.Position
				synced = true
			} else {
				pred.Reconcile(self.Position, st.LastProcessedInputSeq)
			}
			if st.Self != nil {
				eff := survival.EffectOf(survival.Thirst(st.Self.Water))
				pred.SetSpeed(baseSpeedMps * eff.SpeedMultiplier)
			}
			// Chase the active objective; otherwise keep wandering.
			if st.Objective != nil && st.Objective.Status == "ACTIVE" {
				target = st.Objective.Target
			}
			if time.Since(lastLog) > 5*time.Second {
				lastLog = time.Now()
				water := -1.0
				if st.Self != nil {
					water = st.Self.Water
				}
				drift := geo.Dist(pred.Position(), self.Position)
				logger.Printf("tick=%d pos=(%.1f,%.1f) drift=%.2f water=%.1f pending=%d",
					st.Tick, self.Position.X, self.Position.Z, drift, water, pred.Pending())
			}

		case <-ticker.C:
			if !synced {
				continue
			}
			pos := pred.Position()
			if geo.DistXZ(pos, target) < 5 {
				target = geo.Vector3{X: rng.Float64()*1200 - 600, Z: rng.Float64()*1200 - 600}
			}
			yaw := math.Atan2(target.X-pos.X, target.Z-pos.Z)
			in := pred.Predict(protocol.MovementIntent{Forward: 1}, yaw, time.Now().UnixMilli())
			if err := conn.WriteJSON(in); err != nil {
				return welcome.PlayerID, fmt.Errorf("send input: %w", err)
			}
		}
	}
}

func findSelf(players []protocol.PlayerState, id string) *protocol.PlayerState {
	for i := range players {
		if players[i].ID == id {
			return &players[i]
		}
	}
	return nil
}
