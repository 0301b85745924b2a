// Package ws serves the game socket: one HELLO handshake, then C_INPUT
// and C_TRADE frames in, state and event frames out. The transport owns
// no game state; it converts frames to world envelopes and back.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arrakis.gg/internal/persistence/store"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/world"
)

const (
	helloDeadline = 5 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 5 * time.Second

	// outQueue bounds per-session frames; the world drops to the latest
	// state when a session falls behind.
	outQueue = 16
)

type Server struct {
	world *world.World
	store *store.PlayerStore // nil disables record resumption
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, st *store.PlayerStore, logger *log.Logger) *Server {
	return &Server{
		world: w,
		store: st,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer pump.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Malformed frames are dropped, not fatal.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeInput:
				var in protocol.InputMsg
				if err := json.Unmarshal(msg, &in); err != nil || in.ProtocolVersion != protocol.Version {
					continue
				}
				s.world.Inbox() <- world.InputEnvelope{PlayerID: playerID, Msg: in}
			case protocol.TypeTrade:
				var tr protocol.TradeMsg
				if err := json.Unmarshal(msg, &tr); err != nil || tr.ProtocolVersion != protocol.Version {
					continue
				}
				s.world.Trade() <- world.TradeEnvelope{PlayerID: playerID, Msg: tr}
			}
		}

		s.world.Leave() <- playerID
	}
}

// handshake expects C_HELLO as the first frame, resolves the identity
// against the store for a returning player_id, and answers S_WELCOME.
func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(helloDeadline))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		s.closePolicy(conn, "expected HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.closePolicy(conn, "bad protocol_version")
		return "", nil
	}

	req := world.JoinRequest{
		Name:     hello.PlayerName,
		PlayerID: hello.PlayerID,
	}
	if hello.PlayerID != "" && s.store != nil {
		rec, ok, err := s.store.Load(hello.PlayerID)
		if err != nil {
			// Store trouble must not lock players out; they rejoin fresh.
			s.log.Printf("store load %s: %v", hello.PlayerID, err)
		} else if ok {
			req.Resources = &rec.Resources
			if req.Name == "" {
				req.Name = rec.Name
			}
		}
	}

	out = make(chan []byte, outQueue)
	req.Out = out
	req.Resp = make(chan world.JoinResponse, 1)
	s.world.Join() <- req
	resp := <-req.Resp

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", nil
	}
	return resp.Welcome.PlayerID, out
}

func (s *Server) closePolicy(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, b)
}
