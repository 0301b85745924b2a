package world

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"arrakis.gg/internal/persistence/snapshot"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/corpse"
	"arrakis.gg/internal/sim/objective"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/trading"
	"arrakis.gg/internal/sim/tuning"
)

type Config struct {
	ID     string
	Seed   int64
	Tuning tuning.Tuning
}

// JoinRequest attaches one session. PlayerID is empty for a first-time
// hello; Resources carries the store record for a returning identity and
// is ignored when the identity is still live in memory.
type JoinRequest struct {
	Name      string
	PlayerID  string
	Resources *player.Resources
	Out       chan []byte
	Resp      chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type InputEnvelope struct {
	PlayerID string
	Msg      protocol.InputMsg
}

type TradeEnvelope struct {
	PlayerID string
	Msg      protocol.TradeMsg
}

// RecordedJoin preserves the join exactly as requested so a replay makes
// the same id draws. AssignedID is informational; the digest is the proof.
type RecordedJoin struct {
	PlayerID   string            `json:"player_id,omitempty"`
	AssignedID string            `json:"assigned_id"`
	Name       string            `json:"name"`
	Resources  *player.Resources `json:"resources,omitempty"`
}

type RecordedInput struct {
	PlayerID string            `json:"player_id"`
	Msg      protocol.InputMsg `json:"msg"`
}

type RecordedTrade struct {
	PlayerID string            `json:"player_id"`
	Msg      protocol.TradeMsg `json:"msg"`
}

type TickLogEntry struct {
	Tick   uint64          `json:"tick"`
	Joins  []RecordedJoin  `json:"joins,omitempty"`
	Leaves []string        `json:"leaves,omitempty"`
	Inputs []RecordedInput `json:"inputs,omitempty"`
	Trades []RecordedTrade `json:"trades,omitempty"`
	Digest string          `json:"digest"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// SaveRequest is one player record bound for the durable store. Emitted
// on leave, on prune and on the periodic save cadence.
type SaveRequest struct {
	PlayerID  string
	Name      string
	Resources player.Resources
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg Config
	tun tuning.Tuning
	cat *catalog.Catalog

	tick atomic.Uint64

	src *randStream
	rng *rand.Rand

	players map[string]*Player
	clients map[string]*clientState

	worms    map[string]*Worm
	thumpers map[string]*Thumper
	outposts []*Outpost

	objectives     *objective.Manager
	objRespawnAtMs int64
	corpses        *corpse.Store
	sietch         *trading.Post

	inbox chan InputEnvelope
	trade chan TradeEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional sinks (may be nil). Writing happens off the loop goroutine.
	snapshotSink chan<- snapshot.SnapshotV1
	saveSink     chan<- SaveRequest

	// Per-tick broadcast buffers, reset at the top of step.
	events []protocol.GameEvent
	combat []protocol.CombatEvent

	tradeSeen map[tradeKey]tradeSeenEntry
}

func New(cfg Config, cat *catalog.Catalog) (*World, error) {
	if cat == nil {
		return nil, fmt.Errorf("world %q: nil item catalog", cfg.ID)
	}
	if cfg.Tuning.TickRateHz <= 0 {
		cfg.Tuning = tuning.Defaults()
	}
	tun := cfg.Tuning

	w := &World{
		cfg:       cfg,
		tun:       tun,
		cat:       cat,
		players:   map[string]*Player{},
		clients:   map[string]*clientState{},
		worms:     map[string]*Worm{},
		thumpers:  map[string]*Thumper{},
		inbox:     make(chan InputEnvelope, 1024),
		trade:     make(chan TradeEnvelope, 256),
		join:      make(chan JoinRequest, 64),
		leave:     make(chan string, 64),
		stop:      make(chan struct{}),
		tradeSeen: map[tradeKey]tradeSeenEntry{},
	}
	w.src = newRandStream(cfg.Seed)
	w.rng = rand.New(w.src)
	w.objectives = objective.NewManager(objective.Config{
		Type:           "spice_blow",
		Radius:         tun.Objective.Radius,
		TimeLimitMs:    tun.Objective.TimeLimitMs,
		RespawnDelayMs: tun.Objective.RespawnDelayMs,
		SpawnMinDist:   tun.Objective.SpawnMinDist,
		SpawnMaxDist:   tun.Objective.SpawnMaxDist,
	}, w.newID, w.rng)
	w.corpses = corpse.NewStore(corpse.Config{
		TTLMs:         tun.Corpse.TTLMs,
		RecoverRadius: tun.Corpse.RecoverRadius,
		PenaltyRate:   tun.Corpse.SpicePenaltyRate,
	}, w.newID)
	w.sietch = trading.New(trading.Config{
		Center:          sietchCenter(tun),
		Radius:          tun.Sietch.Radius,
		SellPriceFactor: tun.Sietch.SellPriceFactor,
	}, cat)
	w.spawnOutposts()
	w.spawnWorms()
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetSaveSink(ch chan<- SaveRequest)             { w.saveSink = ch }

func (w *World) Inbox() chan<- InputEnvelope { return w.inbox }
func (w *World) Trade() chan<- TradeEnvelope { return w.trade }
func (w *World) Join() chan<- JoinRequest    { return w.join }
func (w *World) Leave() chan<- string        { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// nowMs is the simulation clock: tick count converted at the configured
// rate. It never reads the wall clock, so replays see identical time.
func (w *World) nowMs(tick uint64) int64 {
	return int64(tick) * 1000 / int64(w.tun.TickRateHz)
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingInputs []InputEnvelope
	var pendingTrades []TradeEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingInputs = append(pendingInputs, env)
		case env := <-w.trade:
			pendingTrades = append(pendingTrades, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingInputs, pendingTrades)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingInputs = pendingInputs[:0]
			pendingTrades = pendingTrades[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server loop. It is primarily intended for deterministic
// replays/tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, inputs []InputEnvelope, trades []TradeEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.step(joins, leaves, inputs, trades)
	return tick, w.stateDigest(tick)
}

func (w *World) sortedPlayers() []*Player {
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.players[id])
	}
	return out
}

func (w *World) sortedWormIDs() []string {
	ids := make([]string, 0, len(w.worms))
	for id := range w.worms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
