package objective

import (
	"math"
	"math/rand"

	"arrakis.gg/internal/geo"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Objective is the current world goal. Exactly one instance exists at a
// time; spawning a new one discards the previous regardless of its status.
type Objective struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Target      geo.Vector3 `json:"target"`
	Radius      float64     `json:"radius"`
	TimeLimitMs int64       `json:"time_limit_ms"`
	ExpiresAt   int64       `json:"expires_at"`
	Status      Status      `json:"status"`
	FailedAt    int64       `json:"failed_at,omitempty"`
}

type Config struct {
	Type           string
	Radius         float64
	TimeLimitMs    int64
	RespawnDelayMs int64
	SpawnMinDist   float64
	SpawnMaxDist   float64
}

type EventKind int

const (
	EventFailed EventKind = iota
	EventRespawned
)

// Event reports a lifecycle transition produced by Update.
type Event struct {
	Kind      EventKind
	Objective Objective
}

// Manager owns the single objective slot. It is driven only by the tick
// loop; ids and randomness are injected so replays stay deterministic.
type Manager struct {
	cfg     Config
	newID   func() string
	rng     *rand.Rand
	current *Objective
}

func NewManager(cfg Config, newID func() string, rng *rand.Rand) *Manager {
	return &Manager{cfg: cfg, newID: newID, rng: rng}
}

// Current returns the live objective, nil if none has been spawned yet.
func (m *Manager) Current() *Objective { return m.current }

// SetCurrent installs an objective restored from a snapshot.
func (m *Manager) SetCurrent(o *Objective) { m.current = o }

// Spawn replaces the current objective with a fresh ACTIVE one at target.
func (m *Manager) Spawn(target geo.Vector3, nowMs int64) *Objective {
	o := &Objective{
		ID:          m.newID(),
		Type:        m.cfg.Type,
		Target:      target,
		Radius:      m.cfg.Radius,
		TimeLimitMs: m.cfg.TimeLimitMs,
		ExpiresAt:   nowMs + m.cfg.TimeLimitMs,
		Status:      StatusActive,
	}
	m.current = o
	return o
}

// SpawnRandom picks a uniform angle and a distance uniform in
// [SpawnMinDist, SpawnMaxDist] from the origin, y pinned to 0.
func (m *Manager) SpawnRandom(nowMs int64) *Objective {
	angle := m.rng.Float64() * 2 * math.Pi
	dist := m.cfg.SpawnMinDist + m.rng.Float64()*(m.cfg.SpawnMaxDist-m.cfg.SpawnMinDist)
	target := geo.Vector3{
		X: math.Cos(angle) * dist,
		Z: math.Sin(angle) * dist,
	}
	return m.Spawn(target, nowMs)
}

// CheckCompletion transitions an ACTIVE objective to COMPLETED when pos is
// horizontally within the radius, boundary inclusive. Only the transitioning
// call returns true. Non-finite positions never complete.
func (m *Manager) CheckCompletion(pos geo.Vector3) bool {
	o := m.current
	if o == nil || o.Status != StatusActive {
		return false
	}
	if !pos.IsFinite() {
		return false
	}
	if !geo.WithinXZ(pos, o.Target, o.Radius) {
		return false
	}
	o.Status = StatusCompleted
	return true
}

// Update drives timeout and delayed replacement. An ACTIVE objective past
// its deadline fails in place; RespawnDelayMs after the recorded failure a
// fresh random objective takes the slot. Safe to call repeatedly within the
// same instant, and a no-op with no objective.
func (m *Manager) Update(nowMs int64) []Event {
	o := m.current
	if o == nil {
		return nil
	}
	switch o.Status {
	case StatusActive:
		if nowMs >= o.ExpiresAt {
			o.Status = StatusFailed
			o.FailedAt = nowMs
			return []Event{{Kind: EventFailed, Objective: *o}}
		}
	case StatusFailed:
		if nowMs >= o.FailedAt+m.cfg.RespawnDelayMs {
			fresh := m.SpawnRandom(nowMs)
			return []Event{{Kind: EventRespawned, Objective: *fresh}}
		}
	}
	return nil
}
