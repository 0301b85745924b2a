package corpse

import (
	"math"
	"sort"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/player"
)

// Marker is a time-limited world object holding a dead player's penalized
// spice, recoverable only by its owner.
type Marker struct {
	ID          string      `json:"id"`
	PlayerID    string      `json:"player_id"`
	Position    geo.Vector3 `json:"position"`
	SpiceAmount int         `json:"spice_amount"`
	CreatedAt   int64       `json:"created_at"`
	ExpiresAt   int64       `json:"expires_at"`
}

// Penalty is the spice dropped on death: floor(spice x rate), never
// negative, never more than carried.
func Penalty(spice int, rate float64) int {
	if spice <= 0 {
		return 0
	}
	p := int(math.Floor(float64(spice) * rate))
	if p < 0 {
		p = 0
	}
	if p > spice {
		p = spice
	}
	return p
}

// Respawn is the fixed payload applied to a player after death.
type Respawn struct {
	Position geo.Vector3 `json:"position"`
	Water    float64     `json:"water"`
	Health   float64     `json:"health"`
}

func RespawnData() Respawn {
	return Respawn{Position: geo.Origin, Water: 50, Health: 100}
}

// DeathOutcome is everything a single death produces.
type DeathOutcome struct {
	Corpse         *Marker
	SpiceLost      int
	SpiceRemaining int
	Respawn        Respawn
}

// Config pins the store's timing and penalty knobs.
type Config struct {
	TTLMs         int64
	RecoverRadius float64
	PenaltyRate   float64
}

// Store owns every live corpse, keyed by id. Expiry is lazy: any lookup at
// or past the deadline treats the corpse as gone, and List prunes as it
// walks. Each corpse expires independently.
type Store struct {
	cfg     Config
	newID   func() string
	markers map[string]*Marker
}

func NewStore(cfg Config, newID func() string) *Store {
	return &Store{cfg: cfg, newID: newID, markers: map[string]*Marker{}}
}

// Create drops a fresh corpse expiring exactly TTLMs after nowMs.
func (s *Store) Create(playerID string, pos geo.Vector3, spice int, nowMs int64) *Marker {
	m := &Marker{
		ID:          s.newID(),
		PlayerID:    playerID,
		Position:    pos,
		SpiceAmount: spice,
		CreatedAt:   nowMs,
		ExpiresAt:   nowMs + s.cfg.TTLMs,
	}
	s.markers[m.ID] = m
	return m
}

// ProcessDeath atomically computes the penalty, drops the corpse, bumps the
// death counter and returns the fixed respawn data. Equipment is untouched.
func (s *Store) ProcessDeath(playerID string, pos geo.Vector3, spice int, stats *player.Stats, nowMs int64) DeathOutcome {
	penalty := Penalty(spice, s.cfg.PenaltyRate)
	marker := s.Create(playerID, pos, penalty, nowMs)
	stats.Deaths++
	return DeathOutcome{
		Corpse:         marker,
		SpiceLost:      penalty,
		SpiceRemaining: spice - penalty,
		Respawn:        RespawnData(),
	}
}

func (s *Store) expired(m *Marker, nowMs int64) bool { return nowMs >= m.ExpiresAt }

// Get returns a live corpse by id, pruning it if the deadline has passed.
func (s *Store) Get(id string, nowMs int64) *Marker {
	m, ok := s.markers[id]
	if !ok {
		return nil
	}
	if s.expired(m, nowMs) {
		delete(s.markers, id)
		return nil
	}
	return m
}

// Recover hands the corpse's spice back to its owner. Failure order:
// expired or absent, then wrong owner, then out of range. The horizontal
// range check is boundary inclusive.
func (s *Store) Recover(playerID, corpseID string, pos geo.Vector3, nowMs int64) (int, error) {
	m := s.Get(corpseID, nowMs)
	if m == nil {
		return 0, protocol.Errf(protocol.ErrNotFound, "corpse %s not found", corpseID)
	}
	if m.PlayerID != playerID {
		return 0, protocol.Errf(protocol.ErrNotYourCorpse, "corpse %s is not yours", corpseID)
	}
	if !geo.WithinXZ(pos, m.Position, s.cfg.RecoverRadius) {
		return 0, protocol.Errf(protocol.ErrTooFar, "corpse %s is %.1fm away", corpseID, geo.DistXZ(pos, m.Position))
	}
	delete(s.markers, corpseID)
	return m.SpiceAmount, nil
}

// List returns the live corpses sorted by creation time then id, pruning
// expired ones on the way.
func (s *Store) List(nowMs int64) []*Marker {
	out := make([]*Marker, 0, len(s.markers))
	for id, m := range s.markers {
		if s.expired(m, nowMs) {
			delete(s.markers, id)
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListByPlayer returns the live corpses owned by one player.
func (s *Store) ListByPlayer(playerID string, nowMs int64) []*Marker {
	all := s.List(nowMs)
	out := all[:0]
	for _, m := range all {
		if m.PlayerID == playerID {
			out = append(out, m)
		}
	}
	return out
}

// Sweep prunes expired corpses and returns them for event emission.
func (s *Store) Sweep(nowMs int64) []*Marker {
	var gone []*Marker
	for id, m := range s.markers {
		if s.expired(m, nowMs) {
			delete(s.markers, id)
			gone = append(gone, m)
		}
	}
	sort.Slice(gone, func(i, j int) bool { return gone[i].ID < gone[j].ID })
	return gone
}

// Export snapshots every marker, expired or not, sorted by id.
func (s *Store) Export() []Marker {
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Import replaces the store contents with snapshot markers.
func (s *Store) Import(markers []Marker) {
	s.markers = make(map[string]*Marker, len(markers))
	for i := range markers {
		m := markers[i]
		s.markers[m.ID] = &m
	}
}
