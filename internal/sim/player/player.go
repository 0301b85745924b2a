package player

import "arrakis.gg/internal/sim/economy"

// Stats are lifetime counters, persisted across sessions and deaths.
type Stats struct {
	ObjectivesCompleted int     `json:"objectives_completed"`
	TotalSpiceEarned    int     `json:"total_spice_earned"`
	DistanceTraveled    float64 `json:"distance_traveled"`
	Deaths              int     `json:"deaths"`
	WormsRidden         int     `json:"worms_ridden"`
	OutpostsCaptured    int     `json:"outposts_captured"`
}

// Resources is the authoritative per-player record. It is mutated only by
// the tick loop and round-trips through the store between sessions.
type Resources struct {
	Water     float64           `json:"water"`
	Health    float64           `json:"health"`
	Spice     int               `json:"spice"`
	Equipment economy.Equipment `json:"equipment"`
	Inventory economy.Inventory `json:"inventory"`
	Stats     Stats             `json:"stats"`
}

// Defaults is the record handed to a player the store has never seen.
func Defaults() Resources {
	return Resources{Water: 100, Health: 100}
}

// Clone deep-copies the record.
func (r *Resources) Clone() Resources {
	out := *r
	out.Inventory = r.Inventory.Clone()
	return out
}

// Clamp forces loaded values back into their legal ranges. Records written
// by older builds may carry out-of-range numbers.
func (r *Resources) Clamp() {
	if r.Water < 0 {
		r.Water = 0
	}
	if r.Water > 100 {
		r.Water = 100
	}
	if r.Health < 0 {
		r.Health = 0
	}
	if r.Health > 100 {
		r.Health = 100
	}
	if r.Spice < 0 {
		r.Spice = 0
	}
}
