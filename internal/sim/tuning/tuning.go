package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the world-level numeric configuration. Defaults are the shipped
// gameplay contract; tuning.yaml may override them per deployment. Anything
// captured in snapshots must come from here so resumed worlds keep the exact
// numbers they were recorded with.
type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz  int     `yaml:"tick_rate_hz"`
	WorldRadius float64 `yaml:"world_radius"`

	Movement  MovementTuning  `yaml:"movement"`
	Objective ObjectiveTuning `yaml:"objective"`
	Corpse    CorpseTuning    `yaml:"corpse"`
	Sietch    SietchTuning    `yaml:"sietch"`
	Worms     WormTuning      `yaml:"worms"`
	Thumpers  ThumperTuning   `yaml:"thumpers"`
	Outposts  OutpostTuning   `yaml:"outposts"`
	Session   SessionTuning   `yaml:"session"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	StarterSpice int            `yaml:"starter_spice"`
	StarterItems map[string]int `yaml:"starter_items"`
}

type MovementTuning struct {
	BaseSpeedMps float64 `yaml:"base_speed_mps"`
}

type ObjectiveTuning struct {
	Radius         float64 `yaml:"radius"`
	TimeLimitMs    int64   `yaml:"time_limit_ms"`
	RespawnDelayMs int64   `yaml:"respawn_delay_ms"`
	RewardSpice    int     `yaml:"reward_spice"`
	SpawnMinDist   float64 `yaml:"spawn_min_dist"`
	SpawnMaxDist   float64 `yaml:"spawn_max_dist"`
}

type CorpseTuning struct {
	TTLMs            int64   `yaml:"ttl_ms"`
	RecoverRadius    float64 `yaml:"recover_radius"`
	SpicePenaltyRate float64 `yaml:"spice_penalty_rate"`
}

type SietchTuning struct {
	X               float64 `yaml:"x"`
	Z               float64 `yaml:"z"`
	Radius          float64 `yaml:"radius"`
	SellPriceFactor float64 `yaml:"sell_price_factor"`
}

type WormTuning struct {
	Count                int     `yaml:"count"`
	SegmentCount         int     `yaml:"segment_count"`
	SegmentSpacing       float64 `yaml:"segment_spacing"`
	PatrolSpeedMps       float64 `yaml:"patrol_speed_mps"`
	ApproachSpeedMps     float64 `yaml:"approach_speed_mps"`
	RiddenSpeedMps       float64 `yaml:"ridden_speed_mps"`
	TurnRateRadPerSec    float64 `yaml:"turn_rate_rad_per_sec"`
	AttractRadius        float64 `yaml:"attract_radius"`
	ArriveRadius         float64 `yaml:"arrive_radius"`
	MountRadius          float64 `yaml:"mount_radius"`
	Health               float64 `yaml:"health"`
	SafeSpiralDurationMs int64   `yaml:"safe_spiral_duration_ms"`
}

type ThumperTuning struct {
	LifetimeMs int64 `yaml:"lifetime_ms"`
}

type OutpostTuning struct {
	CaptureRadius  float64       `yaml:"capture_radius"`
	CaptureSeconds float64       `yaml:"capture_seconds"`
	Sites          []OutpostSite `yaml:"sites"`
}

type OutpostSite struct {
	ID string  `yaml:"id"`
	X  float64 `yaml:"x"`
	Z  float64 `yaml:"z"`
}

type SessionTuning struct {
	SaveEveryTicks       int `yaml:"save_every_ticks"`
	DisconnectGraceTicks int `yaml:"disconnect_grace_ticks"`
}

// Defaults returns the shipped contract values. Tests pin these numbers; a
// deployment override changes behavior, not correctness.
func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	return t, nil
}

func (t *Tuning) applyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = 30
	}
	if t.WorldRadius <= 0 {
		t.WorldRadius = 2000
	}
	if t.Movement.BaseSpeedMps <= 0 {
		t.Movement.BaseSpeedMps = 8
	}
	if t.Objective.Radius <= 0 {
		t.Objective.Radius = 20
	}
	if t.Objective.TimeLimitMs <= 0 {
		t.Objective.TimeLimitMs = 180000
	}
	if t.Objective.RespawnDelayMs <= 0 {
		t.Objective.RespawnDelayMs = 5000
	}
	if t.Objective.RewardSpice <= 0 {
		t.Objective.RewardSpice = 100
	}
	if t.Objective.SpawnMinDist <= 0 {
		t.Objective.SpawnMinDist = 200
	}
	if t.Objective.SpawnMaxDist <= 0 {
		t.Objective.SpawnMaxDist = 500
	}
	if t.Corpse.TTLMs <= 0 {
		t.Corpse.TTLMs = 120000
	}
	if t.Corpse.RecoverRadius <= 0 {
		t.Corpse.RecoverRadius = 5
	}
	if t.Corpse.SpicePenaltyRate <= 0 {
		t.Corpse.SpicePenaltyRate = 0.20
	}
	if t.Sietch.Radius <= 0 {
		t.Sietch.Radius = 50
	}
	if t.Sietch.SellPriceFactor <= 0 {
		t.Sietch.SellPriceFactor = 0.5
	}
	if t.Sietch.X == 0 && t.Sietch.Z == 0 {
		t.Sietch.X = 150
		t.Sietch.Z = 150
	}
	if t.Worms.Count <= 0 {
		t.Worms.Count = 2
	}
	if t.Worms.SegmentCount <= 0 {
		t.Worms.SegmentCount = 12
	}
	if t.Worms.SegmentSpacing <= 0 {
		t.Worms.SegmentSpacing = 4
	}
	if t.Worms.PatrolSpeedMps <= 0 {
		t.Worms.PatrolSpeedMps = 6
	}
	if t.Worms.ApproachSpeedMps <= 0 {
		t.Worms.ApproachSpeedMps = 14
	}
	if t.Worms.RiddenSpeedMps <= 0 {
		t.Worms.RiddenSpeedMps = 18
	}
	if t.Worms.TurnRateRadPerSec <= 0 {
		t.Worms.TurnRateRadPerSec = 1.2
	}
	if t.Worms.AttractRadius <= 0 {
		t.Worms.AttractRadius = 400
	}
	if t.Worms.ArriveRadius <= 0 {
		t.Worms.ArriveRadius = 10
	}
	if t.Worms.MountRadius <= 0 {
		t.Worms.MountRadius = 6
	}
	if t.Worms.Health <= 0 {
		t.Worms.Health = 500
	}
	if t.Worms.SafeSpiralDurationMs <= 0 {
		t.Worms.SafeSpiralDurationMs = 4000
	}
	if t.Thumpers.LifetimeMs <= 0 {
		t.Thumpers.LifetimeMs = 60000
	}
	if t.Outposts.CaptureRadius <= 0 {
		t.Outposts.CaptureRadius = 30
	}
	if t.Outposts.CaptureSeconds <= 0 {
		t.Outposts.CaptureSeconds = 10
	}
	if len(t.Outposts.Sites) == 0 {
		t.Outposts.Sites = []OutpostSite{
			{ID: "OP1", X: 400, Z: 0},
			{ID: "OP2", X: -300, Z: 350},
			{ID: "OP3", X: 0, Z: -450},
		}
	}
	if t.Session.SaveEveryTicks <= 0 {
		t.Session.SaveEveryTicks = 600
	}
	if t.Session.DisconnectGraceTicks <= 0 {
		t.Session.DisconnectGraceTicks = 900
	}
	if t.SnapshotEveryTicks <= 0 {
		t.SnapshotEveryTicks = 9000
	}
	if t.StarterSpice < 0 {
		t.StarterSpice = 0
	}
	// nil means unset; an explicit empty map in tuning.yaml means no starter kit.
	if t.StarterItems == nil {
		t.StarterItems = map[string]int{"thumper": 2}
	}
}
