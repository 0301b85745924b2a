package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/sim/tuning"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the complete authoritative state of one world at a tick
// boundary. Importing it and replaying the tick log from Header.Tick must
// reproduce the original digests exactly, so everything the digest covers
// is captured here, including the simulation RNG state and the tuning the
// world was running with.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64         `json:"seed"`
	RNGState uint64        `json:"rng_state"`
	Tuning   tuning.Tuning `json:"tuning"`

	Players  []PlayerV1  `json:"players"`
	Worms    []WormV1    `json:"worms"`
	Thumpers []ThumperV1 `json:"thumpers"`
	Corpses  []CorpseV1  `json:"corpses"`
	Outposts []OutpostV1 `json:"outposts"`

	Objective            *ObjectiveV1 `json:"objective,omitempty"`
	ObjectiveRespawnAtMs int64        `json:"objective_respawn_at_ms,omitempty"`
}

type PlayerV1 struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Pos  geo.Vector3 `json:"pos"`
	Yaw  float64     `json:"yaw"`

	Water  float64 `json:"water"`
	Health float64 `json:"health"`
	Spice  int     `json:"spice"`

	Equipment EquipmentV1   `json:"equipment"`
	Inventory []ItemStackV1 `json:"inventory,omitempty"`
	Stats     StatsV1       `json:"stats"`

	RidingWormID string `json:"riding_worm_id,omitempty"`
	LastInputSeq uint32 `json:"last_input_seq,omitempty"`

	Connected          bool   `json:"connected"`
	DisconnectedAtTick uint64 `json:"disconnected_at_tick,omitempty"`
}

type EquipmentV1 struct {
	Head string `json:"head,omitempty"`
	Body string `json:"body,omitempty"`
	Feet string `json:"feet,omitempty"`
}

type ItemStackV1 struct {
	ItemID   string `json:"item_id"`
	Tier     int    `json:"tier"`
	Quantity int    `json:"quantity"`
}

type StatsV1 struct {
	ObjectivesCompleted int     `json:"objectives_completed"`
	TotalSpiceEarned    int     `json:"total_spice_earned"`
	DistanceTraveled    float64 `json:"distance_traveled"`
	Deaths              int     `json:"deaths"`
	WormsRidden         int     `json:"worms_ridden"`
	OutpostsCaptured    int     `json:"outposts_captured"`
}

type WormV1 struct {
	ID      string  `json:"id"`
	State   string  `json:"state"`
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`
	Health  float64 `json:"health"`

	RiderID          string  `json:"rider_id,omitempty"`
	TargetThumperID  string  `json:"target_thumper_id,omitempty"`
	ControlDirection float64 `json:"control_direction,omitempty"`
	ControlSpeed     float64 `json:"control_speed,omitempty"`
	SpiralUntilMs    int64   `json:"spiral_until_ms,omitempty"`
	WanderAtMs       int64   `json:"wander_at_ms,omitempty"`

	Points []geo.Vector3 `json:"points"`
}

type ThumperV1 struct {
	ID        string      `json:"id"`
	Pos       geo.Vector3 `json:"pos"`
	PlacedBy  string      `json:"placed_by"`
	CreatedAt int64       `json:"created_at"`
	ExpiresAt int64       `json:"expires_at"`
}

type CorpseV1 struct {
	ID        string      `json:"id"`
	PlayerID  string      `json:"player_id"`
	Pos       geo.Vector3 `json:"pos"`
	Spice     int         `json:"spice"`
	CreatedAt int64       `json:"created_at"`
	ExpiresAt int64       `json:"expires_at"`
}

type OutpostV1 struct {
	ID          string      `json:"id"`
	Pos         geo.Vector3 `json:"pos"`
	Owner       string      `json:"owner,omitempty"`
	CapturingBy string      `json:"capturing_by,omitempty"`
	ProgressSec float64     `json:"progress_sec,omitempty"`
}

type ObjectiveV1 struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Target      geo.Vector3 `json:"target"`
	Radius      float64     `json:"radius"`
	TimeLimitMs int64       `json:"time_limit_ms"`
	ExpiresAt   int64       `json:"expires_at"`
	Status      string      `json:"status"`
	FailedAt    int64       `json:"failed_at,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
