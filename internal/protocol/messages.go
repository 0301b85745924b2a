package protocol

import "arrakis.gg/internal/geo"

// C_HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
	PlayerID        string `json:"player_id,omitempty"` // reconnect with a known identity
}

// MovementIntent is the per-tick axis push, each in {-1,0,1}.
type MovementIntent struct {
	Forward int8 `json:"forward"`
	Right   int8 `json:"right"`
}

// Action types carried by C_INPUT.
const (
	ActionDeployThumper = "deployThumper"
	ActionMount         = "mount"
	ActionDismount      = "dismount"
	ActionRecoverCorpse = "recoverCorpse"
	ActionEquip         = "equip"
	ActionUnequip       = "unequip"
)

// ActionReq is a tagged action variant; Target names the worm, corpse,
// item or slot the action applies to.
type ActionReq struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
}

// WormControl steers a ridden worm.
type WormControl struct {
	Direction   float64 `json:"direction"`
	SpeedIntent float64 `json:"speed_intent"`
}

// C_INPUT (client -> server), one per client tick.
type InputMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Seq             uint32         `json:"seq"`
	Timestamp       int64          `json:"timestamp"`
	Movement        MovementIntent `json:"movement"`
	Rotation        float64        `json:"rotation"`
	Action          *ActionReq     `json:"action,omitempty"`
	WormControl     *WormControl   `json:"worm_control,omitempty"`
}

// Trade operations.
const (
	TradeOpBuy  = "buy"
	TradeOpSell = "sell"
)

// C_TRADE (client -> server)
type TradeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Op              string `json:"op"`
	ItemID          string `json:"item_id"`
}

// SietchRef locates the safe zone for the client HUD.
type SietchRef struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
}

type WorldParams struct {
	TickRateHz  int       `json:"tick_rate_hz"`
	WorldRadius float64   `json:"world_radius"`
	Sietch      SietchRef `json:"sietch"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// MerchantListing is one sietch catalog row with its buy price.
type MerchantListing struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Tier   int    `json:"tier"`
	Price  int    `json:"price"`
}

// S_WELCOME (server -> client), sent once after C_HELLO.
type WelcomeMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	PlayerID        string            `json:"player_id"`
	Seed            int64             `json:"seed"`
	Timestamp       int64             `json:"timestamp"`
	WorldParams     WorldParams       `json:"world_params"`
	ItemCatalog     DigestRef         `json:"item_catalog"`
	Merchant        []MerchantListing `json:"merchant,omitempty"`
}

// PlayerState is the public per-player snapshot slice.
type PlayerState struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Position geo.Vector3 `json:"position"`
	Yaw      float64     `json:"yaw"`
	Activity string      `json:"activity"`
	Thirst   string      `json:"thirst"`
	Riding   string      `json:"riding,omitempty"`
}

// ItemStack mirrors one inventory entry on the wire.
type ItemStack struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Tier     int    `json:"tier"`
	Quantity int    `json:"quantity"`
}

type EquipmentState struct {
	Head string `json:"head,omitempty"`
	Body string `json:"body,omitempty"`
	Feet string `json:"feet,omitempty"`
}

type StatsState struct {
	ObjectivesCompleted int     `json:"objectives_completed"`
	TotalSpiceEarned    int     `json:"total_spice_earned"`
	DistanceTraveled    float64 `json:"distance_traveled"`
	Deaths              int     `json:"deaths"`
	WormsRidden         int     `json:"worms_ridden"`
	OutpostsCaptured    int     `json:"outposts_captured"`
}

// SelfState carries the recipient-only fields of S_STATE.
type SelfState struct {
	Water        float64        `json:"water"`
	Health       float64        `json:"health"`
	Spice        int            `json:"spice"`
	VFXIntensity float64        `json:"vfx_intensity,omitempty"`
	Inventory    []ItemStack    `json:"inventory"`
	Equipment    EquipmentState `json:"equipment"`
	Stats        StatsState     `json:"stats"`
}

type WormState struct {
	ID            string        `json:"id"`
	AIState       string        `json:"ai_state"`
	Heading       float64       `json:"heading"`
	Health        float64       `json:"health"`
	RiderID       string        `json:"rider_id,omitempty"`
	ControlPoints []geo.Vector3 `json:"control_points"`
}

type ThumperState struct {
	ID        string      `json:"id"`
	Position  geo.Vector3 `json:"position"`
	PlacedBy  string      `json:"placed_by"`
	ExpiresAt int64       `json:"expires_at"`
}

type ObjectiveState struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Target    geo.Vector3 `json:"target"`
	Radius    float64     `json:"radius"`
	ExpiresAt int64       `json:"expires_at"`
	Status    string      `json:"status"`
}

type OutpostState struct {
	ID          string      `json:"id"`
	Position    geo.Vector3 `json:"position"`
	Owner       string      `json:"owner,omitempty"`
	CapturingBy string      `json:"capturing_by,omitempty"`
	Progress    float64     `json:"progress,omitempty"`
}

type CorpseState struct {
	ID        string      `json:"id"`
	PlayerID  string      `json:"player_id"`
	Position  geo.Vector3 `json:"position"`
	Spice     int         `json:"spice"`
	ExpiresAt int64       `json:"expires_at"`
}

// S_STATE (server -> client), broadcast every tick. Self and
// LastProcessedInputSeq are per recipient.
type StateMsg struct {
	Type                  string          `json:"type"`
	ProtocolVersion       string          `json:"protocol_version"`
	Tick                  uint64          `json:"tick"`
	Timestamp             int64           `json:"timestamp"`
	LastProcessedInputSeq uint32          `json:"last_processed_input_seq"`
	Players               []PlayerState   `json:"players"`
	Worms                 []WormState     `json:"worms"`
	Thumpers              []ThumperState  `json:"thumpers"`
	Objective             *ObjectiveState `json:"objective,omitempty"`
	Outposts              []OutpostState  `json:"outposts,omitempty"`
	Corpses               []CorpseState   `json:"corpses,omitempty"`
	Self                  *SelfState      `json:"self,omitempty"`
}

// Game event kinds carried by S_EVENT.
const (
	EventObjectiveSpawned   = "objective_spawned"
	EventObjectiveCompleted = "objective_completed"
	EventObjectiveFailed    = "objective_failed"
	EventCorpseExpired      = "corpse_expired"
	EventCorpseRecovered    = "corpse_recovered"
	EventThumperDeployed    = "thumper_deployed"
	EventThumperExpired     = "thumper_expired"
	EventWormMounted        = "worm_mounted"
	EventWormDismounted     = "worm_dismounted"
	EventOutpostCaptured    = "outpost_captured"
	EventActionResult       = "action_result"
)

// GameEvent is a kind-discriminated notification; only the fields relevant
// to the kind are set.
type GameEvent struct {
	Kind        string       `json:"kind"`
	PlayerID    string       `json:"player_id,omitempty"`
	ObjectiveID string       `json:"objective_id,omitempty"`
	CorpseID    string       `json:"corpse_id,omitempty"`
	WormID      string       `json:"worm_id,omitempty"`
	ThumperID   string       `json:"thumper_id,omitempty"`
	OutpostID   string       `json:"outpost_id,omitempty"`
	Spice       int          `json:"spice,omitempty"`
	Position    *geo.Vector3 `json:"position,omitempty"`

	// action_result payload.
	Ref     string `json:"ref,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// S_EVENT (server -> client): the tick's discrete notifications.
type EventMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	Events          []GameEvent `json:"events"`
}

// Combat event kinds carried by S_COMBAT_EVENT.
const (
	CombatDamage  = "damage"
	CombatDeath   = "death"
	CombatRespawn = "respawn"
)

// RespawnState is the fixed payload applied after death.
type RespawnState struct {
	Position geo.Vector3 `json:"position"`
	Water    float64     `json:"water"`
	Health   float64     `json:"health"`
}

// CombatEvent is a kind-discriminated combat notification.
type CombatEvent struct {
	Kind      string        `json:"kind"`
	PlayerID  string        `json:"player_id"`
	Amount    float64       `json:"amount,omitempty"`
	Source    string        `json:"source,omitempty"`
	Position  *geo.Vector3  `json:"position,omitempty"`
	CorpseID  string        `json:"corpse_id,omitempty"`
	SpiceLost int           `json:"spice_lost,omitempty"`
	Respawn   *RespawnState `json:"respawn,omitempty"`
}

// S_COMBAT_EVENT (server -> client).
type CombatEventMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Tick            uint64        `json:"tick"`
	Events          []CombatEvent `json:"events"`
}

// S_TRADE_RESULT (server -> client), answering one C_TRADE.
type TradeResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ItemID          string `json:"item_id,omitempty"`
	Price           int    `json:"price,omitempty"`
	Spice           int    `json:"spice"`
}
