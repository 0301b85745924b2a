package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Slot is an equipment slot. A player carries at most one item per slot.
type Slot string

const (
	SlotHead Slot = "head"
	SlotBody Slot = "body"
	SlotFeet Slot = "feet"
)

func ValidSlot(s Slot) bool {
	switch s {
	case SlotHead, SlotBody, SlotFeet:
		return true
	}
	return false
}

// Item kinds. Equipment occupies a slot; deployables are consumed by world
// actions; resources only stack.
const (
	KindEquipment  = "equipment"
	KindDeployable = "deployable"
	KindResource   = "resource"
)

// StatBlock carries the optional additive bonuses an equipped item grants.
// Absent stats are zero and contribute nothing to aggregation.
type StatBlock struct {
	WaterReduction float64 `json:"water_reduction,omitempty"`
	SpeedBoost     float64 `json:"speed_boost,omitempty"`
	HealthBoost    float64 `json:"health_boost,omitempty"`
}

func (s StatBlock) Add(o StatBlock) StatBlock {
	return StatBlock{
		WaterReduction: s.WaterReduction + o.WaterReduction,
		SpeedBoost:     s.SpeedBoost + o.SpeedBoost,
		HealthBoost:    s.HealthBoost + o.HealthBoost,
	}
}

// ItemDef is one immutable catalog entry, keyed by its stable ID.
// Price is the merchant buy price; zero means the sietch does not stock it.
type ItemDef struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Kind  string    `json:"kind"`
	Slot  Slot      `json:"slot,omitempty"`
	Tier  int       `json:"tier"`
	Stats StatBlock `json:"stats,omitempty"`
	Price int       `json:"price,omitempty"`
}

func (d ItemDef) Equippable() bool { return d.Kind == KindEquipment && ValidSlot(d.Slot) }

// Catalog is the static item definition set, loaded once at startup and never
// mutated afterwards.
type Catalog struct {
	Defs   map[string]ItemDef
	IDs    []string // sorted, for deterministic iteration
	Digest string   // sha256 of the raw items.json bytes
}

// Load reads items.json from the config directory.
func Load(configDir string) (*Catalog, error) {
	path := filepath.Join(configDir, "items.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("items.json: %w", err)
	}

	c := &Catalog{Defs: make(map[string]ItemDef, len(defs))}
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("items.json: entry with empty id")
		}
		if _, dup := c.Defs[def.ID]; dup {
			return nil, fmt.Errorf("items.json: duplicate id %q", def.ID)
		}
		if def.Kind == KindEquipment && !ValidSlot(def.Slot) {
			return nil, fmt.Errorf("items.json: equipment %q has invalid slot %q", def.ID, def.Slot)
		}
		if def.Tier < 0 || def.Price < 0 {
			return nil, fmt.Errorf("items.json: %q has negative tier or price", def.ID)
		}
		c.Defs[def.ID] = def
		c.IDs = append(c.IDs, def.ID)
	}
	sort.Strings(c.IDs)

	sum := sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])
	return c, nil
}

// Lookup returns the definition for an item id, reporting whether it exists.
func (c *Catalog) Lookup(id string) (ItemDef, bool) {
	def, ok := c.Defs[id]
	return def, ok
}

// Priced returns the catalog entries the merchant stocks, sorted by id.
func (c *Catalog) Priced() []ItemDef {
	out := make([]ItemDef, 0, len(c.IDs))
	for _, id := range c.IDs {
		if def := c.Defs[id]; def.Price > 0 {
			out = append(out, def)
		}
	}
	return out
}
