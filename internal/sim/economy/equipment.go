package economy

import (
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
)

// Equipment holds at most one catalog item id per slot. Empty string means
// the slot is free.
type Equipment struct {
	Head string `json:"head,omitempty"`
	Body string `json:"body,omitempty"`
	Feet string `json:"feet,omitempty"`
}

// Get returns the item id occupying the slot, empty if free.
func (e *Equipment) Get(slot catalog.Slot) string {
	switch slot {
	case catalog.SlotHead:
		return e.Head
	case catalog.SlotBody:
		return e.Body
	case catalog.SlotFeet:
		return e.Feet
	}
	return ""
}

func (e *Equipment) set(slot catalog.Slot, id string) {
	switch slot {
	case catalog.SlotHead:
		e.Head = id
	case catalog.SlotBody:
		e.Body = id
	case catalog.SlotFeet:
		e.Feet = id
	}
}

// Occupied returns the equipped item ids in fixed head, body, feet order.
func (e *Equipment) Occupied() []string {
	out := make([]string, 0, 3)
	for _, id := range []string{e.Head, e.Body, e.Feet} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Validate resolves an item id against the catalog, failing with
// E_UNKNOWN_ITEM when absent.
func Validate(cat *catalog.Catalog, itemID string) (catalog.ItemDef, error) {
	def, ok := cat.Lookup(itemID)
	if !ok {
		return catalog.ItemDef{}, protocol.Errf(protocol.ErrUnknownItem, "item %q not in catalog", itemID)
	}
	return def, nil
}

// Equip moves one itemID from the inventory into its catalog slot. An item
// already occupying the slot is pushed back into the inventory. Nothing is
// mutated on failure.
func Equip(cat *catalog.Catalog, inv *Inventory, eq *Equipment, itemID string) error {
	def, err := Validate(cat, itemID)
	if err != nil {
		return err
	}
	if !def.Equippable() {
		return protocol.Errf(protocol.ErrBadRequest, "item %q is not equippable", itemID)
	}
	if inv.Count(itemID, def.Tier) < 1 {
		return protocol.Errf(protocol.ErrNotInInventory, "item %q not held", itemID)
	}

	if err := inv.Remove(itemID, def.Tier, 1); err != nil {
		return err
	}
	if prev := eq.Get(def.Slot); prev != "" {
		prevTier := 0
		if prevDef, ok := cat.Lookup(prev); ok {
			prevTier = prevDef.Tier
		}
		inv.Add(prev, prevTier, 1)
	}
	eq.set(def.Slot, itemID)
	return nil
}

// Unequip clears the slot and returns the item to the inventory, stacking
// with any matching entry.
func Unequip(cat *catalog.Catalog, inv *Inventory, eq *Equipment, slot catalog.Slot) error {
	if !catalog.ValidSlot(slot) {
		return protocol.Errf(protocol.ErrBadRequest, "invalid slot %q", slot)
	}
	id := eq.Get(slot)
	if id == "" {
		return protocol.Errf(protocol.ErrSlotEmpty, "slot %q is empty", slot)
	}
	tier := 0
	if def, ok := cat.Lookup(id); ok {
		tier = def.Tier
	}
	inv.Add(id, tier, 1)
	eq.set(slot, "")
	return nil
}

// AggregateStats sums the stat blocks of every equipped item. Slots holding
// ids no longer in the catalog contribute nothing.
func AggregateStats(cat *catalog.Catalog, eq *Equipment) catalog.StatBlock {
	var total catalog.StatBlock
	for _, id := range eq.Occupied() {
		if def, ok := cat.Lookup(id); ok {
			total = total.Add(def.Stats)
		}
	}
	return total
}
