package economy

import (
	"fmt"
	"sort"

	"arrakis.gg/internal/protocol"
)

// Item is one inventory stack. Stacks merge on the (Type, Tier) pair, so at
// most one entry exists per pair and the ID is derived from it.
type Item struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Tier     int    `json:"tier"`
	Quantity int    `json:"quantity"`
}

// StackID is the stable identity of a stack with the given type and tier.
func StackID(itemType string, tier int) string {
	return fmt.Sprintf("%s.t%d", itemType, tier)
}

// Inventory holds a player's stacks in append order. Merging keeps the
// existing entry's position.
type Inventory struct {
	Items []Item `json:"items"`
}

// Find returns the stack matching type and tier, or nil.
func (inv *Inventory) Find(itemType string, tier int) *Item {
	for i := range inv.Items {
		if inv.Items[i].Type == itemType && inv.Items[i].Tier == tier {
			return &inv.Items[i]
		}
	}
	return nil
}

// Count returns the quantity held for the given type and tier, zero if none.
func (inv *Inventory) Count(itemType string, tier int) int {
	if it := inv.Find(itemType, tier); it != nil {
		return it.Quantity
	}
	return 0
}

// Add stacks qty onto a matching entry or appends a new one.
func (inv *Inventory) Add(itemType string, tier, qty int) error {
	if itemType == "" || qty <= 0 {
		return protocol.Errf(protocol.ErrBadRequest, "add %q x%d", itemType, qty)
	}
	if it := inv.Find(itemType, tier); it != nil {
		it.Quantity += qty
		return nil
	}
	inv.Items = append(inv.Items, Item{
		ID:       StackID(itemType, tier),
		Type:     itemType,
		Tier:     tier,
		Quantity: qty,
	})
	return nil
}

// Remove decrements a matching stack, deleting it when it reaches zero.
// The inventory is unchanged on failure.
func (inv *Inventory) Remove(itemType string, tier, qty int) error {
	if qty <= 0 {
		return protocol.Errf(protocol.ErrBadRequest, "remove %q x%d", itemType, qty)
	}
	for i := range inv.Items {
		it := &inv.Items[i]
		if it.Type != itemType || it.Tier != tier {
			continue
		}
		if it.Quantity < qty {
			return protocol.Errf(protocol.ErrNotInInventory, "%s tier %d: have %d, need %d", itemType, tier, it.Quantity, qty)
		}
		it.Quantity -= qty
		if it.Quantity == 0 {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
		}
		return nil
	}
	return protocol.Errf(protocol.ErrNotInInventory, "%s tier %d not held", itemType, tier)
}

// Sorted returns the stacks ordered by (type, tier) for wire and digest use.
func (inv *Inventory) Sorted() []Item {
	out := make([]Item, 0, len(inv.Items))
	for _, it := range inv.Items {
		if it.Quantity <= 0 {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Tier < out[j].Tier
	})
	return out
}

// Clone deep-copies the inventory.
func (inv *Inventory) Clone() Inventory {
	if len(inv.Items) == 0 {
		return Inventory{}
	}
	return Inventory{Items: append([]Item(nil), inv.Items...)}
}
