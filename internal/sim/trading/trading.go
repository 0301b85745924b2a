package trading

import (
	"math"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/economy"
)

// Config fixes the sietch location and pricing rule.
type Config struct {
	Center          geo.Vector3
	Radius          float64
	SellPriceFactor float64
}

// Post is the sietch merchant. It owns no player state; buy and sell
// operate on the caller's spice and inventory.
type Post struct {
	cfg Config
	cat *catalog.Catalog
}

func New(cfg Config, cat *catalog.Catalog) *Post {
	return &Post{cfg: cfg, cat: cat}
}

// InSafeZone reports whether pos is horizontally within the sietch radius,
// boundary inclusive.
func (p *Post) InSafeZone(pos geo.Vector3) bool {
	return geo.WithinXZ(pos, p.cfg.Center, p.cfg.Radius)
}

// CanTrade is safe-zone membership; the merchant serves nobody outside.
func (p *Post) CanTrade(pos geo.Vector3) bool { return p.InSafeZone(pos) }

// Listing is one merchant catalog row.
type Listing struct {
	Item  catalog.ItemDef `json:"item"`
	Price int             `json:"price"`
}

// MerchantCatalog lists every item the sietch stocks, sorted by id.
func (p *Post) MerchantCatalog() []Listing {
	defs := p.cat.Priced()
	out := make([]Listing, 0, len(defs))
	for _, def := range defs {
		out = append(out, Listing{Item: def, Price: def.Price})
	}
	return out
}

// BuyPrice resolves the merchant price for an item id.
func (p *Post) BuyPrice(itemID string) (int, error) {
	def, err := economy.Validate(p.cat, itemID)
	if err != nil {
		return 0, err
	}
	if def.Price <= 0 {
		return 0, protocol.Errf(protocol.ErrNotForSale, "merchant does not stock %q", itemID)
	}
	return def.Price, nil
}

// SellPrice is floor(buy price x SellPriceFactor).
func (p *Post) SellPrice(itemID string) (int, error) {
	buy, err := p.BuyPrice(itemID)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(float64(buy) * p.cfg.SellPriceFactor)), nil
}

// Buy deducts the price from spice and stacks the item into inv, returning
// the remaining spice. Nothing changes on failure.
func (p *Post) Buy(itemID string, spice int, inv *economy.Inventory) (int, error) {
	price, err := p.BuyPrice(itemID)
	if err != nil {
		return spice, err
	}
	if price > spice {
		return spice, protocol.Errf(protocol.ErrNoSpice, "%q costs %d, have %d", itemID, price, spice)
	}
	def, _ := p.cat.Lookup(itemID)
	if err := inv.Add(itemID, def.Tier, 1); err != nil {
		return spice, err
	}
	return spice - price, nil
}

// Sell removes one item from inv and credits the halved price, returning
// the new spice total. Nothing changes on failure.
func (p *Post) Sell(itemID string, spice int, inv *economy.Inventory) (int, error) {
	price, err := p.SellPrice(itemID)
	if err != nil {
		return spice, err
	}
	def, _ := p.cat.Lookup(itemID)
	if err := inv.Remove(itemID, def.Tier, 1); err != nil {
		return spice, err
	}
	return spice + price, nil
}
