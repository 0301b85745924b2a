package trading

import (
	"testing"

	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/economy"
)

func testPost(t *testing.T) *Post {
	t.Helper()
	cat, err := catalog.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	cfg := Config{
		Center:          geo.Vector3{X: 150, Z: 150},
		Radius:          50,
		SellPriceFactor: 0.5,
	}
	return New(cfg, cat)
}

func TestSafeZoneBoundaryInclusive(t *testing.T) {
	p := testPost(t)
	if !p.InSafeZone(geo.Vector3{X: 150, Z: 150}) {
		t.Fatalf("center should be in the safe zone")
	}
	if !p.InSafeZone(geo.Vector3{X: 200, Z: 150}) {
		t.Fatalf("exactly 50m should be inside")
	}
	if p.InSafeZone(geo.Vector3{X: 200.1, Z: 150}) {
		t.Fatalf("50.1m should be outside")
	}
	// Height never matters for zone membership.
	if !p.CanTrade(geo.Vector3{X: 150, Y: 300, Z: 150}) {
		t.Fatalf("CanTrade must ignore height")
	}
}

func TestBuy(t *testing.T) {
	p := testPost(t)
	var inv economy.Inventory

	spice, err := p.Buy("desert_boots", 200, &inv)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if spice != 80 {
		t.Fatalf("spice after buy = %d, want 80", spice)
	}
	if inv.Count("desert_boots", 1) != 1 {
		t.Fatalf("boots not stacked: %+v", inv.Items)
	}

	spice, err = p.Buy("stillsuit_advanced", spice, &inv)
	if protocol.CodeOf(err) != protocol.ErrNoSpice {
		t.Fatalf("insufficient spice: %v", err)
	}
	if spice != 80 || len(inv.Items) != 1 {
		t.Fatalf("failed buy mutated state: spice=%d inv=%+v", spice, inv.Items)
	}
}

func TestBuyUnknownAndUnstocked(t *testing.T) {
	p := testPost(t)
	var inv economy.Inventory

	if _, err := p.Buy("lasgun", 1000, &inv); protocol.CodeOf(err) != protocol.ErrUnknownItem {
		t.Fatalf("unknown item: %v", err)
	}
	if _, err := p.Buy("spice_crystal", 1000, &inv); protocol.CodeOf(err) != protocol.ErrNotForSale {
		t.Fatalf("unstocked item: %v", err)
	}
	if len(inv.Items) != 0 {
		t.Fatalf("failed buys mutated inventory")
	}
}

func TestSellPriceHalvesAndFloors(t *testing.T) {
	p := testPost(t)
	cases := []struct {
		id   string
		want int
	}{
		{"stillsuit_basic", 75},
		{"fremkit_hood", 42}, // 85 halves to 42.5, floored
		{"thumper", 25},
	}
	for _, tc := range cases {
		got, err := p.SellPrice(tc.id)
		if err != nil {
			t.Fatalf("SellPrice(%s): %v", tc.id, err)
		}
		if got != tc.want {
			t.Fatalf("SellPrice(%s) = %d, want %d", tc.id, got, tc.want)
		}
	}
	if _, err := p.SellPrice("spice_crystal"); protocol.CodeOf(err) != protocol.ErrNotForSale {
		t.Fatalf("unstocked sell price: %v", err)
	}
}

func TestSellRequiresInventory(t *testing.T) {
	p := testPost(t)
	var inv economy.Inventory

	spice, err := p.Sell("thumper", 10, &inv)
	if protocol.CodeOf(err) != protocol.ErrNotInInventory {
		t.Fatalf("sell absent item: %v", err)
	}
	if spice != 10 {
		t.Fatalf("failed sell changed spice: %d", spice)
	}

	inv.Add("thumper", 1, 2)
	spice, err = p.Sell("thumper", 10, &inv)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if spice != 35 {
		t.Fatalf("spice after sell = %d, want 35", spice)
	}
	if inv.Count("thumper", 1) != 1 {
		t.Fatalf("sell should consume one: %+v", inv.Items)
	}
}

// Buying and immediately selling back must always lose spice.
func TestBuyThenSellNeverProfits(t *testing.T) {
	p := testPost(t)
	for _, listing := range p.MerchantCatalog() {
		var inv economy.Inventory
		start := 5000

		afterBuy, err := p.Buy(listing.Item.ID, start, &inv)
		if err != nil {
			t.Fatalf("Buy(%s): %v", listing.Item.ID, err)
		}
		afterSell, err := p.Sell(listing.Item.ID, afterBuy, &inv)
		if err != nil {
			t.Fatalf("Sell(%s): %v", listing.Item.ID, err)
		}
		if afterSell >= start {
			t.Fatalf("%s round trip: %d -> %d, must lose spice", listing.Item.ID, start, afterSell)
		}
	}
}

func TestMerchantCatalog(t *testing.T) {
	p := testPost(t)
	got := p.MerchantCatalog()
	if len(got) == 0 {
		t.Fatalf("merchant catalog empty")
	}
	seen := map[string]bool{}
	for i, l := range got {
		if l.Price <= 0 {
			t.Fatalf("listing %s has no price", l.Item.ID)
		}
		if l.Price != l.Item.Price {
			t.Fatalf("listing %s price mismatch", l.Item.ID)
		}
		if i > 0 && got[i-1].Item.ID >= l.Item.ID {
			t.Fatalf("catalog not sorted at %d", i)
		}
		seen[l.Item.ID] = true
	}
	if !seen["desert_boots"] || seen["spice_crystal"] {
		t.Fatalf("catalog contents wrong: %v", seen)
	}
}
