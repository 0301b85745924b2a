package player

import "testing"

func TestDefaults(t *testing.T) {
	r := Defaults()
	if r.Water != 100 || r.Health != 100 {
		t.Fatalf("Defaults = %+v, want full water and health", r)
	}
	if r.Spice != 0 || len(r.Inventory.Items) != 0 {
		t.Fatalf("Defaults should start empty: %+v", r)
	}
	if r.Stats != (Stats{}) {
		t.Fatalf("Defaults stats = %+v, want zero", r.Stats)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := Defaults()
	r.Inventory.Add("thumper", 1, 2)
	r.Spice = 40

	c := r.Clone()
	c.Inventory.Add("thumper", 1, 3)
	c.Spice = 7

	if got := r.Inventory.Count("thumper", 1); got != 2 {
		t.Fatalf("clone mutation leaked into original: count = %d", got)
	}
	if r.Spice != 40 {
		t.Fatalf("clone mutation leaked into original: spice = %d", r.Spice)
	}
}

func TestClamp(t *testing.T) {
	r := Resources{Water: 140, Health: -3, Spice: -10}
	r.Clamp()
	if r.Water != 100 || r.Health != 0 || r.Spice != 0 {
		t.Fatalf("Clamp = %+v", r)
	}

	r = Resources{Water: 33.5, Health: 80, Spice: 12}
	r.Clamp()
	if r.Water != 33.5 || r.Health != 80 || r.Spice != 12 {
		t.Fatalf("Clamp mutated in-range values: %+v", r)
	}
}
