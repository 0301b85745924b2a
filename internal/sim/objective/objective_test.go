package objective

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"arrakis.gg/internal/geo"
)

func testManager() *Manager {
	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("obj-%d", n)
	}
	cfg := Config{
		Type:           "spice_blow",
		Radius:         20,
		TimeLimitMs:    180000,
		RespawnDelayMs: 5000,
		SpawnMinDist:   200,
		SpawnMaxDist:   500,
	}
	return NewManager(cfg, newID, rand.New(rand.NewSource(7)))
}

func TestSpawnFields(t *testing.T) {
	m := testManager()
	target := geo.Vector3{X: 120, Z: -44}
	o := m.Spawn(target, 1000)

	if o.ID != "obj-1" || o.Type != "spice_blow" {
		t.Fatalf("spawned %+v", o)
	}
	if o.Target != target || o.Radius != 20 {
		t.Fatalf("target/radius wrong: %+v", o)
	}
	if o.ExpiresAt != 181000 || o.Status != StatusActive {
		t.Fatalf("lifecycle fields wrong: %+v", o)
	}
	if m.Current() != o {
		t.Fatalf("Current should return the spawned objective")
	}
}

func TestSpawnReplacesRegardlessOfStatus(t *testing.T) {
	m := testManager()
	first := m.Spawn(geo.Vector3{X: 10}, 0)
	if !m.CheckCompletion(geo.Vector3{X: 10}) {
		t.Fatalf("setup completion failed")
	}
	second := m.Spawn(geo.Vector3{X: 300}, 0)
	if m.Current() != second || second.ID == first.ID {
		t.Fatalf("spawn must replace the completed objective with a fresh id")
	}
}

func TestSpawnRandomWithinBand(t *testing.T) {
	m := testManager()
	for i := 0; i < 200; i++ {
		o := m.SpawnRandom(0)
		d := math.Hypot(o.Target.X, o.Target.Z)
		if d < 200 || d > 500 {
			t.Fatalf("spawn %d at distance %v, want [200,500]", i, d)
		}
		if o.Target.Y != 0 {
			t.Fatalf("spawn %d has y = %v", i, o.Target.Y)
		}
	}
}

func TestCompletionBoundaryInclusive(t *testing.T) {
	m := testManager()
	m.Spawn(geo.Vector3{}, 0)
	if m.CheckCompletion(geo.Vector3{X: 20.1}) {
		t.Fatalf("20.1m should not complete a 20m radius")
	}
	if !m.CheckCompletion(geo.Vector3{X: 20}) {
		t.Fatalf("exactly 20m should complete")
	}
}

func TestCompletionIsOneShot(t *testing.T) {
	m := testManager()
	m.Spawn(geo.Vector3{}, 0)
	if !m.CheckCompletion(geo.Vector3{X: 1}) {
		t.Fatalf("first in-radius check should complete")
	}
	if m.CheckCompletion(geo.Vector3{X: 1}) {
		t.Fatalf("second check must not complete again")
	}
	if m.Current().Status != StatusCompleted {
		t.Fatalf("status = %v", m.Current().Status)
	}
}

func TestCompletionIgnoresHeight(t *testing.T) {
	m := testManager()
	m.Spawn(geo.Vector3{}, 0)
	if !m.CheckCompletion(geo.Vector3{X: 12, Y: 900, Z: 5}) {
		t.Fatalf("height must not affect completion")
	}
}

func TestCompletionRejectsNonFinite(t *testing.T) {
	m := testManager()
	m.Spawn(geo.Vector3{}, 0)
	for _, pos := range []geo.Vector3{
		{X: math.NaN()},
		{Z: math.Inf(1)},
		{X: math.Inf(-1), Z: 3},
	} {
		if m.CheckCompletion(pos) {
			t.Fatalf("non-finite position %+v completed", pos)
		}
	}
	if m.Current().Status != StatusActive {
		t.Fatalf("non-finite checks must not consume the objective")
	}
	if !m.CheckCompletion(geo.Vector3{}) {
		t.Fatalf("objective should still be completable")
	}
}

func TestTimeoutThenDelayedRespawn(t *testing.T) {
	m := testManager()
	first := m.Spawn(geo.Vector3{X: 400}, 0)

	if ev := m.Update(179999); len(ev) != 0 {
		t.Fatalf("early update produced %v", ev)
	}
	ev := m.Update(180000)
	if len(ev) != 1 || ev[0].Kind != EventFailed {
		t.Fatalf("deadline update = %+v", ev)
	}
	if m.Current().Status != StatusFailed || m.Current().ID != first.ID {
		t.Fatalf("failure must mutate in place: %+v", m.Current())
	}

	// Repeated updates in the same instant are idempotent.
	if ev := m.Update(180000); len(ev) != 0 {
		t.Fatalf("repeat update produced %v", ev)
	}
	if ev := m.Update(184999); len(ev) != 0 {
		t.Fatalf("pre-delay update produced %v", ev)
	}

	ev = m.Update(185000)
	if len(ev) != 1 || ev[0].Kind != EventRespawned {
		t.Fatalf("respawn update = %+v", ev)
	}
	fresh := m.Current()
	if fresh.ID == first.ID || fresh.Status != StatusActive {
		t.Fatalf("respawn must install a fresh ACTIVE objective: %+v", fresh)
	}
	if fresh.ExpiresAt != 185000+180000 {
		t.Fatalf("fresh deadline = %d", fresh.ExpiresAt)
	}
}

func TestCompletedExemptFromTimeout(t *testing.T) {
	m := testManager()
	m.Spawn(geo.Vector3{}, 0)
	m.CheckCompletion(geo.Vector3{})
	if ev := m.Update(1 << 40); len(ev) != 0 {
		t.Fatalf("completed objective produced %v", ev)
	}
	if m.Current().Status != StatusCompleted {
		t.Fatalf("status = %v", m.Current().Status)
	}
}

func TestUpdateWithoutObjectiveIsNoop(t *testing.T) {
	m := testManager()
	if ev := m.Update(12345); ev != nil {
		t.Fatalf("update with no objective = %v", ev)
	}
}
