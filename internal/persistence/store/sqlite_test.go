package store

import (
	"path/filepath"
	"testing"

	"arrakis.gg/internal/sim/economy"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/world"
)

func fullRecord() player.Resources {
	res := player.Resources{
		Water:  37.25,
		Health: 81.5,
		Spice:  430,
		Equipment: economy.Equipment{
			Body: "stillsuit_improved",
			Feet: "desert_boots",
		},
		Stats: player.Stats{
			ObjectivesCompleted: 4,
			TotalSpiceEarned:    1200,
			DistanceTraveled:    9876.5,
			Deaths:              2,
			WormsRidden:         1,
			OutpostsCaptured:    3,
		},
	}
	_ = res.Inventory.Add("thumper", 1, 2)
	_ = res.Inventory.Add("spice_crystal", 1, 7)
	return res
}

func TestStoreRoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := fullRecord()
	s.Save(world.SaveRequest{PlayerID: "p-1", Name: "chani", Resources: want})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	rec, ok, err := s.Load("p-1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if rec.Name != "chani" {
		t.Fatalf("name = %q", rec.Name)
	}
	got := rec.Resources
	if got.Water != want.Water || got.Health != want.Health || got.Spice != want.Spice {
		t.Fatalf("vitals mismatch: %+v", got)
	}
	if got.Equipment != want.Equipment {
		t.Fatalf("equipment mismatch: %+v", got.Equipment)
	}
	if got.Stats != want.Stats {
		t.Fatalf("stats mismatch: %+v", got.Stats)
	}
	if got.Inventory.Count("thumper", 1) != 2 || got.Inventory.Count("spice_crystal", 1) != 7 {
		t.Fatalf("inventory mismatch: %+v", got.Inventory.Items)
	}
}

func TestStoreLoadUnknownPlayer(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "players.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Load("never-seen")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("unknown player reported as present")
	}
}

func TestStoreLastSaveWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	first := player.Defaults()
	second := player.Defaults()
	second.Spice = 99
	second.Water = 12
	s.Save(world.SaveRequest{PlayerID: "p-1", Name: "old", Resources: first})
	s.Save(world.SaveRequest{PlayerID: "p-1", Name: "new", Resources: second})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	rec, ok, err := s.Load("p-1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if rec.Name != "new" || rec.Resources.Spice != 99 || rec.Resources.Water != 12 {
		t.Fatalf("stale record won: %+v", rec)
	}

	n, err := s.Count()
	if err != nil || n != 1 {
		t.Fatalf("count = %d err=%v, want 1", n, err)
	}
}

func TestStoreQueueDropStats(t *testing.T) {
	// No writer goroutine: a full queue must drop, not block the caller.
	s := &PlayerStore{ch: make(chan world.SaveRequest, 1)}
	s.ch <- world.SaveRequest{PlayerID: "queued"}

	s.Save(world.SaveRequest{PlayerID: "dropped"})

	st := s.Stats()
	if st.DropTotal != 1 {
		t.Fatalf("DropTotal = %d, want 1", st.DropTotal)
	}
	if st.SaveTotal != 0 {
		t.Fatalf("SaveTotal = %d, want 0", st.SaveTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
