// Command admin inspects and repairs a world's on-disk state: the player
// store, the audit trail and the snapshot directory. It operates on files
// directly and never talks to a live simulation, except for the status
// subcommand which reads the server's health and metrics endpoints.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	persistlog "arrakis.gg/internal/persistence/log"
	"arrakis.gg/internal/persistence/snapshot"
	"arrakis.gg/internal/persistence/store"
	"arrakis.gg/internal/sim/economy"
	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "restore":
			restoreCmd(os.Args[2:])
			return
		case "status":
			statusCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

var errLimitReached = errors.New("limit reached")

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	sinceTick := fs.Uint64("since_tick", 0, "entries at or after this tick")
	toTick := fs.Uint64("to_tick", 0, "entries at or before this tick (0 = no cap)")
	actor := fs.String("actor", "", "filter by actor player id")
	action := fs.String("action", "", "filter by action (DEATH, TRADE, OBJECTIVE_COMPLETED, OUTPOST_CAPTURED, CORPSE_RECOVERED, CORPSE_EXPIRED)")
	limit := fs.Int("limit", 0, "stop after this many entries (0 = all)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}

	dir := filepath.Join(*dataDir, "worlds", *worldID, "audit")
	segs, err := persistlog.Segments(dir, "audit")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list segments:", err)
		os.Exit(1)
	}

	n := 0
	for _, seg := range segs {
		err := persistlog.ForEachLine(seg, func(line []byte) error {
			var e world.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(seg), err)
			}
			if e.Tick < *sinceTick {
				return nil
			}
			if *toTick > 0 && e.Tick > *toTick {
				return nil
			}
			if *actor != "" && e.Actor != *actor {
				return nil
			}
			if *action != "" && e.Action != *action {
				return nil
			}
			printJSON(e)
			n++
			if *limit > 0 && n >= *limit {
				return errLimitReached
			}
			return nil
		})
		if errors.Is(err, errLimitReached) {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "read audit:", err)
			os.Exit(1)
		}
	}
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -snapshot)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -snapshot")
			os.Exit(2)
		}
		path = latestSnapshot(filepath.Join(*dataDir, "worlds", *worldID))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	connected := 0
	for _, p := range snap.Players {
		if p.Connected {
			connected++
		}
	}
	summary := struct {
		Path      string `json:"path"`
		WorldID   string `json:"world_id"`
		Tick      uint64 `json:"tick"`
		Seed      int64  `json:"seed"`
		Players   int    `json:"players"`
		Connected int    `json:"connected"`
		Worms     int    `json:"worms"`
		Thumpers  int    `json:"thumpers"`
		Corpses   int    `json:"corpses"`
		Outposts  int    `json:"outposts"`
		Objective string `json:"objective,omitempty"`
	}{
		Path:      path,
		WorldID:   snap.Header.WorldID,
		Tick:      snap.Header.Tick,
		Seed:      snap.Seed,
		Players:   len(snap.Players),
		Connected: connected,
		Worms:     len(snap.Worms),
		Thumpers:  len(snap.Thumpers),
		Corpses:   len(snap.Corpses),
		Outposts:  len(snap.Outposts),
	}
	if snap.Objective != nil {
		summary.Objective = fmt.Sprintf("%s (%s)", snap.Objective.ID, snap.Objective.Status)
	}
	printJSON(summary)
}

// restoreCmd writes one player's record from a snapshot back into the
// player store. This is the support path for wiping out a bad save: the
// live server must be stopped first, the store is a single-writer file.
func restoreCmd(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	playerID := fs.String("player", "", "player id to restore (required)")
	dbPath := fs.String("db", "", "player store path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	if strings.TrimSpace(*playerID) == "" {
		fmt.Fprintln(os.Stderr, "missing -player")
		os.Exit(2)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	path := strings.TrimSpace(*snapPath)
	if path == "" {
		path = latestSnapshot(worldDir)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	var pv *snapshot.PlayerV1
	for i := range snap.Players {
		if snap.Players[i].ID == *playerID {
			pv = &snap.Players[i]
			break
		}
	}
	if pv == nil {
		fmt.Fprintf(os.Stderr, "player %s not in snapshot %s\n", *playerID, filepath.Base(path))
		os.Exit(2)
	}

	res := resourcesFromSnapshot(*pv)

	storePath := strings.TrimSpace(*dbPath)
	if storePath == "" {
		storePath = filepath.Join(worldDir, "players.db")
	}
	st, err := store.Open(storePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	st.Save(world.SaveRequest{PlayerID: pv.ID, Name: pv.Name, Resources: res})
	if err := st.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close store:", err)
		os.Exit(1)
	}

	fmt.Printf("restored player=%s name=%s from snapshot=%s tick=%d spice=%d water=%.1f health=%.1f\n",
		pv.ID, pv.Name, filepath.Base(path), snap.Header.Tick, res.Spice, res.Water, res.Health)
}

func resourcesFromSnapshot(pv snapshot.PlayerV1) player.Resources {
	res := player.Resources{
		Water:  pv.Water,
		Health: pv.Health,
		Spice:  pv.Spice,
		Equipment: economy.Equipment{
			Head: pv.Equipment.Head,
			Body: pv.Equipment.Body,
			Feet: pv.Equipment.Feet,
		},
		Stats: player.Stats{
			ObjectivesCompleted: pv.Stats.ObjectivesCompleted,
			TotalSpiceEarned:    pv.Stats.TotalSpiceEarned,
			DistanceTraveled:    pv.Stats.DistanceTraveled,
			Deaths:              pv.Stats.Deaths,
			WormsRidden:         pv.Stats.WormsRidden,
			OutpostsCaptured:    pv.Stats.OutpostsCaptured,
		},
	}
	for _, st := range pv.Inventory {
		_ = res.Inventory.Add(st.ItemID, st.Tier, st.Quantity)
	}
	return res
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
