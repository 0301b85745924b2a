package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"arrakis.gg/internal/sim/player"
)

type playerRow struct {
	PlayerID  string  `json:"player_id"`
	Name      string  `json:"name"`
	Spice     int     `json:"spice"`
	Water     float64 `json:"water"`
	Health    float64 `json:"health"`
	Deaths    int     `json:"deaths"`
	UpdatedAt string  `json:"updated_at"`
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "player store path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	id := fs.String("id", "", "player id (player query)")
	_ = fs.Parse(args)

	q := "players"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "players.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	switch q {
	case "players":
		rows, err := db.Query(`SELECT player_id,name,payload,updated_at FROM player_resources ORDER BY updated_at DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanPlayerRow(rows)
			if err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	case "top":
		// Spice lives inside the JSON payload, so ranking happens here
		// rather than in SQL.
		rows, err := db.Query(`SELECT player_id,name,payload,updated_at FROM player_resources`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		var all []playerRow
		for rows.Next() {
			r, err := scanPlayerRow(rows)
			if err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			all = append(all, r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Spice != all[j].Spice {
				return all[i].Spice > all[j].Spice
			}
			return all[i].PlayerID < all[j].PlayerID
		})
		if len(all) > *limit {
			all = all[:*limit]
		}
		for _, r := range all {
			printJSON(r)
		}

	case "player":
		if strings.TrimSpace(*id) == "" {
			fmt.Fprintln(os.Stderr, "missing -id")
			os.Exit(2)
		}
		var name, payload, updatedAt string
		err := db.QueryRow(`SELECT name,payload,updated_at FROM player_resources WHERE player_id=?`, *id).
			Scan(&name, &payload, &updatedAt)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		var res player.Resources
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			fmt.Fprintln(os.Stderr, "decode payload:", err)
			os.Exit(1)
		}
		printJSON(struct {
			PlayerID  string           `json:"player_id"`
			Name      string           `json:"name"`
			UpdatedAt string           `json:"updated_at"`
			Resources player.Resources `json:"resources"`
		}{*id, name, updatedAt, res})

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-limit N] players|top|player -id ID")
		os.Exit(2)
	}
}

func scanPlayerRow(rows *sql.Rows) (playerRow, error) {
	var r playerRow
	var payload string
	if err := rows.Scan(&r.PlayerID, &r.Name, &payload, &r.UpdatedAt); err != nil {
		return r, err
	}
	var res player.Resources
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return r, fmt.Errorf("decode %s: %w", r.PlayerID, err)
	}
	r.Spice = res.Spice
	r.Water = res.Water
	r.Health = res.Health
	r.Deaths = res.Stats.Deaths
	return r, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
