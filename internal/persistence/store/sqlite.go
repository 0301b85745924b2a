// Package store persists player records between sessions in a local
// sqlite database. Writes funnel through a single goroutine so the tick
// loop never blocks on disk; reads are synchronous and happen on the
// connection handshake path.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"arrakis.gg/internal/sim/player"
	"arrakis.gg/internal/sim/world"
)

// Record is one persisted player row.
type Record struct {
	PlayerID  string
	Name      string
	Resources player.Resources
}

// QueueStats reports writer-queue health for the metrics endpoint.
type QueueStats struct {
	SaveTotal     uint64
	DropTotal     uint64
	QueueDepth    int
	QueueCapacity int
}

type PlayerStore struct {
	db *sql.DB

	ch   chan world.SaveRequest
	wg   sync.WaitGroup
	once sync.Once

	closed    atomic.Bool
	saveTotal atomic.Uint64
	dropTotal atomic.Uint64
}

func Open(path string) (*PlayerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite wants a single connection; concurrency is handled
	// by the writer goroutine plus busy_timeout for reads.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &PlayerStore{
		db: db,
		ch: make(chan world.SaveRequest, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS player_resources (
		player_id  TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// Close flushes queued saves and releases the database.
func (s *PlayerStore) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Save queues one full-record upsert. The enqueue never blocks: when the
// writer is saturated the request is dropped, which only costs one
// periodic flush since every save carries the complete record.
func (s *PlayerStore) Save(req world.SaveRequest) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req:
		s.saveTotal.Add(1)
	default:
		s.dropTotal.Add(1)
	}
}

// Load returns the stored record for playerID; ok is false for an
// identity the store has never seen.
func (s *PlayerStore) Load(playerID string) (Record, bool, error) {
	var name, payload string
	err := s.db.QueryRow(
		`SELECT name, payload FROM player_resources WHERE player_id = ?`, playerID,
	).Scan(&name, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec := Record{PlayerID: playerID, Name: name}
	if err := json.Unmarshal([]byte(payload), &rec.Resources); err != nil {
		return Record{}, false, fmt.Errorf("decode record %s: %w", playerID, err)
	}
	return rec, true, nil
}

// Count reports how many players the store has ever seen.
func (s *PlayerStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM player_resources`).Scan(&n)
	return n, err
}

func (s *PlayerStore) Stats() QueueStats {
	return QueueStats{
		SaveTotal:     s.saveTotal.Load(),
		DropTotal:     s.dropTotal.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// loop is the single writer. Each wakeup opens a transaction, drains
// whatever is already queued into it, and commits when the queue goes
// idle or the batch fills, so a reconnecting player reads their latest
// save after at most one batch.
func (s *PlayerStore) loop() {
	const batchMax = 64

	upsert, err := s.db.Prepare(`INSERT INTO player_resources(player_id, name, payload, updated_at)
		VALUES(?,?,?,?)
		ON CONFLICT(player_id) DO UPDATE SET
			name = excluded.name,
			payload = excluded.payload,
			updated_at = excluded.updated_at`)
	if err != nil {
		// Schema init succeeded, so this is unreachable short of a
		// corrupted database; drain to keep Save callers unblocked.
		for range s.ch {
		}
		return
	}
	defer func() { _ = upsert.Close() }()

	apply := func(tx *sql.Tx, req world.SaveRequest) error {
		payload, err := json.Marshal(req.Resources)
		if err != nil {
			return err
		}
		_, err = tx.Stmt(upsert).Exec(
			req.PlayerID,
			req.Name,
			string(payload),
			time.Now().UTC().Format(time.RFC3339),
		)
		return err
	}

	for req := range s.ch {
		tx, err := s.db.Begin()
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		failed := apply(tx, req) != nil
		n := 1
	drain:
		for !failed && n < batchMax {
			select {
			case more, ok := <-s.ch:
				if !ok {
					break drain
				}
				failed = apply(tx, more) != nil
				n++
			default:
				break drain
			}
		}
		if failed {
			_ = tx.Rollback()
			continue
		}
		_ = tx.Commit()
	}
}
