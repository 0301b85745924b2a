// Package archive preserves milestone snapshots outside the working
// snapshots directory and prunes the working set, so retention never
// erases the history an operator would roll back to.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"arrakis.gg/internal/persistence/snapshot"
)

type Meta struct {
	WorldID   string `json:"world_id"`
	Milestone int    `json:"milestone"`
	EndTick   uint64 `json:"end_tick"`
	Seed      int64  `json:"seed"`
	Snapshot  string `json:"snapshot"`
	Players   int    `json:"players"`
	CreatedAt string `json:"created_at"`
}

// Milestone copies a boundary snapshot into worldDir/archives/milestone_<NNNNN>/
// and drops a meta.json beside it. Snapshots record the last executed tick, so
// the boundary snapshot for interval k is at tick = everyTicks*k - 1.
// It returns archived=false for snapshots off the boundary.
func Milestone(worldDir, snapshotPath string, snap snapshot.SnapshotV1, everyTicks uint64) (archivedPath string, archived bool, err error) {
	if everyTicks == 0 {
		return "", false, nil
	}
	if (snap.Header.Tick+1)%everyTicks != 0 {
		return "", false, nil
	}
	milestone := int((snap.Header.Tick + 1) / everyTicks)
	if milestone <= 0 {
		return "", false, nil
	}

	dir := filepath.Join(worldDir, "archives", fmt.Sprintf("milestone_%05d", milestone))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(dir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := Meta{
		WorldID:   snap.Header.WorldID,
		Milestone: milestone,
		EndTick:   snap.Header.Tick,
		Seed:      snap.Seed,
		Snapshot:  filepath.Base(dst),
		Players:   len(snap.Players),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644)
	}

	return dst, true, nil
}

// PruneSnapshots removes all but the newest keep files from
// worldDir/snapshots, ordered by their tick-numbered names. Files that do
// not parse as <tick>.snap.zst are left alone. It returns the removed paths.
func PruneSnapshots(worldDir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type snapFile struct {
		tick uint64
		path string
	}
	var files []snapFile
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		files = append(files, snapFile{tick: tick, path: filepath.Join(dir, name)})
	}
	if len(files) <= keep {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].tick < files[j].tick })

	var removed []string
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f.path); err != nil {
			return removed, err
		}
		removed = append(removed, f.path)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
