// Package log owns the durable JSONL streams of a running world: the
// per-tick replay log and the gameplay audit trail. Segments are zstd
// compressed and rotate hourly; the reader half drives the replay
// verifier over the same layout.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"arrakis.gg/internal/sim/world"
)

// SegmentWriter appends JSON lines to hourly zstd segments named
// <prefix>-<UTC hour>.jsonl.zst under its directory.
type SegmentWriter struct {
	dir    string
	prefix string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewSegmentWriter(dir, prefix string) *SegmentWriter {
	return &SegmentWriter{dir: dir, prefix: prefix}
}

func (w *SegmentWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	// Flush per line so a crash loses at most the zstd frame in flight.
	return w.w.Flush()
}

func (w *SegmentWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *SegmentWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, segmentName(w.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *SegmentWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

func segmentName(prefix, hour string) string {
	return fmt.Sprintf("%s-%s.jsonl.zst", prefix, hour)
}

// TickLogger records one entry per simulated tick under
// <worldDir>/events. The stream replays a world bit for bit.
type TickLogger struct{ w *SegmentWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: NewSegmentWriter(filepath.Join(worldDir, "events"), "events")}
}

func (l *TickLogger) WriteTick(v world.TickLogEntry) error { return l.w.Write(v) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// AuditLogger records gameplay facts under <worldDir>/audit.
type AuditLogger struct{ w *SegmentWriter }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{w: NewSegmentWriter(filepath.Join(worldDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(v world.AuditEntry) error { return l.w.Write(v) }
func (l *AuditLogger) Close() error                        { return l.w.Close() }

// Segments lists the rotated files for prefix under dir, oldest first.
// Hour-stamped names sort lexically in time order.
func Segments(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ForEachLine streams one segment's JSON lines through fn, stopping on
// the first error fn returns.
func ForEachLine(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}
