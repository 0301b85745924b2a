package mirror

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Stats feeds the metrics endpoint.
type Stats struct {
	QueueDepth      int
	QueueCapacity   int
	EnqueuedTotal   uint64
	DroppedTotal    uint64
	UploadedTotal   uint64
	FailedTotal     uint64
	LastSuccessUnix int64
	LastErrorUnix   int64
}

// Mirror uploads files beneath baseDir to the bucket, keyed by their
// path relative to baseDir (plus an optional prefix). Enqueue never
// blocks: a full queue drops the file and counts the drop, the same
// discipline the player store applies to saves. Dropped snapshots are
// re-covered by the next cadence write, so a drop costs history depth,
// not correctness.
type Mirror struct {
	client  *client
	baseDir string
	prefix  string
	logger  *log.Logger

	jobs chan string
	wg   sync.WaitGroup

	enqueuedTotal   atomic.Uint64
	droppedTotal    atomic.Uint64
	uploadedTotal   atomic.Uint64
	failedTotal     atomic.Uint64
	lastSuccessUnix atomic.Int64
	lastErrorUnix   atomic.Int64
}

func New(cfg Config, baseDir string, logger *log.Logger) (*Mirror, error) {
	cl, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	m := &Mirror{
		client:  cl,
		baseDir: baseDir,
		prefix:  strings.Trim(strings.ReplaceAll(cfg.Prefix, "\\", "/"), "/"),
		logger:  logger,
		jobs:    make(chan string, 64),
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for localPath := range m.jobs {
			m.uploadOne(localPath)
		}
	}()
	return m, nil
}

func (m *Mirror) Enqueue(localPath string) {
	if m == nil {
		return
	}
	select {
	case m.jobs <- localPath:
		m.enqueuedTotal.Add(1)
	default:
		dropped := m.droppedTotal.Add(1)
		m.printf("mirror: queue full, dropped %s (dropped_total=%d)", localPath, dropped)
	}
}

// Close drains the queue and waits for in-flight uploads.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	close(m.jobs)
	m.wg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:      len(m.jobs),
		QueueCapacity:   cap(m.jobs),
		EnqueuedTotal:   m.enqueuedTotal.Load(),
		DroppedTotal:    m.droppedTotal.Load(),
		UploadedTotal:   m.uploadedTotal.Load(),
		FailedTotal:     m.failedTotal.Load(),
		LastSuccessUnix: m.lastSuccessUnix.Load(),
		LastErrorUnix:   m.lastErrorUnix.Load(),
	}
}

func (m *Mirror) uploadOne(localPath string) {
	key, err := m.objectKey(localPath)
	if err != nil {
		m.failedTotal.Add(1)
		m.lastErrorUnix.Store(time.Now().UTC().Unix())
		m.printf("mirror: skip %s: %v", localPath, err)
		return
	}

	if err := m.putWithRetry(key, localPath); err != nil {
		m.failedTotal.Add(1)
		m.lastErrorUnix.Store(time.Now().UTC().Unix())
		m.printf("mirror: upload failed key=%s: %v", key, err)
		return
	}
	m.uploadedTotal.Add(1)
	m.lastSuccessUnix.Store(time.Now().UTC().Unix())
	m.printf("mirror: uploaded key=%s", key)
}

func (m *Mirror) putWithRetry(key, localPath string) error {
	const attempts = 3
	var lastErr error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := m.client.putFile(ctx, key, localPath)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if i < attempts {
			time.Sleep(time.Duration(i*i) * 250 * time.Millisecond)
		}
	}
	return lastErr
}

// objectKey maps a local file to its bucket key: the path relative to
// baseDir, forward-slashed, under the configured prefix. Paths outside
// baseDir are refused rather than silently re-rooted.
func (m *Mirror) objectKey(localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("empty local path")
	}
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}

	absBase, err := filepath.Abs(m.baseDir)
	if err != nil {
		return "", err
	}
	absLocal, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absLocal)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", absLocal, absBase)
	}

	if m.prefix != "" {
		return path.Join(m.prefix, rel), nil
	}
	return rel, nil
}

func (m *Mirror) printf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
