package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"arrakis.gg/internal/persistence/archive"
	persistlog "arrakis.gg/internal/persistence/log"
	"arrakis.gg/internal/persistence/mirror"
	"arrakis.gg/internal/persistence/snapshot"
	"arrakis.gg/internal/persistence/store"
	"arrakis.gg/internal/sim/catalog"
	"arrakis.gg/internal/sim/tuning"
	"arrakis.gg/internal/sim/world"
	"arrakis.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "arrakis_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		archiveEvery = flag.Uint64("archive_every_ticks", 0, "archive a milestone snapshot every N ticks (0 = disabled)")
		snapKeep     = flag.Int("snapshot_keep", 0, "working snapshots to keep on disk; older ones are pruned (0 = unlimited)")

		mirrorEndpoint = flag.String("mirror_endpoint", "", "S3-compatible endpoint for off-box snapshot mirroring (optional)")
		mirrorBucket   = flag.String("mirror_bucket", "", "bucket for snapshot mirroring")
		mirrorPrefix   = flag.String("mirror_prefix", "", "object key prefix for mirrored files (optional)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := catalog.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	// Load tuning (required for fresh worlds; resumes carry theirs in the
	// snapshot, so a missing file is tolerated there).
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		if os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}

	// Create world (fresh or resumed from snapshot).
	var w *world.World
	var resumedSessions []string
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		// The snapshot's tuning wins over the file so the resumed run keeps
		// the exact numbers it was recorded with.
		w, err = world.New(world.Config{ID: *worldID, Seed: snap.Seed, Tuning: snap.Tuning}, cat)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		resumedSessions = w.ConnectedPlayerIDs()
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		w, err = world.New(world.Config{ID: *worldID, Seed: *seed, Tuning: tune}, cat)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
		logger.Printf("created world=%s seed=%d", *worldID, *seed)
	}

	ctx, cancel := signalContext()
	defer cancel()

	st, err := store.Open(filepath.Join(worldDir, "players.db"))
	if err != nil {
		logger.Fatalf("open player store: %v", err)
	}
	defer st.Close()

	// Optional off-box mirror. Credentials come from the environment so
	// they never show up in process listings.
	var mir *mirror.Mirror
	if strings.TrimSpace(*mirrorEndpoint) != "" {
		mir, err = mirror.New(mirror.Config{
			Endpoint:        *mirrorEndpoint,
			Bucket:          *mirrorBucket,
			Prefix:          *mirrorPrefix,
			AccessKeyID:     os.Getenv("ARRAKIS_MIRROR_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARRAKIS_MIRROR_SECRET_ACCESS_KEY"),
		}, *dataDir, logger)
		if err != nil {
			logger.Fatalf("mirror: %v", err)
		}
		logger.Printf("mirroring snapshots to %s bucket=%s", *mirrorEndpoint, *mirrorBucket)
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer tickLog.Close()
	defer auditLog.Close()
	w.SetTickLogger(tickLog)
	w.SetAuditLogger(auditLog)

	// Snapshot writer. Milestone archiving, mirroring and pruning all hang
	// off the same goroutine so the retention order is fixed: archive the
	// boundary copy, enqueue uploads, then prune the working set.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	snapDone := make(chan struct{})
	w.SetSnapshotSink(snapCh)
	go func() {
		defer close(snapDone)
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				logger.Printf("snapshot written tick=%d", snap.Header.Tick)

				if archived, ok, err := archive.Milestone(worldDir, path, snap, *archiveEvery); err != nil {
					logger.Printf("archive milestone: %v", err)
				} else if ok {
					logger.Printf("milestone archived: %s", archived)
					mir.Enqueue(archived)
				}
				mir.Enqueue(path)

				if removed, err := archive.PruneSnapshots(worldDir, *snapKeep); err != nil {
					logger.Printf("prune snapshots: %v", err)
				} else if len(removed) > 0 {
					logger.Printf("pruned %d old snapshots", len(removed))
				}
			}
		}
	}()

	// Save forwarder. The loop hands records off without blocking; the store
	// batches them onto disk.
	saveCh := make(chan world.SaveRequest, 256)
	savesDone := make(chan struct{})
	w.SetSaveSink(saveCh)
	go func() {
		defer close(savesDone)
		for req := range saveCh {
			st.Save(req)
		}
	}()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	// Snapshotted sessions have no live socket on this process; queue their
	// leaves so the disconnect grace window starts at the resume tick.
	for _, id := range resumedSessions {
		w.Leave() <- id
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP arrakis_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE arrakis_world_tick gauge\n")
		fmt.Fprintf(rw, "arrakis_world_tick{world=%q} %d\n", *worldID, w.CurrentTick())

		fmt.Fprintf(rw, "# HELP arrakis_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE arrakis_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "arrakis_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "inbox", len(w.Inbox()))
		fmt.Fprintf(rw, "arrakis_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "trade", len(w.Trade()))
		fmt.Fprintf(rw, "arrakis_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "join", len(w.Join()))
		fmt.Fprintf(rw, "arrakis_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "leave", len(w.Leave()))
		fmt.Fprintf(rw, "arrakis_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "save", len(saveCh))

		qs := st.Stats()
		fmt.Fprintf(rw, "# HELP arrakis_store_saves_total Player records accepted by the save queue.\n")
		fmt.Fprintf(rw, "# TYPE arrakis_store_saves_total counter\n")
		fmt.Fprintf(rw, "arrakis_store_saves_total{world=%q} %d\n", *worldID, qs.SaveTotal)

		fmt.Fprintf(rw, "# HELP arrakis_store_saves_dropped_total Player records dropped on a full save queue.\n")
		fmt.Fprintf(rw, "# TYPE arrakis_store_saves_dropped_total counter\n")
		fmt.Fprintf(rw, "arrakis_store_saves_dropped_total{world=%q} %d\n", *worldID, qs.DropTotal)

		fmt.Fprintf(rw, "# HELP arrakis_store_queue_depth Save queue backlog inside the store.\n")
		fmt.Fprintf(rw, "# TYPE arrakis_store_queue_depth gauge\n")
		fmt.Fprintf(rw, "arrakis_store_queue_depth{world=%q} %d\n", *worldID, qs.QueueDepth)

		if n, err := st.Count(); err == nil {
			fmt.Fprintf(rw, "# HELP arrakis_store_players Player records in the durable store.\n")
			fmt.Fprintf(rw, "# TYPE arrakis_store_players gauge\n")
			fmt.Fprintf(rw, "arrakis_store_players{world=%q} %d\n", *worldID, n)
		}

		if mir != nil {
			ms := mir.Stats()
			fmt.Fprintf(rw, "# HELP arrakis_mirror_uploads_total Files uploaded to the snapshot mirror.\n")
			fmt.Fprintf(rw, "# TYPE arrakis_mirror_uploads_total counter\n")
			fmt.Fprintf(rw, "arrakis_mirror_uploads_total{world=%q} %d\n", *worldID, ms.UploadedTotal)
			fmt.Fprintf(rw, "# HELP arrakis_mirror_failures_total Upload attempts that exhausted retries.\n")
			fmt.Fprintf(rw, "# TYPE arrakis_mirror_failures_total counter\n")
			fmt.Fprintf(rw, "arrakis_mirror_failures_total{world=%q} %d\n", *worldID, ms.FailedTotal)
			fmt.Fprintf(rw, "# HELP arrakis_mirror_queue_depth Upload queue backlog.\n")
			fmt.Fprintf(rw, "# TYPE arrakis_mirror_queue_depth gauge\n")
			fmt.Fprintf(rw, "arrakis_mirror_queue_depth{world=%q} %d\n", *worldID, ms.QueueDepth)
		}
	})

	if envBool("ARRAKIS_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (ARRAKIS_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, st, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// The loop must be parked before the sinks close behind it, and the
	// snapshot writer before the mirror stops accepting uploads.
	<-worldDone
	close(saveCh)
	<-savesDone
	cancel()
	<-snapDone
	mir.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
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

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
