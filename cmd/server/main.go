package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	persistlog "voxlight.ai/internal/persistence/log"
	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/tuning"
	"voxlight.ai/internal/sim/world"
	"voxlight.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed override (fresh worlds only; 0 keeps tuning.yaml)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (edits + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	// Tuning is required for a fresh world; a resume falls back to defaults
	// because the snapshot carries the grid and seed.
	tune, err := tuning.Load(tp)
	if err != nil {
		if snapshotToLoad == "" || !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.WorldGen.Seed = *seed
	}

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(*worldID, tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	w, err := openWorld(*worldID, tune, snapshotToLoad)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if snapshotToLoad != "" {
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		cfg := w.Config()
		logger.Printf("generated world=%s seed=%d grid=%v digest=%s", cfg.ID, cfg.Seed, cfg.Grid, w.StateDigest())
	}

	ctx, cancel := signalContext()
	defer cancel()

	editLog := persistlog.NewEditLogger(worldDir)
	defer editLog.Close()
	if idx != nil {
		w.SetEditLogger(multiEditLogger{a: editLog, b: idx})
	} else {
		w.SetEditLogger(editLog)
	}

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
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
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
				logger.Printf("snapshot tick=%d digest=%s", snap.Header.Tick, snap.Digest)
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()
		if m.Tick == 0 {
			m.Tick = w.CurrentTick()
		}
		writeMetrics(rw, *worldID, m)
	})

	if envBool("VL_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: *worldID,
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			tick, err := w.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
		})
	} else {
		logger.Printf("admin endpoints disabled (VL_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("VL_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

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
}

// openWorld generates a fresh world from tune, or resumes from snapPath when
// set. A snapshot fixes the seed and grid regardless of tune.
func openWorld(worldID string, tune tuning.Tuning, snapPath string) (*world.World, error) {
	cfg := world.ConfigFromTuning(worldID, tune)
	if snapPath == "" {
		return world.New(cfg)
	}

	snap, err := snapshot.ReadSnapshot(snapPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if snap.Header.WorldID != "" && snap.Header.WorldID != worldID {
		return nil, fmt.Errorf("snapshot world id mismatch: flag=%s snap=%s", worldID, snap.Header.WorldID)
	}
	cfg.Seed = snap.Seed
	cfg.Grid = snap.Grid
	w, err := world.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	return w, nil
}

func writeMetrics(out io.Writer, worldID string, m world.WorldMetrics) {
	// Minimal Prometheus exposition format.
	fmt.Fprintf(out, "# HELP voxlight_world_tick Current world tick.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_tick gauge\n")
	fmt.Fprintf(out, "voxlight_world_tick{world=%q} %d\n", worldID, m.Tick)

	fmt.Fprintf(out, "# HELP voxlight_world_sessions Connected sessions.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_sessions gauge\n")
	fmt.Fprintf(out, "voxlight_world_sessions{world=%q} %d\n", worldID, m.Sessions)
	fmt.Fprintf(out, "voxlight_world_sessions{world=%q,feed=%q} %d\n", worldID, "mesh", m.Subscribers)

	fmt.Fprintf(out, "# HELP voxlight_world_chunks Chunk count.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_chunks gauge\n")
	fmt.Fprintf(out, "voxlight_world_chunks{world=%q} %d\n", worldID, m.Chunks)

	fmt.Fprintf(out, "# HELP voxlight_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_queue_depth gauge\n")
	fmt.Fprintf(out, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(out, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "voxlight_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)

	fmt.Fprintf(out, "# HELP voxlight_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_step_ms gauge\n")
	fmt.Fprintf(out, "voxlight_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(out, "# HELP voxlight_world_edits_total Edits by outcome.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_edits_total counter\n")
	fmt.Fprintf(out, "voxlight_world_edits_total{world=%q,result=%q} %d\n", worldID, "applied", m.EditsApplied)
	fmt.Fprintf(out, "voxlight_world_edits_total{world=%q,result=%q} %d\n", worldID, "rejected", m.EditsRejected)

	fmt.Fprintf(out, "# HELP voxlight_world_picks_total Picks served.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_picks_total counter\n")
	fmt.Fprintf(out, "voxlight_world_picks_total{world=%q} %d\n", worldID, m.Picks)

	fmt.Fprintf(out, "# HELP voxlight_world_chunks_sent_total CHUNK messages queued to subscribers.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_chunks_sent_total counter\n")
	fmt.Fprintf(out, "voxlight_world_chunks_sent_total{world=%q} %d\n", worldID, m.ChunksSent)

	fmt.Fprintf(out, "# HELP voxlight_world_sends_dropped_total Messages dropped on full session queues.\n")
	fmt.Fprintf(out, "# TYPE voxlight_world_sends_dropped_total counter\n")
	fmt.Fprintf(out, "voxlight_world_sends_dropped_total{world=%q} %d\n", worldID, m.SendsDropped)
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
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
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

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
