package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	persistlog "fishtank.gg/internal/persistence/log"
	"fishtank.gg/internal/persistence/snapshot"
	"fishtank.gg/internal/sim/aquarium"
	"fishtank.gg/internal/sim/tuning"
	"fishtank.gg/internal/store"
	"fishtank.gg/internal/transport/ws"
	"fishtank.gg/internal/users"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "tank_1", "world id")
		seed       = flag.Int64("seed", 0, "rng seed (0 = time-based)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		disableTickLog = flag.Bool("disable_tick_log", false, "disable the per-tick journal")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	ledger, err := users.Open(filepath.Join(*dataDir, "users.db"), tune.StartingMoney)
	if err != nil {
		logger.Fatalf("open ledger: %v", err)
	}
	defer ledger.Close()

	var tickLog *persistlog.TickLogger
	if !*disableTickLog {
		tickLog = persistlog.NewTickLogger(worldDir)
		defer tickLog.Close()
	}

	snapCh := make(chan snapshot.SnapshotV1, 1)

	cfg := aquarium.Config{
		WorldID:      *worldID,
		Seed:         *seed,
		Logger:       logger,
		Users:        ledger,
		SnapshotSink: snapCh,
	}
	if tickLog != nil {
		cfg.TickLogger = tickLog
	}
	w, err := aquarium.New(cfg, tune)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		w.ImportSnapshot(snap)
		logger.Printf("resumed from snapshot=%s", filepath.Base(snapshotToLoad))
	} else {
		w.SeedStarterTank()
		logger.Printf("seeded fresh tank %s", *worldID)
	}

	shop := store.New(tune.Store)

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer: compression and disk IO stay off the loop goroutine.
	go func() {
		dir := filepath.Join(worldDir, "snapshots")
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				name := time.UnixMilli(snap.Header.SavedUnixMs).UTC().Format("20060102_150405")
				path := filepath.Join(dir, name+".snap.zst")
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("write snapshot: %v", err)
					continue
				}
				// Fixed pointer for fast recovery on restart.
				if err := snapshot.WriteSnapshot(filepath.Join(dir, "latest.snap.zst"), snap); err != nil {
					logger.Printf("write latest snapshot: %v", err)
				}
				logger.Printf("snapshot written: %s", filepath.Base(path))
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

		m := w.ReadMetrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP fishtank_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_world_tick gauge\n")
		fmt.Fprintf(rw, "fishtank_world_tick{world=%q} %d\n", *worldID, m.Tick)

		fmt.Fprintf(rw, "# HELP fishtank_world_entities Current number of entities in the tank.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_world_entities gauge\n")
		fmt.Fprintf(rw, "fishtank_world_entities{world=%q} %d\n", *worldID, m.Entities)

		fmt.Fprintf(rw, "# HELP fishtank_world_clients Current number of connected clients.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_world_clients gauge\n")
		fmt.Fprintf(rw, "fishtank_world_clients{world=%q} %d\n", *worldID, m.Clients)

		fmt.Fprintf(rw, "# HELP fishtank_world_commands_total Total commands applied.\n")
		fmt.Fprintf(rw, "# TYPE fishtank_world_commands_total counter\n")
		fmt.Fprintf(rw, "fishtank_world_commands_total{world=%q} %d\n", *worldID, m.Commands)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, ledger, shop, logger).Handler())

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

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// latestSnapshot picks the newest snapshot in the world dir. Timestamped
// names sort chronologically, and the "latest" pointer sorts after all of
// them, so it wins whenever it exists.
func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}
