package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/tuning"
	"voxlight.ai/internal/sim/world"
)

func smallTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.Grid.W, t.Grid.H, t.Grid.D = 1, 2, 1
	t.WorldGen.BaseHeight = 10
	return t
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := latestSnapshot(dir); got != "" {
		t.Fatalf("empty dir: %q", got)
	}
	for _, name := range []string{"99.snap.zst", "1000.snap.zst", "200.snap.zst", "junk.snap.zst", "5000.tmp"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := latestSnapshot(dir); filepath.Base(got) != "1000.snap.zst" {
		t.Fatalf("latest: %q", got)
	}
}

func TestOpenWorld_ResumesFromSnapshot(t *testing.T) {
	tune := smallTuning()
	fresh, err := openWorld("w", tune, "")
	if err != nil {
		t.Fatalf("openWorld: %v", err)
	}
	path := filepath.Join(t.TempDir(), "snapshots", "41.snap.zst")
	if err := snapshot.WriteSnapshot(path, fresh.ExportSnapshot(41)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	// The snapshot's seed and grid win over the tuning.
	other := tune
	other.WorldGen.Seed = 99
	resumed, err := openWorld("w", other, path)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.CurrentTick() != 42 {
		t.Fatalf("tick: %d", resumed.CurrentTick())
	}
	if resumed.Config().Seed != fresh.Config().Seed {
		t.Fatalf("seed: %d", resumed.Config().Seed)
	}
	if resumed.StateDigest() != fresh.StateDigest() {
		t.Fatalf("digest mismatch after resume")
	}

	if _, err := openWorld("other", tune, path); err == nil {
		t.Fatalf("expected world id mismatch")
	}
}

func TestWriteMetrics(t *testing.T) {
	var b strings.Builder
	writeMetrics(&b, "w1", world.WorldMetrics{Tick: 7, Sessions: 2, Subscribers: 1, EditsApplied: 3})
	out := b.String()
	for _, want := range []string{
		`voxlight_world_tick{world="w1"} 7`,
		`voxlight_world_sessions{world="w1"} 2`,
		`voxlight_world_sessions{world="w1",feed="mesh"} 1`,
		`voxlight_world_edits_total{world="w1",result="applied"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	if !isLoopbackRemote("127.0.0.1:5000") || !isLoopbackRemote("[::1]:80") {
		t.Fatalf("loopback not recognised")
	}
	if isLoopbackRemote("10.0.0.1:5000") || isLoopbackRemote("garbage") {
		t.Fatalf("non-loopback accepted")
	}
}
