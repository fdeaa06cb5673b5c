package main

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"voxlight.ai/internal/persistence/indexdb"
	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/voxel"
	"voxlight.ai/internal/sim/world"
)

func TestParseAABB(t *testing.T) {
	min, max, err := parseAABB("5,10,-2:1,3,4")
	if err != nil {
		t.Fatalf("parseAABB: %v", err)
	}
	if min != [3]int{1, 3, -2} || max != [3]int{5, 10, 4} {
		t.Fatalf("got %v %v", min, max)
	}
	for _, bad := range []string{"", "1,2,3", "1,2:3,4,5", "a,b,c:1,2,3"} {
		if _, _, err := parseAABB(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestSelectEdits_FiltersAndOrdersNewestFirst(t *testing.T) {
	all := []world.EditLogEntry{
		{Tick: 1, Seq: 0, Pos: [3]int{1, 1, 1}},
		{Tick: 2, Seq: 0, Pos: [3]int{2, 2, 2}},
		{Tick: 2, Seq: 1, Pos: [3]int{3, 3, 3}},
		{Tick: 2, Seq: 2, Pos: [3]int{50, 3, 3}},
		{Tick: 9, Seq: 0, Pos: [3]int{2, 2, 2}},
	}
	got := selectEdits(all, 1, 5, [3]int{0, 0, 0}, [3]int{10, 10, 10})
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Tick != 2 || got[0].Seq != 1 || got[2].Tick != 1 {
		t.Fatalf("order: %+v", got)
	}
}

func TestApplyRollback_RestoresVoxels(t *testing.T) {
	w, err := world.New(world.WorldConfig{ID: "w", Grid: [3]int{1, 2, 1}, Seed: 5, BaseHeight: 10})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	base := w.ExportSnapshot(0)
	before := w.StateDigest()

	// Break the surface then put a lamp in the hole.
	recs := []world.EditLogEntry{
		{Tick: 1, Seq: 0, Op: protocol.OpBreak, Pos: [3]int{8, 10, 8}, From: w.Grid().Get(8, 10, 8).ID},
		{Tick: 2, Seq: 0, Op: protocol.OpPlace, Pos: [3]int{8, 10, 8}, To: voxel.Emitter},
	}
	for _, e := range recs {
		if !w.ApplyLogged(e) {
			t.Fatalf("apply %+v", e)
		}
	}
	edited := w.ExportSnapshot(2)

	out, applied, skipped, err := applyRollback(edited, selectEdits(recs, 0, 2, [3]int{0, 0, 0}, [3]int{15, 31, 15}))
	if err != nil {
		t.Fatalf("applyRollback: %v", err)
	}
	if applied != 2 || skipped != 0 {
		t.Fatalf("applied=%d skipped=%d", applied, skipped)
	}
	if out.Header.Tick != 2 {
		t.Fatalf("tick=%d", out.Header.Tick)
	}
	if out.Digest != before || string(out.Voxels) != string(base.Voxels) {
		t.Fatalf("rollback did not restore the original world")
	}
}

func TestDBQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteEdit(world.EditLogEntry{Tick: 3, SessionID: "a", ID: "1", Op: protocol.OpBreak, Pos: [3]int{1, 2, 3}, From: 1})
	_ = idx.WriteEdit(world.EditLogEntry{Tick: 4, SessionID: "b", ID: "2", Op: protocol.OpPlace, Pos: [3]int{1, 2, 3}, To: 1, Digest: "ff"})
	idx.RecordSnapshot("/tmp/4.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Tick: 4}, Grid: [3]int{1, 1, 1}, Digest: "ff"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var b strings.Builder
	if err := queryEdits(db, &b, editFilter{Session: "b", Limit: 10}); err != nil {
		t.Fatalf("queryEdits: %v", err)
	}
	if out := b.String(); strings.Count(out, "\n") != 1 || !strings.Contains(out, `"session_id":"b"`) || !strings.Contains(out, `"digest":"ff"`) {
		t.Fatalf("edits output: %s", out)
	}

	b.Reset()
	if err := querySnapshots(db, &b, 5); err != nil {
		t.Fatalf("querySnapshots: %v", err)
	}
	if out := b.String(); !strings.Contains(out, `"tick":4`) || !strings.Contains(out, `"grid":[1,1,1]`) {
		t.Fatalf("snapshots output: %s", out)
	}
}
