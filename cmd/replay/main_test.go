package main

import (
	"strings"
	"testing"

	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/voxel"
	"voxlight.ai/internal/sim/world"
)

type memLog struct{ entries []world.EditLogEntry }

func (m *memLog) WriteEdit(e world.EditLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func testConfig() world.WorldConfig {
	return world.WorldConfig{ID: "r", Grid: [3]int{1, 2, 1}, Seed: 11, BaseHeight: 10, MaxEditsPerTick: 8}
}

func edit(id, op string, pos [3]int, block uint8) world.Request {
	p := pos
	return world.Request{SessionID: "s", Edit: &protocol.EditMsg{
		Type: protocol.TypeEdit, ProtocolVersion: protocol.Version, ID: id, Op: op, Pos: &p, Block: block,
	}}
}

func record(t *testing.T) (*world.World, []world.EditLogEntry) {
	t.Helper()
	live, err := world.New(testConfig())
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	log := &memLog{}
	live.SetEditLogger(log)
	join := world.JoinRequest{SessionID: "s", Out: make(chan []byte, 64)}
	live.StepOnce([]world.JoinRequest{join}, nil, nil)
	live.StepOnce(nil, nil, []world.Request{
		edit("1", protocol.OpBreak, [3]int{4, 10, 4}, 0),
		edit("2", protocol.OpBreak, [3]int{4, 9, 4}, 0),
	})
	live.StepOnce(nil, nil, []world.Request{edit("3", protocol.OpPlace, [3]int{4, 9, 4}, voxel.Emitter)})
	live.StepOnce(nil, nil, []world.Request{edit("4", protocol.OpPlace, [3]int{4, 12, 4}, 1)})
	return live, log.entries
}

func TestReplay_ReproducesLiveDigests(t *testing.T) {
	live, entries := record(t)
	if len(entries) != 4 {
		t.Fatalf("logged %d edits", len(entries))
	}

	w, err := world.New(testConfig())
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	st, err := replay(w, entries, 0, 0, true)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if st.Applied != 4 || st.Ticks != 3 || st.Checked != 3 {
		t.Fatalf("stats: %+v", st)
	}
	if w.StateDigest() != live.StateDigest() {
		t.Fatalf("final digest mismatch")
	}
	if w.CurrentTick() != st.LastTick+1 {
		t.Fatalf("tick %d after replay", w.CurrentTick())
	}
}

func TestReplay_StopsAtToTick(t *testing.T) {
	_, entries := record(t)
	w, _ := world.New(testConfig())
	st, err := replay(w, entries, 0, entries[1].Tick, true)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if st.Applied != 2 || st.Ticks != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	_, entries := record(t)
	entries[1].Digest = "0000000000000000"
	w, _ := world.New(testConfig())
	if _, err := replay(w, entries, 0, 0, true); err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}

	// A replay against the wrong terrain rejects the first edit.
	other := testConfig()
	other.BaseHeight = 5
	w, _ = world.New(other)
	if _, err := replay(w, entries, 0, 0, false); err == nil {
		t.Fatalf("expected rejection on different terrain")
	}
}
