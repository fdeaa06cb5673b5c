package log

import (
	"testing"
	"time"

	"voxlight.ai/internal/sim/world"
)

func TestEditLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEditLogger(dir)
	want := []world.EditLogEntry{
		{Tick: 1, Seq: 0, SessionID: "s1", ID: "e1", Op: "BREAK", Pos: [3]int{1, 2, 3}, From: 4, To: 0},
		{Tick: 1, Seq: 1, SessionID: "s1", ID: "e2", Op: "PLACE", Pos: [3]int{1, 3, 3}, From: 0, To: 3, Digest: "00ff"},
	}
	for _, e := range want {
		if err := l.WriteEdit(e); err != nil {
			t.Fatalf("WriteEdit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := EditLogFiles(dir)
	if err != nil || len(files) != 1 {
		t.Fatalf("EditLogFiles: %v %v", files, err)
	}
	got, err := ReadEdits(files)
	if err != nil {
		t.Fatalf("ReadEdits: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("entries: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "edits")
	base := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	clock := base
	w.now = func() time.Time { return clock }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock = base.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Closing and writing again in the same hour appends a new frame.
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(map[string]int{"n": 3}); err != nil {
		t.Fatalf("Write after close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var lines []int
	for _, hour := range []string{"2026-03-01-10", "2026-03-01-11"} {
		err := ReadJSONL(w.pathForHour(hour), func(b []byte) error {
			lines = append(lines, len(b))
			return nil
		})
		if err != nil {
			t.Fatalf("ReadJSONL %s: %v", hour, err)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("lines across both hours: got %d want 3", len(lines))
	}
}
