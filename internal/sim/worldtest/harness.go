package worldtest

import (
	"encoding/json"
	"fmt"
	"testing"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/protocol"
	world "voxlight.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Join() issues JoinRequest via StepOnce()
// - Break/Place/Pick issue one request per tick via StepOnce()
// - Per-session Out channels carry RESULT and CHUNK JSON
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T *testing.T
	W *world.World

	DefaultSessionID string

	sessions map[string]*session
	nextReq  int
}

type session struct {
	ID      string
	Out     chan []byte
	results []protocol.ResultMsg
	// chunks holds the latest CHUNK per chunk index, as a mesher would.
	chunks map[int]protocol.ChunkMsg
}

func NewHarness(t *testing.T, cfg world.WorldConfig, name string, meshFeed bool) *Harness {
	t.Helper()

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, name, meshFeed)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world instance.
// This is useful for snapshot round-trip tests where the snapshot is imported before join.
func NewHarnessWithWorld(t *testing.T, w *world.World, name string, meshFeed bool) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	h := &Harness{
		T:        t,
		W:        w,
		sessions: map[string]*session{},
	}
	h.DefaultSessionID = h.Join(name, meshFeed)
	return h
}

func (h *Harness) Join(name string, meshFeed bool) string {
	h.T.Helper()

	out := make(chan []byte, 4096)
	resp := make(chan world.JoinResponse, 1)
	_, _ = h.W.StepOnce([]world.JoinRequest{{
		Name:     name,
		MeshFeed: meshFeed,
		Out:      out,
		Resp:     resp,
	}}, nil, nil)
	jr := <-resp
	if jr.Welcome.SessionID == "" {
		h.T.Fatalf("join returned empty session id")
	}
	s := &session{ID: jr.Welcome.SessionID, Out: out, chunks: map[int]protocol.ChunkMsg{}}
	h.sessions[s.ID] = s
	h.drainAll()
	return s.ID
}

func (h *Harness) reqID() string {
	h.nextReq++
	return fmt.Sprintf("r%d", h.nextReq)
}

// Do runs one tick with the given requests from the default session and
// returns that session's results for the tick.
func (h *Harness) Do(reqs ...world.Request) []protocol.ResultMsg {
	h.T.Helper()
	s := h.sessions[h.DefaultSessionID]
	for i := range reqs {
		reqs[i].SessionID = s.ID
	}
	before := len(s.results)
	_, _ = h.W.StepOnce(nil, nil, reqs)
	h.drainAll()
	return s.results[before:]
}

func (h *Harness) EditReq(op string, pos [3]int, block uint8) world.Request {
	return world.Request{Edit: &protocol.EditMsg{
		Type:            protocol.TypeEdit,
		ProtocolVersion: protocol.Version,
		ID:              h.reqID(),
		Op:              op,
		Pos:             &pos,
		Block:           block,
	}}
}

func (h *Harness) PickReq(origin, dir [3]float32) world.Request {
	return world.Request{Pick: &protocol.PickMsg{
		Type:            protocol.TypePick,
		ProtocolVersion: protocol.Version,
		ID:              h.reqID(),
		Ray:             protocol.Ray{Origin: origin, Dir: dir},
	}}
}

func (h *Harness) Break(pos [3]int) protocol.ResultMsg {
	h.T.Helper()
	return h.one(h.Do(h.EditReq(protocol.OpBreak, pos, 0)))
}

func (h *Harness) Place(pos [3]int, block uint8) protocol.ResultMsg {
	h.T.Helper()
	return h.one(h.Do(h.EditReq(protocol.OpPlace, pos, block)))
}

func (h *Harness) Pick(origin, dir [3]float32) protocol.ResultMsg {
	h.T.Helper()
	return h.one(h.Do(h.PickReq(origin, dir)))
}

func (h *Harness) one(rs []protocol.ResultMsg) protocol.ResultMsg {
	h.T.Helper()
	if len(rs) != 1 {
		h.T.Fatalf("expected 1 result, got %d", len(rs))
	}
	return rs[0]
}

func (h *Harness) StepNoop() {
	h.T.Helper()
	_, _ = h.W.StepOnce(nil, nil, nil)
	h.drainAll()
}

// Chunk returns the latest CHUNK the default session received for index i.
func (h *Harness) Chunk(i int) (protocol.ChunkMsg, bool) {
	c, ok := h.sessions[h.DefaultSessionID].chunks[i]
	return c, ok
}

func (h *Harness) Snapshot() (tick uint64, snap snapshot.SnapshotV1) {
	h.T.Helper()
	// Keep tick stable: export at currentTick-1 then import would restore to currentTick.
	cur := h.W.CurrentTick()
	if cur == 0 {
		return 0, h.W.ExportSnapshot(0)
	}
	tick = cur - 1
	return tick, h.W.ExportSnapshot(tick)
}

func (h *Harness) drainAll() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOne(s)
	}
}

func (h *Harness) drainOne(s *session) {
	h.T.Helper()
	for {
		var b []byte
		select {
		case b = <-s.Out:
		default:
			return
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			h.T.Fatalf("decode: %v", err)
		}
		switch base.Type {
		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(b, &r); err != nil {
				h.T.Fatalf("unmarshal RESULT: %v", err)
			}
			s.results = append(s.results, r)
		case protocol.TypeChunk:
			var c protocol.ChunkMsg
			if err := json.Unmarshal(b, &c); err != nil {
				h.T.Fatalf("unmarshal CHUNK: %v", err)
			}
			s.chunks[c.Index] = c
		default:
			h.T.Fatalf("unexpected message type %q", base.Type)
		}
	}
}
