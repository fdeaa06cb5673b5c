package world

import (
	"fmt"
	"sync/atomic"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/lighting"
	"voxlight.ai/internal/sim/rates"
	"voxlight.ai/internal/sim/voxel"
)

type JoinRequest struct {
	// SessionID is assigned by the transport; empty gets a sequential id.
	SessionID string
	Name      string
	MeshFeed  bool
	Out       chan []byte
	Resp      chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

// Request is one EDIT or PICK from a session. Exactly one of Edit/Pick is set.
type Request struct {
	SessionID string
	Edit      *protocol.EditMsg
	Pick      *protocol.PickMsg
}

type EditLogger interface {
	WriteEdit(entry EditLogEntry) error
}

// EditLogEntry records one applied edit with its resolved position. Digest is
// set on the last edit of a tick and holds StateDigest after that tick's edits.
type EditLogEntry struct {
	Tick      uint64 `json:"tick"`
	Seq       int    `json:"seq"`
	SessionID string `json:"session_id"`
	ID        string `json:"id"`
	Op        string `json:"op"`
	Pos       [3]int `json:"pos"`
	From      uint8  `json:"from"`
	To        uint8  `json:"to"`
	Digest    string `json:"digest,omitempty"`
}

type session struct {
	Name     string
	Out      chan []byte
	MeshFeed bool
	// resync asks for every chunk on the next tick (after join or a dropped send).
	resync bool
	edits  rates.Window
}

// World is a single-threaded authoritative voxel world.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	grid  *voxel.ChunkGrid
	light *lighting.Engine

	sessions map[string]*session

	inbox chan Request
	join  chan JoinRequest
	leave chan string
	admin chan adminSnapshotReq
	stop  chan struct{}

	nextSessionNum atomic.Uint64

	// Optional logger (may be nil). Implemented in internal/persistence/*.
	editLogger EditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	counters counters
	// digest is StateDigest as of the last grid change made by the loop.
	digest  string
	metrics atomic.Value
}

// New generates and lights a fresh world.
func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	if cfg.BaseHeight >= cfg.Grid[1]*voxel.Size-1 {
		return nil, fmt.Errorf("base height %d does not fit %d chunks", cfg.BaseHeight, cfg.Grid[1])
	}
	grid := voxel.NewChunkGrid(cfg.Grid[0], cfg.Grid[1], cfg.Grid[2])
	generate(grid, cfg)

	w := &World{
		cfg:      cfg,
		grid:     grid,
		light:    lighting.NewEngine(grid, cfg.Light),
		sessions: map[string]*session{},
		inbox:    make(chan Request, 1024),
		join:     make(chan JoinRequest, 64),
		leave:    make(chan string, 64),
		admin:    make(chan adminSnapshotReq, 8),
		stop:     make(chan struct{}),
	}
	w.light.Relight()
	// Generation and the first relight are not news to anyone yet.
	grid.DrainModified(func(int, *voxel.Chunk) {})
	w.digest = w.StateDigest()
	return w, nil
}

func (w *World) SetEditLogger(l EditLogger)                    { w.editLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- Request    { return w.inbox }
func (w *World) Join() chan<- JoinRequest { return w.join }
func (w *World) Leave() chan<- string     { return w.leave }
func (w *World) CurrentTick() uint64      { return w.tick.Load() }
func (w *World) Config() WorldConfig      { return w.cfg }
func (w *World) Grid() *voxel.ChunkGrid   { return w.grid }
func (w *World) Engine() *lighting.Engine { return w.light }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) welcome(sessionID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldParams: protocol.WorldParams{
			TickRateHz: w.cfg.TickRateHz,
			ChunkSize:  voxel.Size,
			Grid:       w.cfg.Grid,
			Seed:       w.cfg.Seed,
		},
	}
}

func (w *World) joinSession(req JoinRequest) JoinResponse {
	id := req.SessionID
	if id == "" {
		id = fmt.Sprintf("S%06d", w.nextSessionNum.Add(1))
	}
	w.sessions[id] = &session{
		Name:     req.Name,
		Out:      req.Out,
		MeshFeed: req.MeshFeed,
		resync:   req.MeshFeed,
	}
	return JoinResponse{Welcome: w.welcome(id)}
}

// trySend never blocks the world loop. It reports whether b was queued.
func trySend(ch chan []byte, b []byte) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}
