package world

import (
	"context"
	"errors"
	"fmt"

	"voxlight.ai/internal/persistence/snapshot"
	"voxlight.ai/internal/sim/voxel"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	buf := make([]byte, w.grid.ByteSize())
	// Sized from the grid itself, so Write cannot fail.
	_ = w.grid.Write(buf)
	return snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, WorldID: w.cfg.ID, Tick: nowTick},
		Seed:   w.cfg.Seed,
		Grid:   w.cfg.Grid,
		Voxels: buf,
		Digest: w.StateDigest(),
	}
}

// ImportSnapshot replaces every voxel, rebuilds light from scratch and resumes
// at the tick after the snapshot.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Grid != w.cfg.Grid {
		return fmt.Errorf("snapshot grid %v does not match world grid %v", s.Grid, w.cfg.Grid)
	}
	if err := w.grid.Read(s.Voxels); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	w.cfg.Seed = s.Seed
	w.light.Relight()
	// Resync every mesh subscriber rather than stream the whole grid as dirty.
	w.grid.DrainModified(func(int, *voxel.Chunk) {})
	for _, sess := range w.sessions {
		sess.resync = sess.MeshFeed
	}
	w.digest = w.StateDigest()
	w.tick.Store(s.Header.Tick + 1)
	return nil
}

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Tick uint64
	Err  string
}

// RequestSnapshot asks the world loop goroutine to enqueue a snapshot.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil || w.admin == nil {
		return 0, errors.New("admin snapshot not available")
	}
	resp := make(chan adminSnapshotResp, 1)
	req := adminSnapshotReq{Resp: resp}

	select {
	case w.admin <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Tick, errors.New(r.Err)
		}
		return r.Tick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if w == nil || len(reqs) == 0 {
		return
	}
	cur := w.tick.Load()
	snapTick := uint64(0)
	if cur > 0 {
		snapTick = cur - 1
	}

	errStr := ""
	if w.snapshotSink == nil {
		errStr = "snapshot sink not configured"
	} else {
		snap := w.ExportSnapshot(snapTick)
		select {
		case w.snapshotSink <- snap:
		default:
			errStr = "snapshot sink backpressure"
		}
	}

	resp := adminSnapshotResp{Tick: snapTick, Err: errStr}
	for _, r := range reqs {
		if r.Resp == nil {
			continue
		}
		select {
		case r.Resp <- resp:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}
