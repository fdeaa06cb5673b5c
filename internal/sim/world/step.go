package world

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxlight.ai/internal/protocol"
	"voxlight.ai/internal/sim/voxel"
)

// counters are cumulative and only touched by the world loop.
type counters struct {
	editsApplied  uint64
	editsRejected uint64
	picks         uint64
	chunksSent    uint64
	sendsDropped  uint64
}

func (w *World) step(joins []JoinRequest, leaves []string, reqs []Request) {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	// Apply leaves and joins deterministically at tick boundary.
	for _, id := range leaves {
		delete(w.sessions, id)
	}
	for _, req := range joins {
		resp := w.joinSession(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}

	// Apply requests in server receive order (the inbox order).
	var logged []EditLogEntry
	budget := w.cfg.MaxEditsPerTick
	for _, r := range reqs {
		var res protocol.ResultMsg
		switch {
		case budget <= 0:
			res = w.requestResult(r, nowTick).Fail(protocol.ErrRateLimit, "edit budget for this tick exhausted")
			w.counters.editsRejected++
		case r.Edit != nil:
			if ok, cd := w.allowEdit(r.SessionID, nowTick); !ok {
				res = w.requestResult(r, nowTick).Fail(protocol.ErrRateLimit, fmt.Sprintf("session edit limit reached, retry in %d ticks", cd))
				w.counters.editsRejected++
				break
			}
			budget--
			var entry *EditLogEntry
			res, entry = w.applyEdit(r.SessionID, *r.Edit, nowTick)
			if entry != nil {
				entry.Seq = len(logged)
				logged = append(logged, *entry)
				w.counters.editsApplied++
			} else {
				w.counters.editsRejected++
			}
		case r.Pick != nil:
			budget--
			res = w.applyPick(*r.Pick, nowTick)
			w.counters.picks++
		default:
			res = w.requestResult(r, nowTick).Fail(protocol.ErrBadRequest, "empty request")
		}
		w.reply(r.SessionID, res)
	}

	if len(logged) > 0 {
		w.digest = w.StateDigest()
		logged[len(logged)-1].Digest = w.digest
		if w.editLogger != nil {
			for _, e := range logged {
				_ = w.editLogger.WriteEdit(e)
			}
		}
	}

	w.publishChunks(nowTick)

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.storeMetrics(nextTick, stepMS)
}

func (w *World) requestResult(r Request, tick uint64) protocol.ResultMsg {
	id := ""
	switch {
	case r.Edit != nil:
		id = r.Edit.ID
	case r.Pick != nil:
		id = r.Pick.ID
	}
	return protocol.NewResult(id, tick)
}

// allowEdit applies the per-session edit window. Unknown sessions are not limited.
func (w *World) allowEdit(sessionID string, nowTick uint64) (bool, uint64) {
	s := w.sessions[sessionID]
	if s == nil {
		return true, 0
	}
	return s.edits.Allow(nowTick, w.cfg.EditRateWindowTicks, w.cfg.EditRateMax)
}

func (w *World) reply(sessionID string, res protocol.ResultMsg) {
	s := w.sessions[sessionID]
	if s == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if !trySend(s.Out, b) {
		w.counters.sendsDropped++
	}
}

// castRay clamps the requested distance to the configured pick range.
func (w *World) castRay(ray protocol.Ray) (voxel.RayHit, bool, string) {
	dir := mgl32.Vec3(ray.Dir)
	if dir.Len() == 0 {
		return voxel.RayHit{}, false, protocol.ErrBadRequest
	}
	dist := w.cfg.PickMaxDistance
	if ray.MaxDistance > 0 && ray.MaxDistance < dist {
		dist = ray.MaxDistance
	}
	hit, ok := w.grid.RayCast(mgl32.Vec3(ray.Origin), dir, dist)
	if !ok {
		return hit, false, protocol.ErrNoHit
	}
	return hit, true, ""
}

func (w *World) applyPick(p protocol.PickMsg, tick uint64) protocol.ResultMsg {
	res := protocol.NewResult(p.ID, tick)
	hit, ok, code := w.castRay(p.Ray)
	if !ok {
		return res.Fail(code, "pick missed")
	}
	block := hit.Voxel.ID
	res.OK = true
	res.Pos = &hit.Pos
	res.Normal = &hit.Normal
	res.Block = &block
	return res
}

// applyEdit resolves the target, runs the lighting edit and returns the
// result plus a log entry when the world changed.
func (w *World) applyEdit(sessionID string, e protocol.EditMsg, tick uint64) (protocol.ResultMsg, *EditLogEntry) {
	res := protocol.NewResult(e.ID, tick)
	if e.Op != protocol.OpBreak && e.Op != protocol.OpPlace {
		return res.Fail(protocol.ErrBadRequest, "unknown op"), nil
	}
	if (e.Pos == nil) == (e.Ray == nil) {
		return res.Fail(protocol.ErrBadRequest, "exactly one of pos or ray is required"), nil
	}
	if e.Op == protocol.OpPlace && (e.Block == voxel.Air || e.Block == voxel.Boundary) {
		return res.Fail(protocol.ErrBadRequest, "block must be a solid id"), nil
	}

	var pos [3]int
	if e.Pos != nil {
		pos = *e.Pos
	} else {
		hit, ok, code := w.castRay(*e.Ray)
		if !ok {
			return res.Fail(code, "ray missed"), nil
		}
		pos = hit.Pos
		if e.Op == protocol.OpPlace {
			pos = hit.Adjacent()
		}
	}
	if !w.grid.InBounds(pos[0], pos[1], pos[2]) {
		return res.Fail(protocol.ErrOutOfBounds, "target outside the world"), nil
	}

	var (
		from, to uint8
		ok       bool
	)
	if e.Op == protocol.OpBreak {
		from, ok = w.light.Break(pos[0], pos[1], pos[2])
		to = voxel.Air
	} else {
		from, ok = w.light.Place(pos[0], pos[1], pos[2], e.Block)
		to = e.Block
	}
	res.Pos = &pos
	if !ok {
		if e.Op == protocol.OpBreak {
			return res.Fail(protocol.ErrInvalidTarget, "nothing to break"), nil
		}
		return res.Fail(protocol.ErrInvalidTarget, "target is not empty"), nil
	}
	res.OK = true
	res.Block = &to
	return res, &EditLogEntry{
		Tick:      tick,
		SessionID: sessionID,
		ID:        e.ID,
		Op:        e.Op,
		Pos:       pos,
		From:      from,
		To:        to,
	}
}

// ApplyLogged re-applies a logged edit at its recorded position. It is the
// replay path and bypasses sessions, budgets and rays.
func (w *World) ApplyLogged(e EditLogEntry) bool {
	var ok bool
	switch e.Op {
	case protocol.OpBreak:
		_, ok = w.light.Break(e.Pos[0], e.Pos[1], e.Pos[2])
	case protocol.OpPlace:
		_, ok = w.light.Place(e.Pos[0], e.Pos[1], e.Pos[2], e.To)
	}
	return ok
}

// SetTick positions the tick counter, used when resuming or replaying.
func (w *World) SetTick(t uint64) { w.tick.Store(t) }
