package world

import (
	"encoding/json"

	"voxlight.ai/internal/protocol"
	simenc "voxlight.ai/internal/sim/encoding"
	"voxlight.ai/internal/sim/voxel"
)

// ChunkMessage encodes chunk i as a CHUNK message.
func (w *World) ChunkMessage(i int, tick uint64) protocol.ChunkMsg {
	c := w.grid.Chunk(i)
	return protocol.ChunkMsg{
		Type:            protocol.TypeChunk,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Index:           i,
		Chunk:           [3]int{c.CX, c.CY, c.CZ},
		Neighbours:      w.grid.Neighbourhood(i),
		VoxelsRLE:       simenc.EncodeRLE(c.IDs()),
		LightRLE:        simenc.EncodeRLE(c.Lightmap.Raw()),
	}
}

// publishChunks drains modified chunks and ships them to mesh feed sessions.
// Sessions flagged for resync get every chunk instead. Flags are drained even
// with no subscribers so they never accumulate.
func (w *World) publishChunks(tick uint64) {
	var dirty []int
	w.grid.DrainModified(func(i int, _ *voxel.Chunk) { dirty = append(dirty, i) })

	var subs []*session
	needAll := false
	for _, s := range w.sessions {
		if !s.MeshFeed {
			continue
		}
		subs = append(subs, s)
		needAll = needAll || s.resync
	}
	if len(subs) == 0 {
		return
	}

	encoded := map[int][]byte{}
	encode := func(i int) []byte {
		if b, ok := encoded[i]; ok {
			return b
		}
		b, err := json.Marshal(w.ChunkMessage(i, tick))
		if err != nil {
			return nil
		}
		encoded[i] = b
		return b
	}

	all := dirty
	if needAll {
		all = make([]int, w.grid.Volume())
		for i := range all {
			all[i] = i
		}
	}
	for _, s := range subs {
		list := dirty
		if s.resync {
			list = all
			s.resync = false
		}
		for _, i := range list {
			b := encode(i)
			if b == nil {
				continue
			}
			if !trySend(s.Out, b) {
				// The client lost an update; send it the whole world next tick.
				s.resync = true
				w.counters.sendsDropped++
				break
			}
			w.counters.chunksSent++
		}
	}
}
