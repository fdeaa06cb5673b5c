package world

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// StateDigest hashes every chunk's voxels and light in index order.
func (w *World) StateDigest() string {
	h := xxhash.New()
	var tmp [8]byte
	for i := 0; i < w.grid.Volume(); i++ {
		binary.LittleEndian.PutUint64(tmp[:], w.grid.Chunk(i).Digest())
		_, _ = h.Write(tmp[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
