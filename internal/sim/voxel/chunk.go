package voxel

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const (
	Size   = 16
	Volume = Size * Size * Size
)

type Chunk struct {
	CX, CY, CZ int

	voxels   [Volume]uint8
	Lightmap Lightmap

	// Modified is set by any voxel or light write and cleared by the mesh consumer.
	Modified bool
}

// localIndex is the within-chunk raster order: x fastest, then z, then y.
func localIndex(x, y, z int) int {
	if uint(x) >= Size || uint(y) >= Size || uint(z) >= Size {
		panic(ErrOutOfBounds)
	}
	return (y*Size+z)*Size + x
}

func (c *Chunk) Get(x, y, z int) Voxel {
	return Voxel{ID: c.voxels[localIndex(x, y, z)]}
}

func (c *Chunk) Set(x, y, z int, id uint8) {
	i := localIndex(x, y, z)
	c.voxels[i] = id
	c.Modified = true
}

func (c *Chunk) Light(x, y, z int, ch Channel) uint8 {
	return c.Lightmap.Get(x, y, z, ch)
}

func (c *Chunk) SetLight(x, y, z int, ch Channel, v int) {
	c.Lightmap.Set(x, y, z, ch, v)
	c.Modified = true
}

// TakeModified reports and clears the modified flag.
func (c *Chunk) TakeModified() bool {
	m := c.Modified
	c.Modified = false
	return m
}

// IDs exposes the voxel ids in raster order. Callers must not retain it
// across edits.
func (c *Chunk) IDs() []uint8 { return c.voxels[:] }

// Digest hashes voxel ids and packed light. Light is part of the digest so
// replays catch solver divergence, not only edit divergence.
func (c *Chunk) Digest() uint64 {
	h := xxhash.New()
	_, _ = h.Write(c.voxels[:])
	var buf [Volume * 2]byte
	for i, v := range c.Lightmap.cells {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
