package voxel

import "fmt"

// ChunkGrid is a fixed W×H×D arena of chunks addressed by global voxel
// coordinates in [0,W*16)×[0,H*16)×[0,D*16). It is not safe for concurrent
// use; the world loop owns it.
type ChunkGrid struct {
	W, H, D int

	chunks     []Chunk
	neighbours [][27]int
}

func NewChunkGrid(w, h, d int) *ChunkGrid {
	if w <= 0 || h <= 0 || d <= 0 {
		panic(fmt.Sprintf("voxel: bad grid dimensions %dx%dx%d", w, h, d))
	}
	g := &ChunkGrid{
		W:      w,
		H:      h,
		D:      d,
		chunks: make([]Chunk, w*h*d),
	}
	for y := 0; y < h; y++ {
		for z := 0; z < d; z++ {
			for x := 0; x < w; x++ {
				c := &g.chunks[g.chunkIndex(x, y, z)]
				c.CX, c.CY, c.CZ = x, y, z
			}
		}
	}
	g.neighbours = buildNeighbourTable(w, h, d)
	return g
}

// Volume is the number of chunks.
func (g *ChunkGrid) Volume() int { return len(g.chunks) }

// Extent is the grid size in voxels.
func (g *ChunkGrid) Extent() (x, y, z int) { return g.W * Size, g.H * Size, g.D * Size }

func (g *ChunkGrid) chunkIndex(cx, cy, cz int) int {
	return (cy*g.D+cz)*g.W + cx
}

func (g *ChunkGrid) Chunk(i int) *Chunk { return &g.chunks[i] }

// ChunkAt returns the chunk at chunk-grid coordinates, or nil outside.
func (g *ChunkGrid) ChunkAt(cx, cy, cz int) *Chunk {
	if cx < 0 || cy < 0 || cz < 0 || cx >= g.W || cy >= g.H || cz >= g.D {
		return nil
	}
	return &g.chunks[g.chunkIndex(cx, cy, cz)]
}

func (g *ChunkGrid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.W*Size && y < g.H*Size && z < g.D*Size
}

// locate splits a global coordinate into chunk and local offset. The chunk is
// nil outside the grid.
func (g *ChunkGrid) locate(x, y, z int) (c *Chunk, lx, ly, lz int) {
	if !g.InBounds(x, y, z) {
		return nil, 0, 0, 0
	}
	return &g.chunks[g.chunkIndex(x/Size, y/Size, z/Size)], x % Size, y % Size, z % Size
}

// Get returns the voxel at a global coordinate; outside the grid it returns the
// opaque Boundary sentinel.
func (g *ChunkGrid) Get(x, y, z int) Voxel {
	c, lx, ly, lz := g.locate(x, y, z)
	if c == nil {
		return boundaryVoxel
	}
	return c.Get(lx, ly, lz)
}

// Set writes a voxel id; outside the grid it is a no-op.
func (g *ChunkGrid) Set(x, y, z int, id uint8) {
	c, lx, ly, lz := g.locate(x, y, z)
	if c == nil {
		return
	}
	c.Set(lx, ly, lz, id)
}

func (g *ChunkGrid) ChunkByVoxel(x, y, z int) *Chunk {
	c, _, _, _ := g.locate(x, y, z)
	return c
}

// Light returns a channel intensity, 0 outside the grid.
func (g *ChunkGrid) Light(x, y, z int, ch Channel) uint8 {
	c, lx, ly, lz := g.locate(x, y, z)
	if c == nil {
		if !ch.Valid() {
			panic(ErrBadChannel)
		}
		return 0
	}
	return c.Light(lx, ly, lz, ch)
}

// SetLight writes a channel intensity; outside the grid it is a no-op.
func (g *ChunkGrid) SetLight(x, y, z int, ch Channel, v int) {
	c, lx, ly, lz := g.locate(x, y, z)
	if c == nil {
		return
	}
	c.SetLight(lx, ly, lz, ch, v)
}

// ByteSize is the length of the Write/Read buffer.
func (g *ChunkGrid) ByteSize() int { return len(g.chunks) * Volume }

// Write copies every voxel id into buf, chunk index order then raster order.
func (g *ChunkGrid) Write(buf []byte) error {
	if len(buf) != g.ByteSize() {
		return fmt.Errorf("write %d bytes into %d: %w", g.ByteSize(), len(buf), ErrBufferSize)
	}
	for i := range g.chunks {
		copy(buf[i*Volume:(i+1)*Volume], g.chunks[i].voxels[:])
	}
	return nil
}

// Read replaces every voxel id from buf and marks all chunks modified. Light
// is left untouched; callers relight.
func (g *ChunkGrid) Read(buf []byte) error {
	if len(buf) != g.ByteSize() {
		return fmt.Errorf("read %d bytes from %d: %w", g.ByteSize(), len(buf), ErrBufferSize)
	}
	for i := range g.chunks {
		c := &g.chunks[i]
		copy(c.voxels[:], buf[i*Volume:(i+1)*Volume])
		c.Modified = true
	}
	return nil
}

// ClearLight zeroes every lightmap.
func (g *ChunkGrid) ClearLight() {
	for i := range g.chunks {
		g.chunks[i].Lightmap.Clear()
		g.chunks[i].Modified = true
	}
}

// DrainModified calls fn for each modified chunk in index order and clears its
// flag.
func (g *ChunkGrid) DrainModified(fn func(i int, c *Chunk)) {
	for i := range g.chunks {
		c := &g.chunks[i]
		if !c.TakeModified() {
			continue
		}
		fn(i, c)
	}
}
