package world

import (
	"math"

	"voxlight.ai/internal/sim/mathx"
	"voxlight.ai/internal/sim/voxel"
)

// Terrain block ids. voxel.Emitter doubles as the surface lamp block.
const (
	BlockStone uint8 = 1
	BlockDirt  uint8 = 2
	BlockGrass uint8 = 4
)

// terrainPeriod is the wavelength of the height field in voxels.
const terrainPeriod = 48.0

// surfaceHeight is the top solid y of column (x, z).
func surfaceHeight(cfg WorldConfig, x, z, maxY int) int {
	px := 2 * math.Pi * mathx.Unit(mathx.Hash2(cfg.Seed, 0, 1))
	pz := 2 * math.Pi * mathx.Unit(mathx.Hash2(cfg.Seed, 1, 0))
	fx := 2 * math.Pi * float64(x) / terrainPeriod
	fz := 2 * math.Pi * float64(z) / terrainPeriod
	h := float64(cfg.BaseHeight) + cfg.Amplitude*0.5*(math.Sin(fx+px)+math.Cos(fz+pz))
	return mathx.ClampInt(int(math.Round(h)), 0, maxY)
}

// generate fills an empty grid with seeded terrain. It does not light it.
func generate(g *voxel.ChunkGrid, cfg WorldConfig) {
	ex, ey, ez := g.Extent()
	for z := 0; z < ez; z++ {
		for x := 0; x < ex; x++ {
			top := surfaceHeight(cfg, x, z, ey-2)
			for y := 0; y <= top; y++ {
				id := BlockDirt
				switch {
				case y < top-cfg.StoneDepth:
					id = BlockStone
				case y == top:
					id = BlockGrass
				}
				g.Set(x, y, z, id)
			}
			if mathx.Permille(mathx.Hash2(cfg.Seed+1, x, z), cfg.EmitterPermille) {
				g.Set(x, top+1, z, voxel.Emitter)
			}
		}
	}
}
