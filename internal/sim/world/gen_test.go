package world

import (
	"testing"

	"voxlight.ai/internal/sim/voxel"
)

func TestGenerate_SurfaceWithinBounds(t *testing.T) {
	cfg := WorldConfig{Grid: [3]int{2, 1, 2}, Seed: 9, BaseHeight: 8, Amplitude: 40, StoneDepth: 2, EmitterPermille: 1000}
	cfg.applyDefaults()
	g := voxel.NewChunkGrid(2, 1, 2)
	generate(g, cfg)

	ex, ey, ez := g.Extent()
	for z := 0; z < ez; z++ {
		for x := 0; x < ex; x++ {
			top := surfaceHeight(cfg, x, z, ey-2)
			if top < 0 || top > ey-2 {
				t.Fatalf("(%d,%d): surface %d outside [0,%d]", x, z, top, ey-2)
			}
			if got := g.Get(x, top, z).ID; got != BlockGrass {
				t.Fatalf("(%d,%d): top is %d, want grass", x, z, got)
			}
			// Every column gets a lamp at 1000 permille.
			if got := g.Get(x, top+1, z).ID; got != voxel.Emitter {
				t.Fatalf("(%d,%d): no emitter above surface", x, z)
			}
		}
	}
}
