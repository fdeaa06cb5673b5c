package worldtest

import (
	"testing"

	simenc "voxlight.ai/internal/sim/encoding"
	"voxlight.ai/internal/sim/voxel"
)

// checkChunkPayload decodes the latest CHUNK for index i and compares it to
// the live grid, voxel by voxel and channel by channel.
func checkChunkPayload(t *testing.T, h *Harness, i int) {
	t.Helper()
	msg, ok := h.Chunk(i)
	if !ok {
		t.Fatalf("no CHUNK received for %d", i)
	}
	ids, err := simenc.DecodeRLE[uint8](msg.VoxelsRLE, voxel.Volume)
	if err != nil {
		t.Fatalf("voxels: %v", err)
	}
	light, err := simenc.DecodeRLE[uint16](msg.LightRLE, voxel.Volume)
	if err != nil {
		t.Fatalf("light: %v", err)
	}

	g := h.W.Grid()
	c := g.Chunk(i)
	if msg.Chunk != [3]int{c.CX, c.CY, c.CZ} {
		t.Fatalf("chunk coords: got %v", msg.Chunk)
	}
	for y := 0; y < voxel.Size; y++ {
		for z := 0; z < voxel.Size; z++ {
			for x := 0; x < voxel.Size; x++ {
				k := (y*voxel.Size+z)*voxel.Size + x
				wx, wy, wz := c.CX*voxel.Size+x, c.CY*voxel.Size+y, c.CZ*voxel.Size+z
				if ids[k] != g.Get(wx, wy, wz).ID {
					t.Fatalf("voxel (%d,%d,%d): payload %d grid %d", wx, wy, wz, ids[k], g.Get(wx, wy, wz).ID)
				}
				for ch := voxel.Channel(0); ch < voxel.Channels; ch++ {
					got := uint8(light[k]>>(4*uint(ch))) & 0xF
					if got != g.Light(wx, wy, wz, ch) {
						t.Fatalf("%s at (%d,%d,%d): payload %d grid %d", ch, wx, wy, wz, got, g.Light(wx, wy, wz, ch))
					}
				}
			}
		}
	}
}

func TestMeshFeed_PayloadTracksGrid(t *testing.T) {
	h := NewHarness(t, testConfig(), "mesher", true)
	g := h.W.Grid()
	for i := 0; i < g.Volume(); i++ {
		checkChunkPayload(t, h, i)
	}

	// A lamp on the seam between chunks lights both sides.
	if r := h.Place([3]int{16, 11, 8}, voxel.Emitter); !r.OK {
		t.Fatalf("place: %+v", r)
	}
	for i := 0; i < g.Volume(); i++ {
		checkChunkPayload(t, h, i)
	}
	if got := g.Light(15, 11, 8, voxel.Red); got != 9 {
		t.Fatalf("red across the seam: got %d want 9", got)
	}

	if r := h.Break([3]int{16, 11, 8}); !r.OK {
		t.Fatalf("break: %+v", r)
	}
	for i := 0; i < g.Volume(); i++ {
		checkChunkPayload(t, h, i)
	}
}

func TestMeshFeed_NeighbourIndices(t *testing.T) {
	h := NewHarness(t, testConfig(), "mesher", true)
	msg, ok := h.Chunk(0)
	if !ok {
		t.Fatalf("no chunk 0")
	}
	present := 0
	for _, n := range msg.Neighbours {
		if n >= 0 {
			present++
		}
	}
	// Corner chunk of a 2x2x2 grid sees the whole grid.
	if present != 8 {
		t.Fatalf("neighbours present: got %d want 8", present)
	}
}
