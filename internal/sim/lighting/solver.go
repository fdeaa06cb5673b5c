// Package lighting keeps the per-voxel light field consistent with the voxel
// grid using incremental flood fill: growth for new light, retraction for
// removed light, one Solver per channel.
package lighting

import "voxlight.ai/internal/sim/voxel"

var faces = [6][3]int{
	{0, 0, 1}, {0, 0, -1},
	{0, 1, 0}, {0, -1, 0},
	{1, 0, 0}, {-1, 0, 0},
}

// Solver propagates one light channel. Its queues are empty at rest: every
// Add/Enqueue/Remove must be followed by Solve before the grid is read.
type Solver struct {
	grid    *voxel.ChunkGrid
	channel voxel.Channel

	growth  fifo
	retract fifo
}

func NewSolver(grid *voxel.ChunkGrid, ch voxel.Channel) *Solver {
	if !ch.Valid() {
		panic(voxel.ErrBadChannel)
	}
	return &Solver{grid: grid, channel: ch}
}

func (s *Solver) Channel() voxel.Channel { return s.channel }

// Idle reports whether both queues are drained.
func (s *Solver) Idle() bool { return s.growth.Len() == 0 && s.retract.Len() == 0 }

// Add stores intensity at (x,y,z) and seeds growth from it.
func (s *Solver) Add(x, y, z, intensity int) {
	if !s.grid.InBounds(x, y, z) {
		return
	}
	s.grid.SetLight(x, y, z, s.channel, intensity)
	s.growth.push(lightEntry{x: x, y: y, z: z})
}

// Enqueue seeds growth from (x,y,z) without touching its stored value.
func (s *Solver) Enqueue(x, y, z int) {
	if !s.grid.InBounds(x, y, z) {
		return
	}
	s.growth.push(lightEntry{x: x, y: y, z: z})
}

// Remove zeroes (x,y,z) and seeds retraction with its former intensity. A cell
// that was already dark still seeds retraction, which hands its lit neighbours
// back to growth.
func (s *Solver) Remove(x, y, z int) {
	if !s.grid.InBounds(x, y, z) {
		return
	}
	old := s.grid.Light(x, y, z, s.channel)
	s.grid.SetLight(x, y, z, s.channel, 0)
	s.retract.push(lightEntry{x: x, y: y, z: z, light: old})
}

// Solve drains retraction then growth to a fixed point and returns the number
// of light values it wrote.
func (s *Solver) Solve() int {
	writes := 0
	for s.retract.Len() > 0 {
		e := s.retract.pop()
		for _, f := range faces {
			nx, ny, nz := e.x+f[0], e.y+f[1], e.z+f[2]
			if !s.grid.InBounds(nx, ny, nz) {
				continue
			}
			v := s.grid.Light(nx, ny, nz, s.channel)
			switch {
			case v == 0:
			case v < e.light, s.fallsFrom(f) && v == e.light:
				s.grid.SetLight(nx, ny, nz, s.channel, 0)
				s.retract.push(lightEntry{x: nx, y: ny, z: nz, light: v})
				writes++
			default:
				// Held by another source; regrow it into the cleared region.
				s.growth.push(lightEntry{x: nx, y: ny, z: nz})
			}
		}
	}

	for s.growth.Len() > 0 {
		e := s.growth.pop()
		cur := int(s.grid.Light(e.x, e.y, e.z, s.channel))
		if cur == 0 {
			continue
		}
		for _, f := range faces {
			nx, ny, nz := e.x+f[0], e.y+f[1], e.z+f[2]
			if s.grid.Get(nx, ny, nz).Opaque() {
				continue
			}
			cand := cur - s.attenuation(f)
			if cand > int(s.grid.Light(nx, ny, nz, s.channel)) {
				s.grid.SetLight(nx, ny, nz, s.channel, cand)
				s.growth.push(lightEntry{x: nx, y: ny, z: nz})
				writes++
			}
		}
	}
	return writes
}

// fallsFrom reports whether light crossing face keeps its intensity: sunlight
// stepping straight down into air. Retraction uses the same test, so a cell fed
// from directly above at equal intensity retracts with its feeder.
func (s *Solver) fallsFrom(face [3]int) bool {
	return s.channel == voxel.Sun && face[1] == -1
}

func (s *Solver) attenuation(face [3]int) int {
	if s.fallsFrom(face) {
		return 0
	}
	return 1
}
