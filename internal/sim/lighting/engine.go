package lighting

import "voxlight.ai/internal/sim/voxel"

type EngineConfig struct {
	// EmitterSeed is the R,G,B intensity given to emitters by Relight.
	EmitterSeed [3]int
	// EmitterPlace is the R,G,B intensity given to a newly placed emitter.
	EmitterPlace [3]int
}

func (c *EngineConfig) applyDefaults() {
	if c.EmitterSeed == ([3]int{}) {
		c.EmitterSeed = [3]int{voxel.MaxLight, voxel.MaxLight, voxel.MaxLight}
	}
	if c.EmitterPlace == ([3]int{}) {
		c.EmitterPlace = [3]int{10, 10, 0}
	}
}

// Engine drives the four channel solvers over one grid. Solvers always run in
// R, G, B, S order.
type Engine struct {
	grid    *voxel.ChunkGrid
	cfg     EngineConfig
	solvers [voxel.Channels]*Solver
}

func NewEngine(grid *voxel.ChunkGrid, cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	e := &Engine{grid: grid, cfg: cfg}
	for ch := voxel.Channel(0); ch < voxel.Channels; ch++ {
		e.solvers[ch] = NewSolver(grid, ch)
	}
	return e
}

func (e *Engine) Grid() *voxel.ChunkGrid { return e.grid }

func (e *Engine) Solver(ch voxel.Channel) *Solver {
	if !ch.Valid() {
		panic(voxel.ErrBadChannel)
	}
	return e.solvers[ch]
}

func (e *Engine) Idle() bool {
	for _, s := range e.solvers {
		if !s.Idle() {
			return false
		}
	}
	return true
}

// Solve solves every channel and returns the total number of light writes.
func (e *Engine) Solve() int {
	return e.solve(voxel.Red, voxel.Green, voxel.Blue, voxel.Sun)
}

func (e *Engine) solve(chs ...voxel.Channel) int {
	n := 0
	for _, ch := range chs {
		n += e.solvers[ch].Solve()
	}
	return n
}

// Relight discards all light and rebuilds it from emitters and open sky.
func (e *Engine) Relight() int {
	g := e.grid
	g.ClearLight()
	ex, ey, ez := g.Extent()

	for y := 0; y < ey; y++ {
		for z := 0; z < ez; z++ {
			for x := 0; x < ex; x++ {
				if !g.Get(x, y, z).Emissive() {
					continue
				}
				for ch := voxel.Red; ch <= voxel.Blue; ch++ {
					e.solvers[ch].Add(x, y, z, e.cfg.EmitterSeed[ch])
				}
			}
		}
	}

	// Full sun down every open column first, so the frontier pass below only
	// seeds cells that border darkness.
	for z := 0; z < ez; z++ {
		for x := 0; x < ex; x++ {
			for y := ey - 1; y >= 0 && g.Get(x, y, z).Empty(); y-- {
				g.SetLight(x, y, z, voxel.Sun, voxel.MaxLight)
			}
		}
	}
	sun := e.solvers[voxel.Sun]
	for z := 0; z < ez; z++ {
		for x := 0; x < ex; x++ {
			for y := ey - 1; y >= 0 && g.Get(x, y, z).Empty(); y-- {
				if e.bordersDark(x, y, z) {
					sun.Enqueue(x, y, z)
				}
			}
		}
	}
	return e.Solve()
}

func (e *Engine) bordersDark(x, y, z int) bool {
	for _, f := range faces {
		if e.grid.Light(x+f[0], y+f[1], z+f[2], voxel.Sun) == 0 {
			return true
		}
	}
	return false
}

// Break clears the voxel at (x,y,z) and repairs light around it. It returns
// the previous id; ok is false for air or coordinates outside the grid.
func (e *Engine) Break(x, y, z int) (from uint8, ok bool) {
	g := e.grid
	if !g.InBounds(x, y, z) {
		return voxel.Boundary, false
	}
	from = g.Get(x, y, z).ID
	if from == voxel.Air {
		return from, false
	}
	g.Set(x, y, z, voxel.Air)

	for ch := voxel.Red; ch <= voxel.Blue; ch++ {
		e.solvers[ch].Remove(x, y, z)
	}
	e.solve(voxel.Red, voxel.Green, voxel.Blue)

	sun := e.solvers[voxel.Sun]
	if g.Light(x, y+1, z, voxel.Sun) == voxel.MaxLight {
		for i := y; i >= 0 && g.Get(x, i, z).Empty(); i-- {
			sun.Add(x, i, z, voxel.MaxLight)
		}
	}

	for _, f := range faces {
		for _, s := range e.solvers {
			s.Enqueue(x+f[0], y+f[1], z+f[2])
		}
	}
	e.Solve()
	return from, true
}

// Place puts id at (x,y,z) and repairs light around it. It returns the previous
// id; ok is false when the target is not air, outside the grid, or id is air or
// the boundary sentinel.
func (e *Engine) Place(x, y, z int, id uint8) (from uint8, ok bool) {
	g := e.grid
	if !g.InBounds(x, y, z) {
		return voxel.Boundary, false
	}
	from = g.Get(x, y, z).ID
	if from != voxel.Air || id == voxel.Air || id == voxel.Boundary {
		return from, false
	}
	g.Set(x, y, z, id)

	for _, s := range e.solvers {
		s.Remove(x, y, z)
	}
	// The open shaft below was lit through this cell.
	sun := e.solvers[voxel.Sun]
	for i := y - 1; i >= 0 && g.Get(x, i, z).Empty(); i-- {
		sun.Remove(x, i, z)
	}
	e.Solve()

	if g.Get(x, y, z).Emissive() {
		for ch := voxel.Red; ch <= voxel.Blue; ch++ {
			e.solvers[ch].Add(x, y, z, e.cfg.EmitterPlace[ch])
		}
		e.solve(voxel.Red, voxel.Green, voxel.Blue)
	}
	return from, true
}
