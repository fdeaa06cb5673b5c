package world

import (
	"voxlight.ai/internal/sim/lighting"
	"voxlight.ai/internal/sim/tuning"
)

type WorldConfig struct {
	ID         string
	TickRateHz int

	// Grid is the world size in chunks (w, h, d).
	Grid [3]int

	// Worldgen.
	Seed            int64
	BaseHeight      int
	Amplitude       float64
	StoneDepth      int
	EmitterPermille int

	Light lighting.EngineConfig

	PickMaxDistance float32

	// Operational parameters. These are included in snapshots for deterministic replay/resume.
	SnapshotEveryTicks int
	MaxEditsPerTick    int

	// Per-session edit limit; zero disables it.
	EditRateWindowTicks uint64
	EditRateMax         int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	for i := range c.Grid {
		if c.Grid[i] <= 0 {
			c.Grid[i] = 4
		}
	}
	if c.BaseHeight <= 0 {
		c.BaseHeight = c.Grid[1] * 16 / 2
	}
	if c.Amplitude < 0 {
		c.Amplitude = 0
	}
	if c.StoneDepth <= 0 {
		c.StoneDepth = 4
	}
	if c.PickMaxDistance <= 0 {
		c.PickMaxDistance = 64
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = 6000
	}
	if c.MaxEditsPerTick <= 0 {
		c.MaxEditsPerTick = 64
	}
}

// ConfigFromTuning maps the yaml tuning onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		Grid:               [3]int{t.Grid.W, t.Grid.H, t.Grid.D},
		Seed:               t.WorldGen.Seed,
		BaseHeight:         t.WorldGen.BaseHeight,
		Amplitude:          t.WorldGen.Amplitude,
		StoneDepth:         t.WorldGen.StoneDepth,
		EmitterPermille:    t.WorldGen.EmitterPermille,
		Light:              lighting.EngineConfig{EmitterSeed: t.Light.EmitterSeed, EmitterPlace: t.Light.EmitterPlace},
		PickMaxDistance:    t.Pick.MaxDistance,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		MaxEditsPerTick:    t.MaxEditsPerTick,

		EditRateWindowTicks: uint64(t.RateLimits.EditWindowTicks),
		EditRateMax:         t.RateLimits.EditMax,
	}
}
