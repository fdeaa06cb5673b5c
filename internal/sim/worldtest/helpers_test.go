package worldtest

import world "voxlight.ai/internal/sim/world"

// testConfig is a 32x32x32 world with flat ground at y=10 and no lamps.
func testConfig() world.WorldConfig {
	return world.WorldConfig{
		ID:              "test",
		Grid:            [3]int{2, 2, 2},
		Seed:            42,
		BaseHeight:      10,
		StoneDepth:      4,
		MaxEditsPerTick: 64,
	}
}
