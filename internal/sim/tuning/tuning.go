package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	MaxEditsPerTick    int `yaml:"max_edits_per_tick"`

	Grid     Grid     `yaml:"grid"`
	WorldGen WorldGen `yaml:"worldgen"`
	Light    Light    `yaml:"light"`
	Pick     Pick     `yaml:"pick"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

// Grid is the fixed world size in chunks.
type Grid struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
	D int `yaml:"d"`
}

type WorldGen struct {
	Seed            int64   `yaml:"seed"`
	BaseHeight      int     `yaml:"base_height"`
	Amplitude       float64 `yaml:"amplitude"`
	StoneDepth      int     `yaml:"stone_depth"`
	EmitterPermille int     `yaml:"emitter_permille"`
}

type Light struct {
	EmitterSeed  [3]int `yaml:"emitter_seed"`
	EmitterPlace [3]int `yaml:"emitter_place"`
}

type Pick struct {
	MaxDistance float32 `yaml:"max_distance"`
}

// RateLimits caps edits per session over a window of ticks.
type RateLimits struct {
	EditWindowTicks int `yaml:"edit_window_ticks"`
	EditMax         int `yaml:"edit_max"`
}

func Defaults() Tuning {
	var t Tuning
	t.ApplyDefaults()
	return t
}

// ApplyDefaults fills zero fields. A zero worldgen seed is a valid seed and is
// left alone.
func (t *Tuning) ApplyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = 20
	}
	if t.SnapshotEveryTicks <= 0 {
		t.SnapshotEveryTicks = 6000
	}
	if t.MaxEditsPerTick <= 0 {
		t.MaxEditsPerTick = 64
	}
	if t.Grid.W <= 0 {
		t.Grid.W = 4
	}
	if t.Grid.H <= 0 {
		t.Grid.H = 4
	}
	if t.Grid.D <= 0 {
		t.Grid.D = 4
	}
	if t.WorldGen.BaseHeight <= 0 {
		t.WorldGen.BaseHeight = 24
	}
	if t.WorldGen.Amplitude <= 0 {
		t.WorldGen.Amplitude = 6
	}
	if t.WorldGen.StoneDepth <= 0 {
		t.WorldGen.StoneDepth = 4
	}
	if t.WorldGen.EmitterPermille <= 0 {
		t.WorldGen.EmitterPermille = 3
	}
	if t.Light.EmitterSeed == ([3]int{}) {
		t.Light.EmitterSeed = [3]int{15, 15, 15}
	}
	if t.Light.EmitterPlace == ([3]int{}) {
		t.Light.EmitterPlace = [3]int{10, 10, 0}
	}
	if t.Pick.MaxDistance <= 0 {
		t.Pick.MaxDistance = 64
	}
	if t.RateLimits.EditWindowTicks <= 0 {
		t.RateLimits.EditWindowTicks = 20
	}
	if t.RateLimits.EditMax <= 0 {
		t.RateLimits.EditMax = 40
	}
}

func (t Tuning) Validate() error {
	for _, v := range append(t.Light.EmitterSeed[:], t.Light.EmitterPlace[:]...) {
		if v < 0 || v > 15 {
			return fmt.Errorf("tuning: light intensity %d outside [0,15]", v)
		}
	}
	if t.WorldGen.BaseHeight >= t.Grid.H*16-1 {
		return fmt.Errorf("tuning: base_height %d does not fit grid height %d", t.WorldGen.BaseHeight, t.Grid.H*16)
	}
	return nil
}

// Load reads a yaml file and applies defaults to anything it leaves unset.
func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
