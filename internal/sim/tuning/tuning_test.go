package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoConfig(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.WorldGen.Seed != 1337 {
		t.Fatalf("seed: got %d", tu.WorldGen.Seed)
	}
	if tu.Light.EmitterPlace != [3]int{10, 10, 0} {
		t.Fatalf("emitter_place: got %v", tu.Light.EmitterPlace)
	}
	if tu.Grid != (Grid{W: 4, H: 4, D: 4}) {
		t.Fatalf("grid: got %+v", tu.Grid)
	}
	if tu.RateLimits != (RateLimits{EditWindowTicks: 20, EditMax: 40}) {
		t.Fatalf("rate_limits: got %+v", tu.RateLimits)
	}
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("grid: {w: 2}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Defaults()
	if tu.Grid.W != 2 || tu.Grid.H != def.Grid.H {
		t.Fatalf("grid: got %+v", tu.Grid)
	}
	if tu.TickRateHz != def.TickRateHz || tu.Pick.MaxDistance != def.Pick.MaxDistance {
		t.Fatalf("defaults not applied: %+v", tu)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"intensity": "light: {emitter_place: [16, 0, 0]}\n",
		"height":    "grid: {h: 1}\nworldgen: {base_height: 40}\n",
		"yaml":      "grid: [\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
