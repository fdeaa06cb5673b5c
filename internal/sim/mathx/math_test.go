package mathx

import "testing"

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{0, 16, 0}, {15, 16, 0}, {16, 16, 1}, {-1, 16, -1}, {-16, 16, -1}, {-17, 16, -2},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestHash2_StableAndSeeded(t *testing.T) {
	if Hash2(1, 3, 4) != Hash2(1, 3, 4) {
		t.Fatalf("hash not stable")
	}
	if Hash2(1, 3, 4) == Hash2(2, 3, 4) {
		t.Fatalf("seed ignored")
	}
	if Hash2(1, 3, 4) == Hash2(1, 4, 3) {
		t.Fatalf("axes not distinguished")
	}
	for i := 0; i < 1000; i++ {
		if u := Unit(Hash2(7, i, -i)); u < 0 || u >= 1 {
			t.Fatalf("Unit out of range: %v", u)
		}
	}
}

func TestPermille_Bounds(t *testing.T) {
	if Permille(999, 0) {
		t.Fatalf("0 permille matched")
	}
	if !Permille(999, 5000) {
		t.Fatalf("clamped 1000 permille missed")
	}
}
