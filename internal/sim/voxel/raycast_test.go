package voxel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRayCast_HitAndNormal(t *testing.T) {
	g := NewChunkGrid(1, 1, 1)
	g.Set(8, 8, 12, 2)

	hit, ok := g.RayCast(mgl32.Vec3{8.5, 8.5, 2.5}, mgl32.Vec3{0, 0, 1}, 20)
	if !ok {
		t.Fatalf("expected hit")
	}
	if hit.Pos != [3]int{8, 8, 12} || hit.Voxel.ID != 2 {
		t.Fatalf("hit: %+v", hit)
	}
	if hit.Normal != [3]int{0, 0, -1} {
		t.Fatalf("normal: got %v", hit.Normal)
	}
	if hit.Adjacent() != [3]int{8, 8, 11} {
		t.Fatalf("adjacent: got %v", hit.Adjacent())
	}
	if d := hit.End.Z() - 12; d < -1e-4 || d > 1e-4 {
		t.Fatalf("end: got %v", hit.End)
	}
}

func TestRayCast_Diagonal(t *testing.T) {
	g := NewChunkGrid(1, 1, 1)
	g.Set(5, 2, 5, 1)

	hit, ok := g.RayCast(mgl32.Vec3{1.5, 6.5, 1.5}, mgl32.Vec3{1, -1, 1}, 30)
	if !ok {
		t.Fatalf("expected hit")
	}
	if hit.Pos != [3]int{5, 2, 5} {
		t.Fatalf("pos: got %v", hit.Pos)
	}
	n := hit.Normal
	if abs(n[0])+abs(n[1])+abs(n[2]) != 1 {
		t.Fatalf("normal must be a unit axis: %v", n)
	}
}

func TestRayCast_Miss(t *testing.T) {
	g := NewChunkGrid(1, 1, 1)
	g.Set(8, 8, 15, 1)

	if _, ok := g.RayCast(mgl32.Vec3{8.5, 8.5, 0.5}, mgl32.Vec3{0, 0, 1}, 5); ok {
		t.Fatalf("hit beyond max distance")
	}
	if _, ok := g.RayCast(mgl32.Vec3{8.5, 8.5, 0.5}, mgl32.Vec3{0, 1, 0}, 50); ok {
		t.Fatalf("boundary must not count as a hit")
	}
	if _, ok := g.RayCast(mgl32.Vec3{8.5, 8.5, 0.5}, mgl32.Vec3{}, 50); ok {
		t.Fatalf("zero direction must miss")
	}
}

func TestRayCast_EntersGridFromOutside(t *testing.T) {
	g := NewChunkGrid(1, 1, 1)
	g.Set(0, 4, 4, 1)

	hit, ok := g.RayCast(mgl32.Vec3{-3.5, 4.5, 4.5}, mgl32.Vec3{1, 0, 0}, 10)
	if !ok || hit.Pos != [3]int{0, 4, 4} || hit.Normal != [3]int{-1, 0, 0} {
		t.Fatalf("hit=%+v ok=%v", hit, ok)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
