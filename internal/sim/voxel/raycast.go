package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RayHit describes the first solid voxel a ray enters.
type RayHit struct {
	Voxel Voxel
	// End is the point where the ray entered the hit cell.
	End mgl32.Vec3
	// Normal is the face the ray entered through, pointing back at the
	// origin. Pos+Normal is the empty cell in front of the face.
	Normal [3]int
	Pos    [3]int
}

// Adjacent is the cell in front of the hit face.
func (h RayHit) Adjacent() [3]int {
	return [3]int{h.Pos[0] + h.Normal[0], h.Pos[1] + h.Normal[1], h.Pos[2] + h.Normal[2]}
}

// RayCast walks cell by cell along origin+t*dir (voxel DDA) until it enters a
// non-air voxel inside the grid or t exceeds maxDist. Cells outside the grid
// are passed through. A ray starting inside a solid hits it with a zero
// normal.
func (g *ChunkGrid) RayCast(origin, dir mgl32.Vec3, maxDist float32) (RayHit, bool) {
	if maxDist <= 0 || dir.Len() == 0 {
		return RayHit{}, false
	}
	d := dir.Normalize()
	inf := float32(math.Inf(1))

	var (
		pos    [3]int
		step   [3]int
		tMax   [3]float32
		tDelta [3]float32
	)
	for a := 0; a < 3; a++ {
		f := float32(math.Floor(float64(origin[a])))
		pos[a] = int(f)
		switch {
		case d[a] > 0:
			step[a] = 1
			tDelta[a] = 1 / d[a]
			tMax[a] = (f + 1 - origin[a]) / d[a]
		case d[a] < 0:
			step[a] = -1
			tDelta[a] = -1 / d[a]
			tMax[a] = (origin[a] - f) / -d[a]
		default:
			tDelta[a] = inf
			tMax[a] = inf
		}
	}

	var (
		t      float32
		normal [3]int
	)
	for t <= maxDist {
		if g.InBounds(pos[0], pos[1], pos[2]) {
			if v := g.Get(pos[0], pos[1], pos[2]); !v.Empty() {
				return RayHit{
					Voxel:  v,
					End:    origin.Add(d.Mul(t)),
					Normal: normal,
					Pos:    pos,
				}, true
			}
		}

		axis := 2
		if tMax[0] < tMax[1] {
			if tMax[0] < tMax[2] {
				axis = 0
			}
		} else if tMax[1] < tMax[2] {
			axis = 1
		}
		t = tMax[axis]
		pos[axis] += step[axis]
		tMax[axis] += tDelta[axis]
		normal = [3]int{}
		normal[axis] = -step[axis]
	}
	return RayHit{}, false
}
