package voxel

// NeighbourSlot is the index into a [27] neighbourhood for chunk offsets in
// [-1,1]. Slot 13 is the chunk itself.
func NeighbourSlot(dx, dy, dz int) int {
	return ((dy+1)*3+(dz+1))*3 + (dx + 1)
}

func buildNeighbourTable(w, h, d int) [][27]int {
	table := make([][27]int, w*h*d)
	for cy := 0; cy < h; cy++ {
		for cz := 0; cz < d; cz++ {
			for cx := 0; cx < w; cx++ {
				row := &table[(cy*d+cz)*w+cx]
				for dy := -1; dy <= 1; dy++ {
					for dz := -1; dz <= 1; dz++ {
						for dx := -1; dx <= 1; dx++ {
							x, y, z := cx+dx, cy+dy, cz+dz
							slot := NeighbourSlot(dx, dy, dz)
							if x < 0 || y < 0 || z < 0 || x >= w || y >= h || z >= d {
								row[slot] = -1
								continue
							}
							row[slot] = (y*d+z)*w + x
						}
					}
				}
			}
		}
	}
	return table
}

// Neighbourhood returns the chunk indices around chunk i (itself included at
// slot 13), -1 where the neighbour is outside the grid.
func (g *ChunkGrid) Neighbourhood(i int) [27]int {
	return g.neighbours[i]
}

// NeighbourChunks resolves Neighbourhood into chunk pointers, nil outside.
func (g *ChunkGrid) NeighbourChunks(i int) [27]*Chunk {
	var out [27]*Chunk
	for slot, j := range g.neighbours[i] {
		if j >= 0 {
			out[slot] = &g.chunks[j]
		}
	}
	return out
}
