package voxel

import "errors"

// Block ids with special meaning to lighting and meshing.
const (
	Air      uint8 = 0
	Emitter  uint8 = 3
	Boundary uint8 = 0xFF // synthetic, never stored
)

var (
	// ErrOutOfBounds is the panic value for local coordinates outside a chunk.
	ErrOutOfBounds = errors.New("voxel: local coordinate out of bounds")
	// ErrBadChannel is the panic value for a light channel outside [0,Channels).
	ErrBadChannel = errors.New("voxel: bad light channel")
	// ErrBufferSize is returned by ChunkGrid.Read/Write for a buffer that does
	// not hold exactly one byte per voxel.
	ErrBufferSize = errors.New("voxel: buffer size mismatch")
)

// Voxel is the persisted state of one cell.
type Voxel struct {
	ID uint8
}

func (v Voxel) Empty() bool { return v.ID == Air }

// Opaque reports whether light is blocked by v. The boundary sentinel is opaque.
func (v Voxel) Opaque() bool { return v.ID != Air }

func (v Voxel) Emissive() bool { return v.ID == Emitter }

var boundaryVoxel = Voxel{ID: Boundary}
