package voxel

// Channel selects one of the four light quantities stored per voxel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	Sun

	Channels = 4
)

// MaxLight is the largest intensity a channel can hold.
const MaxLight = 15

var channelNames = [Channels]string{"R", "G", "B", "S"}

func (c Channel) String() string {
	if c < 0 || c >= Channels {
		return "?"
	}
	return channelNames[c]
}

func (c Channel) Valid() bool { return c >= 0 && c < Channels }

// Lightmap packs four 4-bit intensities into one uint16 per voxel:
// bits 0-3 red, 4-7 green, 8-11 blue, 12-15 sun.
type Lightmap struct {
	cells [Volume]uint16
}

func (m *Lightmap) Get(x, y, z int, ch Channel) uint8 {
	shift := channelShift(ch)
	return uint8(m.cells[localIndex(x, y, z)]>>shift) & 0xF
}

// Set overwrites one channel, clamping v to [0,MaxLight].
func (m *Lightmap) Set(x, y, z int, ch Channel, v int) {
	shift := channelShift(ch)
	i := localIndex(x, y, z)
	m.cells[i] = m.cells[i]&^(0xF<<shift) | uint16(clampLight(v))<<shift
}

// Packed returns the raw 16-bit value of a cell.
func (m *Lightmap) Packed(x, y, z int) uint16 {
	return m.cells[localIndex(x, y, z)]
}

// Raw exposes the packed cells in raster order. Callers must not retain it
// across edits.
func (m *Lightmap) Raw() []uint16 { return m.cells[:] }

func (m *Lightmap) Clear() { m.cells = [Volume]uint16{} }

func channelShift(ch Channel) uint {
	if !ch.Valid() {
		panic(ErrBadChannel)
	}
	return uint(ch) * 4
}

func clampLight(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxLight {
		return MaxLight
	}
	return v
}
