package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// Cell is any fixed-width value stored per voxel: block ids are uint8,
// packed light is uint16.
type Cell interface {
	~uint8 | ~uint16
}

var ErrLength = errors.New("rle: decoded length mismatch")

// EncodeRLE encodes cells as base64 of (value, run) uvarint pairs.
func EncodeRLE[T Cell](cells []T) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(cells); {
		v := cells[i]
		run := 1
		for j := i + 1; j < len(cells) && cells[j] == v; j++ {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE decodes into exactly want cells. want < 0 accepts any length.
func DecodeRLE[T Cell](b64 string, want int) ([]T, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("rle: %w", err)
	}
	var limit uint64 = 0xFF
	var zero T
	if _, wide := any(zero).(uint16); wide {
		limit = 0xFFFF
	}

	out := make([]T, 0, max(want, 0))
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("rle: bad varint at %d", i)
		}
		i += n
		if v > limit {
			return nil, fmt.Errorf("rle: value %d overflows cell", v)
		}
		if want >= 0 && uint64(len(out))+run > uint64(want) {
			return nil, fmt.Errorf("%w: more than %d cells", ErrLength, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, T(v))
		}
	}
	if want >= 0 && len(out) != want {
		return nil, fmt.Errorf("%w: got %d want %d", ErrLength, len(out), want)
	}
	return out, nil
}
